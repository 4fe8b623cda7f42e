// Package client wraps outbound calls to the reservation backend. The API
// interface has two implementations: the HTTP client in this package and the
// in-process substitute in internal/mockapi.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwaseano/yoga-reserve/internal/booking"
)

// ErrNotAuthenticated is returned before any network access when an
// operation that requires a bearer credential is called without one.
var ErrNotAuthenticated = errors.New("not authenticated")

// API is the backend operation surface. Every operation except Login,
// Register and Refresh requires a bearer access token.
type API interface {
	Login(ctx context.Context, req booking.LoginRequest) (booking.LoginResponse, error)
	Register(ctx context.Context, req booking.RegisterRequest) (booking.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (booking.RefreshResponse, error)

	Services(ctx context.Context, token string) ([]booking.Service, error)
	Service(ctx context.Context, token string, serviceID int64) (booking.Service, error)
	Slots(ctx context.Context, token string, serviceID int64, date string) (booking.ServiceSlots, error)

	CreateBooking(ctx context.Context, token string, req booking.CreateBookingRequest) (booking.CreateBookingResponse, error)
	MyBookings(ctx context.Context, token string) ([]booking.BookingDetail, error)
	CancelBooking(ctx context.Context, token string, bookingID int64) (booking.CancelBookingResponse, error)

	// AllBookings is the privileged listing used by the admin view.
	AllBookings(ctx context.Context, token string) ([]booking.AdminBookingDetail, error)
}

// BackendError is a backend-reported failure. Detail comes from the error
// body's "detail" field when present, otherwise a generic fallback.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Message extracts the user-facing text from a backend failure, falling
// back to fallback for transport errors and detail-less responses.
func Message(err error, fallback string) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) && backendErr.Detail != "" {
		return backendErr.Detail
	}
	return fallback
}
