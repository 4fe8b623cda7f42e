// Package booking holds the shared shapes exchanged with the reservation
// backend. Field names and JSON tags follow the backend wire format.
package booking

import (
	"fmt"
	"time"
)

// DisplayDate renders a YYYY-MM-DD wire date as YYYY年M月D日 for the UI.
// Unparseable input is returned unchanged.
func DisplayDate(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d年%d月%d日", parsed.Year(), int(parsed.Month()), parsed.Day())
}

// BookingStatus is the lifecycle state of a booking. Bookings are never
// deleted, only moved from confirmed to cancelled.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Duration is the lesson length in minutes.
	Duration int `json:"duration"`
}

// Slot is a bookable time interval for a service on a given date.
// Available is computed by the backend as Capacity - Reserved and trusted
// as-is by callers.
type Slot struct {
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	Capacity  int    `json:"capacity"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}

// Full reports whether the slot has no remaining capacity.
func (s Slot) Full() bool {
	return s.Available == 0
}

type ServiceSlots struct {
	ServiceID int64  `json:"service_id"`
	Date      string `json:"date"`
	Slots     []Slot `json:"slots"`
}

type BookingDetail struct {
	ID          int64         `json:"id"`
	ServiceID   int64         `json:"service_id"`
	ServiceName string        `json:"service_name"`
	Date        string        `json:"date"`
	StartTime   string        `json:"start_time"`
	Status      BookingStatus `json:"status"`
}

// AdminBookingDetail is the privileged listing shape; it adds the booking
// owner's name.
type AdminBookingDetail struct {
	ID          int64         `json:"id"`
	ServiceID   int64         `json:"service_id"`
	ServiceName string        `json:"service_name"`
	UserName    string        `json:"user_name"`
	Date        string        `json:"date"`
	StartTime   string        `json:"start_time"`
	Status      BookingStatus `json:"status"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the access/refresh credential pair plus the
// authenticated user. Register returns the same shape.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access string `json:"access"`
}

type CreateBookingRequest struct {
	ServiceID int64  `json:"service_id"`
	SlotID    int64  `json:"slot_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type CreateBookingResponse struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
	ServiceID int64  `json:"service_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type CancelBookingResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
