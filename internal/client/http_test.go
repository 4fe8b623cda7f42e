package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/iwaseano/yoga-reserve/internal/booking"
)

func TestLoginSendsCredentialsAndDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %q", ct)
		}

		var req booking.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email != "demo@example.com" {
			t.Errorf("unexpected email: %q", req.Email)
		}

		json.NewEncoder(w).Encode(booking.LoginResponse{
			Access:  "access-token",
			Refresh: "refresh-token",
			User:    booking.User{ID: 1, Name: "山田太郎", Email: req.Email},
		})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	resp, err := c.Login(context.Background(), booking.LoginRequest{Email: "demo@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Access != "access-token" || resp.User.Name != "山田太郎" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAuthedRequestsCarryBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer token-123" {
			t.Errorf("unexpected authorization header: %q", auth)
		}
		json.NewEncoder(w).Encode([]booking.Service{{ID: 1, Name: "ベーシックヨガ", Duration: 60}})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	services, err := c.Services(context.Background(), "token-123")
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	if len(services) != 1 || services[0].Name != "ベーシックヨガ" {
		t.Errorf("unexpected services: %+v", services)
	}
}

func TestEmptyTokenFailsWithoutRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	if _, err := c.MyBookings(context.Background(), ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no network access, got %d requests", calls)
	}
}

func TestErrorDetailExtracted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Slot is full"})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	_, err := c.CreateBooking(context.Background(), "token", booking.CreateBookingRequest{
		ServiceID: 1, SlotID: 100, Date: "2025-12-01", StartTime: "09:00",
	})

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if backendErr.Status != http.StatusBadRequest || backendErr.Detail != "Slot is full" {
		t.Errorf("unexpected error: %+v", backendErr)
	}
	if err.Error() != "Slot is full" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestErrorWithoutDetailFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	_, err := c.Services(context.Background(), "token")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if backendErr.Detail != "" {
		t.Errorf("expected empty detail for non-JSON body, got %q", backendErr.Detail)
	}
	if err.Error() != "request failed with status 502" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSlotsEncodesDateQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/2/slots" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if date := r.URL.Query().Get("date"); date != "2025-12-01" {
			t.Errorf("unexpected date: %q", date)
		}
		json.NewEncoder(w).Encode(booking.ServiceSlots{ServiceID: 2, Date: "2025-12-01"})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	slots, err := c.Slots(context.Background(), "token", 2, "2025-12-01")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if slots.ServiceID != 2 {
		t.Errorf("unexpected service id: %d", slots.ServiceID)
	}
}

func TestCancelBookingUsesDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/bookings/42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(booking.CancelBookingResponse{ID: 42, Status: "cancelled"})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, nil)
	resp, err := c.CancelBooking(context.Background(), "token", 42)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if resp.ID != 42 || resp.Status != "cancelled" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestMessageHelper(t *testing.T) {
	wrapped := &BackendError{Status: 400, Detail: "このメールアドレスは既に登録されています"}
	if got := Message(wrapped, "登録に失敗しました"); got != wrapped.Detail {
		t.Errorf("expected detail, got %q", got)
	}
	if got := Message(errors.New("connection refused"), "登録に失敗しました"); got != "登録に失敗しました" {
		t.Errorf("expected fallback, got %q", got)
	}
}
