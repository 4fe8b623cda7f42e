package slots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/testutil"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

func setupHandlers(t *testing.T) *session.Session {
	t.Helper()

	mock := testutil.NewBackend(t)

	prevBackend, prevToasts, prevMailer := backend, toasts, mailer
	backend = mock
	toasts = toast.NewStore()
	mailer = nil
	t.Cleanup(func() {
		backend, toasts, mailer = prevBackend, prevToasts, prevMailer
	})

	resp, err := mock.Login(context.Background(), booking.LoginRequest{
		Email:    "demo@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return &session.Session{
		SID:         "test-sid",
		AccessToken: resp.Access,
		User:        resp.User,
	}
}

func postBooking(sess *session.Session, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	if sess != nil {
		req = req.WithContext(session.ContextWith(req.Context(), sess))
	}
	return req
}

func TestHandleCreateBookingSuccess(t *testing.T) {
	sess := setupHandlers(t)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postBooking(sess, url.Values{
		"service_id": {"2"},
		"slot_id":    {"201"},
		"date":       {"2025-12-01"},
		"start_time": {"10:00"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Trigger"); got != "refreshBookings" {
		t.Errorf("expected refreshBookings trigger, got %q", got)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/services" {
		t.Errorf("expected redirect to /services, got %q", got)
	}

	active := toasts.Active(sess.SID)
	if len(active) != 1 || active[0].Message != "予約が完了しました!" {
		t.Errorf("expected success toast, got %+v", active)
	}

	slots, err := backend.Slots(context.Background(), sess.AccessToken, 2, "2025-12-01")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for _, slot := range slots.Slots {
		if slot.StartTime == "10:00" && slot.Reserved != 1 {
			t.Errorf("expected reservation to be recorded, got %d", slot.Reserved)
		}
	}
}

func TestHandleCreateBookingSlotFull(t *testing.T) {
	sess := setupHandlers(t)
	ctx := context.Background()

	req := booking.CreateBookingRequest{ServiceID: 1, SlotID: 102, Date: "2025-12-02", StartTime: "11:00"}
	for i := 0; i < 5; i++ {
		if _, err := backend.CreateBooking(ctx, sess.AccessToken, req); err != nil {
			t.Fatalf("fill slot: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postBooking(sess, url.Values{
		"service_id": {"1"},
		"slot_id":    {"102"},
		"date":       {"2025-12-02"},
		"start_time": {"11:00"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "" {
		t.Errorf("expected no redirect on failure, got %q", got)
	}
	active := toasts.Active(sess.SID)
	if len(active) != 1 || active[0].Kind != toast.KindError {
		t.Fatalf("expected error toast, got %+v", active)
	}
	if active[0].Message != "Slot is full" {
		t.Errorf("expected backend detail to surface, got %q", active[0].Message)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Slot is full") {
		t.Error("expected failure message in the re-rendered dialog")
	}
	if !strings.Contains(body, "この内容で予約する") {
		t.Error("expected confirmation dialog to stay open for retry")
	}
}

func TestHandleConfirmFormShowsBookingDetails(t *testing.T) {
	sess := setupHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/services/1/slots/101/confirm?date=2025-12-01&time=10:00", nil)
	req.SetPathValue("id", "1")
	req.SetPathValue("slotID", "101")
	req = req.WithContext(session.ContextWith(req.Context(), sess))

	rec := httptest.NewRecorder()
	HandleConfirmForm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"ベーシックヨガ", "2025年12月1日", "10:00", "所要時間", "60分", "山田太郎"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in the confirmation dialog", want)
		}
	}
	if !strings.Contains(body, `value="2025-12-01"`) {
		t.Error("expected the hidden date field to keep the wire format")
	}
}

func TestHandleCreateBookingRequiresSession(t *testing.T) {
	setupHandlers(t)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postBooking(nil, url.Values{
		"service_id": {"1"},
		"slot_id":    {"100"},
		"date":       {"2025-12-01"},
		"start_time": {"09:00"},
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleCreateBookingRejectsBadDate(t *testing.T) {
	sess := setupHandlers(t)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postBooking(sess, url.Values{
		"service_id": {"1"},
		"slot_id":    {"100"},
		"date":       {"01-12-2025"},
		"start_time": {"09:00"},
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
