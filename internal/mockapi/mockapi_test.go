package mockapi

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/client"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "mock.db")
	b, err := New(dsn, "test-secret-key", WithLatency(0, 0))
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	t.Cleanup(func() {
		_ = b.Close()
	})
	return b
}

func login(t *testing.T, b *Backend) booking.LoginResponse {
	t.Helper()

	resp, err := b.Login(context.Background(), booking.LoginRequest{
		Email:    demoUserEmail,
		Password: demoUserPassword,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return resp
}

func backendDetail(t *testing.T, err error) *client.BackendError {
	t.Helper()

	var backendErr *client.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	return backendErr
}

func TestLoginDemoUser(t *testing.T) {
	b := newTestBackend(t)

	resp := login(t, b)
	if resp.User.Name != demoUserName {
		t.Errorf("expected demo user name %q, got %q", demoUserName, resp.User.Name)
	}
	if resp.Access == "" || resp.Refresh == "" {
		t.Error("expected both tokens to be issued")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Login(context.Background(), booking.LoginRequest{
		Email:    demoUserEmail,
		Password: "wrong-password",
	})
	backendErr := backendDetail(t, err)
	if backendErr.Detail != "メールアドレスまたはパスワードが正しくありません" {
		t.Errorf("unexpected detail: %q", backendErr.Detail)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	resp, err := b.Register(ctx, booking.RegisterRequest{
		Name:     "山田太郎",
		Email:    "a@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.ID == 0 {
		t.Error("expected a user id")
	}

	if _, err := b.Login(ctx, booking.LoginRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Register(context.Background(), booking.RegisterRequest{
		Name:     "別のユーザー",
		Email:    demoUserEmail,
		Password: "secret1",
	})
	backendErr := backendDetail(t, err)
	if backendErr.Detail != "このメールアドレスは既に登録されています" {
		t.Errorf("unexpected detail: %q", backendErr.Detail)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	refreshed, err := b.Refresh(context.Background(), resp.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Access == "" {
		t.Error("expected a new access token")
	}

	// Access tokens are not accepted in place of refresh tokens.
	if _, err := b.Refresh(context.Background(), resp.Access); err == nil {
		t.Error("expected refresh with access token to fail")
	}
}

func TestAuthedCallWithoutToken(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Services(context.Background(), "")
	if !errors.Is(err, client.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestServicesSeeded(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	services, err := b.Services(context.Background(), resp.Access)
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	if len(services) != 3 {
		t.Fatalf("expected 3 seeded services, got %d", len(services))
	}
	if services[0].Name != "ベーシックヨガ" {
		t.Errorf("unexpected first service: %q", services[0].Name)
	}
}

func TestSlotsScheduleAndIDs(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	slots, err := b.Slots(context.Background(), resp.Access, 2, "2025-12-01")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots.Slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots.Slots))
	}
	if slots.Slots[0].StartTime != "09:00" || slots.Slots[3].StartTime != "13:00" {
		t.Errorf("expected noon to be skipped, got %q at index 3", slots.Slots[3].StartTime)
	}
	if slots.Slots[0].ID != 200 {
		t.Errorf("expected slot id 200, got %d", slots.Slots[0].ID)
	}
	for _, slot := range slots.Slots {
		if slot.Capacity != slotCapacity || slot.Available != slotCapacity {
			t.Errorf("expected empty slot %s to show %d available", slot.StartTime, slotCapacity)
		}
	}
}

func TestSlotsCountPreloadedBooking(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	slots, err := b.Slots(context.Background(), resp.Access, 1, "2025-11-20")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	var at10 booking.Slot
	for _, slot := range slots.Slots {
		if slot.StartTime == "10:00" {
			at10 = slot
		}
	}
	if at10.Reserved != 1 || at10.Available != 4 {
		t.Errorf("expected 1 reserved / 4 available at 10:00, got %d/%d", at10.Reserved, at10.Available)
	}
}

func TestSlotsInvalidDate(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	_, err := b.Slots(context.Background(), resp.Access, 1, "20251120")
	backendErr := backendDetail(t, err)
	if backendErr.Detail != "Invalid date format. Use YYYY-MM-DD" {
		t.Errorf("unexpected detail: %q", backendErr.Detail)
	}
}

func TestSlotsUnknownService(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	_, err := b.Slots(context.Background(), resp.Access, 99, "2025-12-01")
	backendErr := backendDetail(t, err)
	if backendErr.Detail != "Service not found" {
		t.Errorf("unexpected detail: %q", backendErr.Detail)
	}
}

func TestCreateBookingFillsSlot(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)
	ctx := context.Background()

	req := booking.CreateBookingRequest{
		ServiceID: 3,
		SlotID:    301,
		Date:      "2025-12-05",
		StartTime: "10:00",
	}
	for i := 0; i < slotCapacity; i++ {
		if _, err := b.CreateBooking(ctx, resp.Access, req); err != nil {
			t.Fatalf("booking %d: %v", i+1, err)
		}
	}

	_, err := b.CreateBooking(ctx, resp.Access, req)
	backendErr := backendDetail(t, err)
	if backendErr.Detail != "Slot is full" {
		t.Errorf("unexpected detail: %q", backendErr.Detail)
	}

	slots, err := b.Slots(ctx, resp.Access, 3, "2025-12-05")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for _, slot := range slots.Slots {
		if slot.StartTime == "10:00" && !slot.Full() {
			t.Errorf("expected 10:00 to be full, got %d available", slot.Available)
		}
	}
}

func TestCreateBookingUnscheduledTime(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	_, err := b.CreateBooking(context.Background(), resp.Access, booking.CreateBookingRequest{
		ServiceID: 1,
		SlotID:    103,
		Date:      "2025-12-05",
		StartTime: "12:00",
	})
	backendErr := backendDetail(t, err)
	if backendErr.Detail != "Slot not found" {
		t.Errorf("unexpected detail: %q", backendErr.Detail)
	}
}

func TestMyBookingsOrderedNewestFirst(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)
	ctx := context.Background()

	if _, err := b.CreateBooking(ctx, resp.Access, booking.CreateBookingRequest{
		ServiceID: 2, SlotID: 201, Date: "2025-12-10", StartTime: "09:00",
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	list, err := b.MyBookings(ctx, resp.Access)
	if err != nil {
		t.Fatalf("my bookings: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(list))
	}
	if list[0].Date != "2025-12-10" || list[1].Date != "2025-11-20" {
		t.Errorf("expected newest first, got %s then %s", list[0].Date, list[1].Date)
	}
	if list[1].ServiceName != "ベーシックヨガ" {
		t.Errorf("unexpected service name: %q", list[1].ServiceName)
	}
}

func TestCancelBookingKeepsRow(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)
	ctx := context.Background()

	result, err := b.CancelBooking(ctx, resp.Access, 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Status != string(booking.StatusCancelled) {
		t.Errorf("unexpected status: %q", result.Status)
	}

	list, err := b.MyBookings(ctx, resp.Access)
	if err != nil {
		t.Fatalf("my bookings: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected cancelled booking to stay listed, got %d rows", len(list))
	}
	if list[0].Status != booking.StatusCancelled {
		t.Errorf("expected cancelled status, got %q", list[0].Status)
	}

	// The freed seat shows up in availability again.
	slots, err := b.Slots(ctx, resp.Access, 1, "2025-11-20")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for _, slot := range slots.Slots {
		if slot.StartTime == "10:00" && slot.Reserved != 0 {
			t.Errorf("expected no reservations at 10:00 after cancel, got %d", slot.Reserved)
		}
	}
}

func TestCancelUnknownBookingSilentlyIgnored(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	result, err := b.CancelBooking(context.Background(), resp.Access, 9999)
	if err != nil {
		t.Fatalf("expected unknown id to be ignored, got %v", err)
	}
	if result.ID != 9999 || result.Status != string(booking.StatusCancelled) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestAllBookingsIncludesUserName(t *testing.T) {
	b := newTestBackend(t)
	resp := login(t, b)

	list, err := b.AllBookings(context.Background(), resp.Access)
	if err != nil {
		t.Fatalf("all bookings: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(list))
	}
	if list[0].UserName != demoUserName {
		t.Errorf("expected owner name %q, got %q", demoUserName, list[0].UserName)
	}
}

func TestLatencyHonorsContextCancellation(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "mock.db")
	b, err := New(dsn, "test-secret-key")
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	defer b.Close()

	resp, err := b.Login(context.Background(), booking.LoginRequest{
		Email:    demoUserEmail,
		Password: demoUserPassword,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Services(ctx, resp.Access); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
