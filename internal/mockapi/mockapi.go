// Package mockapi is an in-process stand-in for the reservation backend,
// used when no real backend is configured. It implements client.API against
// an in-memory SQLite record set, with simulated latency on every call.
package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/client"
)

const (
	readLatency  = 300 * time.Millisecond
	writeLatency = 500 * time.Millisecond

	slotCapacity = 5
)

// slotTimes is the fixed daily schedule shared by every service.
var slotTimes = []string{
	"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00",
}

// Demo account seeded into every fresh mock database.
const (
	demoUserName     = "山田太郎"
	demoUserEmail    = "demo@example.com"
	demoUserPassword = "password123"
)

// Backend implements client.API in-process.
type Backend struct {
	db         *sql.DB
	tokens     *tokenSource
	readDelay  time.Duration
	writeDelay time.Duration
}

var _ client.API = (*Backend)(nil)

// Option adjusts backend construction.
type Option func(*Backend)

// WithLatency overrides the simulated read/write latency. Tests pass zero.
func WithLatency(read, write time.Duration) Option {
	return func(b *Backend) {
		b.readDelay = read
		b.writeDelay = write
	}
}

// New opens the mock record set at dataSourceName (MemoryDSN for the
// standard in-memory run), applies migrations, and seeds the demo user plus
// one pre-existing confirmed booking.
func New(dataSourceName, secret string, opts ...Option) (*Backend, error) {
	db, err := openDB(dataSourceName)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		db:         db,
		tokens:     newTokenSource(secret),
		readDelay:  readLatency,
		writeDelay: writeLatency,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed mock data: %w", err)
	}
	return b, nil
}

// Close releases the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// seed inserts the demo user and the preloaded booking when missing. The
// password hash is generated at startup so no hash material lives in the
// migrations.
func (b *Backend) seed() error {
	ctx := context.Background()

	var userCount int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		return err
	}
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoUserPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := b.db.ExecContext(ctx,
			"INSERT INTO users (id, name, email, hashed_password) VALUES (1, ?, ?, ?)",
			demoUserName, demoUserEmail, string(hash),
		); err != nil {
			return err
		}
	}

	var bookingCount int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&bookingCount); err != nil {
		return err
	}
	if bookingCount == 0 {
		// Booking ids keep counting up from here.
		if _, err := b.db.ExecContext(ctx,
			"INSERT INTO bookings (id, user_id, service_id, date, start_time, status) VALUES (1, 1, 1, ?, ?, ?)",
			"2025-11-20", "10:00", booking.StatusConfirmed,
		); err != nil {
			return err
		}
	}
	return nil
}

// delay emulates backend latency while honoring context cancellation.
func delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func backendError(status int, detail string) error {
	return &client.BackendError{Status: status, Detail: detail}
}

func (b *Backend) Login(ctx context.Context, req booking.LoginRequest) (booking.LoginResponse, error) {
	if err := delay(ctx, b.writeDelay); err != nil {
		return booking.LoginResponse{}, err
	}

	var (
		user booking.User
		hash string
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT id, name, email, hashed_password FROM users WHERE email = ?", req.Email,
	).Scan(&user.ID, &user.Name, &user.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.LoginResponse{}, backendError(http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません")
	}
	if err != nil {
		return booking.LoginResponse{}, fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return booking.LoginResponse{}, backendError(http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません")
	}

	return b.loginResponse(user)
}

func (b *Backend) Register(ctx context.Context, req booking.RegisterRequest) (booking.LoginResponse, error) {
	if err := delay(ctx, b.writeDelay); err != nil {
		return booking.LoginResponse{}, err
	}

	if strings.TrimSpace(req.Name) == "" {
		return booking.LoginResponse{}, backendError(http.StatusBadRequest, "名前を入力してください")
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return booking.LoginResponse{}, backendError(http.StatusBadRequest, "有効なメールアドレスを入力してください")
	}
	if len(req.Password) < 6 {
		return booking.LoginResponse{}, backendError(http.StatusBadRequest, "パスワードは6文字以上で入力してください")
	}
	if len(req.Password) > 72 {
		return booking.LoginResponse{}, backendError(http.StatusBadRequest, "パスワードは72文字以内で入力してください")
	}

	var exists int
	if err := b.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ?", req.Email,
	).Scan(&exists); err != nil {
		return booking.LoginResponse{}, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return booking.LoginResponse{}, backendError(http.StatusBadRequest, "このメールアドレスは既に登録されています")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return booking.LoginResponse{}, fmt.Errorf("hash password: %w", err)
	}

	result, err := b.db.ExecContext(ctx,
		"INSERT INTO users (name, email, hashed_password) VALUES (?, ?, ?)",
		req.Name, req.Email, string(hash),
	)
	if err != nil {
		return booking.LoginResponse{}, fmt.Errorf("insert user: %w", err)
	}
	userID, err := result.LastInsertId()
	if err != nil {
		return booking.LoginResponse{}, fmt.Errorf("user id: %w", err)
	}

	return b.loginResponse(booking.User{ID: userID, Name: req.Name, Email: req.Email})
}

func (b *Backend) loginResponse(user booking.User) (booking.LoginResponse, error) {
	access, refresh, err := b.tokens.issuePair(user.ID)
	if err != nil {
		return booking.LoginResponse{}, err
	}
	return booking.LoginResponse{Access: access, Refresh: refresh, User: user}, nil
}

func (b *Backend) Refresh(ctx context.Context, refreshToken string) (booking.RefreshResponse, error) {
	if err := delay(ctx, b.writeDelay); err != nil {
		return booking.RefreshResponse{}, err
	}

	userID, err := b.tokens.verify(refreshToken, "refresh")
	if err != nil {
		return booking.RefreshResponse{}, backendError(http.StatusUnauthorized, "Invalid refresh token")
	}
	var exists int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&exists); err != nil {
		return booking.RefreshResponse{}, fmt.Errorf("check user: %w", err)
	}
	if exists == 0 {
		return booking.RefreshResponse{}, backendError(http.StatusUnauthorized, "User not found")
	}

	access, err := b.tokens.issue(userID, "access", accessTokenTTL)
	if err != nil {
		return booking.RefreshResponse{}, err
	}
	return booking.RefreshResponse{Access: access}, nil
}

// authenticate maps the bearer credential to a user id, mirroring the
// client-side contract: an empty token fails before touching the record set.
func (b *Backend) authenticate(token string) (int64, error) {
	if token == "" {
		return 0, client.ErrNotAuthenticated
	}
	userID, err := b.tokens.verify(token, "access")
	if err != nil {
		return 0, backendError(http.StatusUnauthorized, "Could not validate credentials")
	}
	return userID, nil
}

func (b *Backend) Services(ctx context.Context, token string) ([]booking.Service, error) {
	if _, err := b.authenticate(token); err != nil {
		return nil, err
	}
	if err := delay(ctx, b.readDelay); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, "SELECT id, name, description, duration FROM services ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []booking.Service
	for rows.Next() {
		var s booking.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Duration); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (b *Backend) Service(ctx context.Context, token string, serviceID int64) (booking.Service, error) {
	if _, err := b.authenticate(token); err != nil {
		return booking.Service{}, err
	}
	if err := delay(ctx, b.readDelay); err != nil {
		return booking.Service{}, err
	}
	return b.serviceByID(ctx, serviceID)
}

func (b *Backend) serviceByID(ctx context.Context, serviceID int64) (booking.Service, error) {
	var s booking.Service
	err := b.db.QueryRowContext(ctx,
		"SELECT id, name, description, duration FROM services WHERE id = ?", serviceID,
	).Scan(&s.ID, &s.Name, &s.Description, &s.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Service{}, backendError(http.StatusNotFound, "Service not found")
	}
	if err != nil {
		return booking.Service{}, fmt.Errorf("get service: %w", err)
	}
	return s, nil
}

func (b *Backend) Slots(ctx context.Context, token string, serviceID int64, date string) (booking.ServiceSlots, error) {
	if _, err := b.authenticate(token); err != nil {
		return booking.ServiceSlots{}, err
	}
	if err := delay(ctx, b.readDelay); err != nil {
		return booking.ServiceSlots{}, err
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return booking.ServiceSlots{}, backendError(http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
	}
	if _, err := b.serviceByID(ctx, serviceID); err != nil {
		return booking.ServiceSlots{}, err
	}

	slots := make([]booking.Slot, 0, len(slotTimes))
	for i, startTime := range slotTimes {
		reserved, err := b.reservedCount(ctx, serviceID, date, startTime)
		if err != nil {
			return booking.ServiceSlots{}, err
		}
		slots = append(slots, booking.Slot{
			ID:        serviceID*100 + int64(i),
			StartTime: startTime,
			Capacity:  slotCapacity,
			Reserved:  reserved,
			Available: slotCapacity - reserved,
		})
	}
	return booking.ServiceSlots{ServiceID: serviceID, Date: date, Slots: slots}, nil
}

func (b *Backend) reservedCount(ctx context.Context, serviceID int64, date, startTime string) (int, error) {
	var reserved int
	err := b.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE service_id = ? AND date = ? AND start_time = ? AND status = ?",
		serviceID, date, startTime, booking.StatusConfirmed,
	).Scan(&reserved)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return reserved, nil
}

func (b *Backend) CreateBooking(ctx context.Context, token string, req booking.CreateBookingRequest) (booking.CreateBookingResponse, error) {
	userID, err := b.authenticate(token)
	if err != nil {
		return booking.CreateBookingResponse{}, err
	}
	if err := delay(ctx, b.writeDelay); err != nil {
		return booking.CreateBookingResponse{}, err
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return booking.CreateBookingResponse{}, backendError(http.StatusBadRequest, "Invalid date or time format")
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return booking.CreateBookingResponse{}, backendError(http.StatusBadRequest, "Invalid date or time format")
	}
	if _, err := b.serviceByID(ctx, req.ServiceID); err != nil {
		return booking.CreateBookingResponse{}, err
	}
	if !scheduledTime(req.StartTime) {
		return booking.CreateBookingResponse{}, backendError(http.StatusNotFound, "Slot not found")
	}

	reserved, err := b.reservedCount(ctx, req.ServiceID, req.Date, req.StartTime)
	if err != nil {
		return booking.CreateBookingResponse{}, err
	}
	if reserved >= slotCapacity {
		return booking.CreateBookingResponse{}, backendError(http.StatusBadRequest, "Slot is full")
	}

	result, err := b.db.ExecContext(ctx,
		"INSERT INTO bookings (user_id, service_id, date, start_time, status) VALUES (?, ?, ?, ?, ?)",
		userID, req.ServiceID, req.Date, req.StartTime, booking.StatusConfirmed,
	)
	if err != nil {
		return booking.CreateBookingResponse{}, fmt.Errorf("insert booking: %w", err)
	}
	bookingID, err := result.LastInsertId()
	if err != nil {
		return booking.CreateBookingResponse{}, fmt.Errorf("booking id: %w", err)
	}

	return booking.CreateBookingResponse{
		BookingID: bookingID,
		Status:    string(booking.StatusConfirmed),
		ServiceID: req.ServiceID,
		Date:      req.Date,
		StartTime: req.StartTime,
	}, nil
}

func scheduledTime(startTime string) bool {
	for _, t := range slotTimes {
		if t == startTime {
			return true
		}
	}
	return false
}

func (b *Backend) MyBookings(ctx context.Context, token string) ([]booking.BookingDetail, error) {
	userID, err := b.authenticate(token)
	if err != nil {
		return nil, err
	}
	if err := delay(ctx, b.readDelay); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT b.id, b.service_id, s.name, b.date, b.start_time, b.status
		FROM bookings b
		JOIN services s ON s.id = b.service_id
		WHERE b.user_id = ?
		ORDER BY b.date DESC, b.start_time DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []booking.BookingDetail
	for rows.Next() {
		var d booking.BookingDetail
		if err := rows.Scan(&d.ID, &d.ServiceID, &d.ServiceName, &d.Date, &d.StartTime, &d.Status); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, d)
	}
	return bookings, rows.Err()
}

func (b *Backend) CancelBooking(ctx context.Context, token string, bookingID int64) (booking.CancelBookingResponse, error) {
	if _, err := b.authenticate(token); err != nil {
		return booking.CancelBookingResponse{}, err
	}
	if err := delay(ctx, b.writeDelay); err != nil {
		return booking.CancelBookingResponse{}, err
	}

	// Unknown ids fall through: the caller still gets a cancelled result.
	// This matches the backend substitute's historical contract.
	result, err := b.db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ?", booking.StatusCancelled, bookingID,
	)
	if err != nil {
		return booking.CancelBookingResponse{}, fmt.Errorf("cancel booking: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		log.Ctx(ctx).Warn().Int64("booking_id", bookingID).Msg("Cancel requested for unknown booking")
	}

	return booking.CancelBookingResponse{ID: bookingID, Status: string(booking.StatusCancelled)}, nil
}

func (b *Backend) AllBookings(ctx context.Context, token string) ([]booking.AdminBookingDetail, error) {
	if _, err := b.authenticate(token); err != nil {
		return nil, err
	}
	if err := delay(ctx, b.readDelay); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT b.id, b.service_id, s.name, u.name, b.date, b.start_time, b.status
		FROM bookings b
		JOIN services s ON s.id = b.service_id
		JOIN users u ON u.id = b.user_id
		ORDER BY b.date DESC, b.start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all bookings: %w", err)
	}
	defer rows.Close()

	var bookings []booking.AdminBookingDetail
	for rows.Next() {
		var d booking.AdminBookingDetail
		if err := rows.Scan(&d.ID, &d.ServiceID, &d.ServiceName, &d.UserName, &d.Date, &d.StartTime, &d.Status); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, d)
	}
	return bookings, rows.Err()
}
