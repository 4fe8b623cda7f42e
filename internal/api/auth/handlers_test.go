package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/client"
	"github.com/iwaseano/yoga-reserve/internal/ratelimit"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

// fakeAPI satisfies client.API for handler tests.
type fakeAPI struct {
	loginErr    error
	registerErr error
	user        booking.User
}

func (f *fakeAPI) Login(ctx context.Context, req booking.LoginRequest) (booking.LoginResponse, error) {
	if f.loginErr != nil {
		return booking.LoginResponse{}, f.loginErr
	}
	return booking.LoginResponse{Access: "access", Refresh: "refresh", User: f.user}, nil
}

func (f *fakeAPI) Register(ctx context.Context, req booking.RegisterRequest) (booking.LoginResponse, error) {
	if f.registerErr != nil {
		return booking.LoginResponse{}, f.registerErr
	}
	return booking.LoginResponse{Access: "access", Refresh: "refresh", User: f.user}, nil
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (booking.RefreshResponse, error) {
	return booking.RefreshResponse{Access: "access"}, nil
}

func (f *fakeAPI) Services(ctx context.Context, token string) ([]booking.Service, error) {
	return nil, nil
}

func (f *fakeAPI) Service(ctx context.Context, token string, serviceID int64) (booking.Service, error) {
	return booking.Service{}, nil
}

func (f *fakeAPI) Slots(ctx context.Context, token string, serviceID int64, date string) (booking.ServiceSlots, error) {
	return booking.ServiceSlots{}, nil
}

func (f *fakeAPI) CreateBooking(ctx context.Context, token string, req booking.CreateBookingRequest) (booking.CreateBookingResponse, error) {
	return booking.CreateBookingResponse{}, nil
}

func (f *fakeAPI) MyBookings(ctx context.Context, token string) ([]booking.BookingDetail, error) {
	return nil, nil
}

func (f *fakeAPI) CancelBooking(ctx context.Context, token string, bookingID int64) (booking.CancelBookingResponse, error) {
	return booking.CancelBookingResponse{}, nil
}

func (f *fakeAPI) AllBookings(ctx context.Context, token string) ([]booking.AdminBookingDetail, error) {
	return nil, nil
}

// setupHandlers swaps the package globals for the duration of a test.
func setupHandlers(t *testing.T, api client.API) {
	t.Helper()

	prevBackend, prevSessions, prevToasts := backend, sessions, toasts
	prevLimiter, prevThrottle := loginLimiter, throttle

	backend = api
	sessions = session.New("test-secret-key", false)
	toasts = toast.NewStore()
	loginLimiter = ratelimit.New(ratelimit.DefaultConfig())
	throttle = rate.NewLimiter(rate.Inf, 0)

	t.Cleanup(func() {
		loginLimiter.Close()
		backend, sessions, toasts = prevBackend, prevSessions, prevToasts
		loginLimiter, throttle = prevLimiter, prevThrottle
	})
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

func TestHandleLoginSuccess(t *testing.T) {
	setupHandlers(t, &fakeAPI{user: booking.User{ID: 1, Name: "山田太郎", Email: "demo@example.com"}})

	rec := httptest.NewRecorder()
	HandleLogin(rec, postForm("/auth/login", url.Values{
		"email":    {"demo@example.com"},
		"password": {"password123"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/services" {
		t.Errorf("expected redirect to /services, got %q", got)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}
	restore := httptest.NewRequest(http.MethodGet, "/", nil)
	restore.AddCookie(cookies[0])
	sess, err := sessions.Load(restore)
	if err != nil || sess == nil {
		t.Fatalf("expected a loadable session, got %v / %v", sess, err)
	}
	if sess.User.Name != "山田太郎" || sess.AccessToken != "access" {
		t.Errorf("unexpected session: %+v", sess)
	}

	if got := toasts.Active(sess.SID); len(got) != 1 || got[0].Message != "ログインしました" {
		t.Errorf("expected login toast, got %+v", got)
	}
}

func TestHandleLoginBackendRejection(t *testing.T) {
	setupHandlers(t, &fakeAPI{loginErr: &client.BackendError{
		Status: http.StatusUnauthorized,
		Detail: "メールアドレスまたはパスワードが正しくありません",
	}})

	rec := httptest.NewRecorder()
	HandleLogin(rec, postForm("/auth/login", url.Values{
		"email":    {"demo@example.com"},
		"password": {"wrong"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no session cookie on failure")
	}
	if !strings.Contains(rec.Body.String(), "メールアドレスまたはパスワードが正しくありません") {
		t.Error("expected backend detail in re-rendered form")
	}
}

func TestHandleLoginMissingFields(t *testing.T) {
	setupHandlers(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	HandleLogin(rec, postForm("/auth/login", url.Values{"email": {"demo@example.com"}}))

	if !strings.Contains(rec.Body.String(), "メールアドレスとパスワードを入力してください") {
		t.Error("expected validation message in response")
	}
}

func TestHandleLoginLockout(t *testing.T) {
	api := &fakeAPI{loginErr: &client.BackendError{Status: http.StatusUnauthorized, Detail: "bad"}}
	setupHandlers(t, api)

	form := url.Values{"email": {"demo@example.com"}, "password": {"wrong"}}
	for i := 0; i < 5; i++ {
		HandleLogin(httptest.NewRecorder(), postForm("/auth/login", form))
	}

	rec := httptest.NewRecorder()
	HandleLogin(rec, postForm("/auth/login", form))
	if !strings.Contains(rec.Body.String(), "ログイン試行が多すぎます") {
		t.Error("expected lockout message after repeated failures")
	}
}

func TestHandleRegisterValidation(t *testing.T) {
	setupHandlers(t, &fakeAPI{})

	cases := []struct {
		name    string
		form    url.Values
		message string
	}{
		{
			name:    "missing name",
			form:    url.Values{"email": {"a@example.com"}, "password": {"secret1"}},
			message: "名前を入力してください",
		},
		{
			name:    "bad email",
			form:    url.Values{"name": {"山田太郎"}, "email": {"not-an-email"}, "password": {"secret1"}},
			message: "有効なメールアドレスを入力してください",
		},
		{
			name:    "short password",
			form:    url.Values{"name": {"山田太郎"}, "email": {"a@example.com"}, "password": {"abc"}},
			message: "パスワードは6文字以上で入力してください",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleRegister(rec, postForm("/auth/register", tc.form))
			if !strings.Contains(rec.Body.String(), tc.message) {
				t.Errorf("expected %q in response", tc.message)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("expected no session cookie on validation failure")
			}
		})
	}
}

func TestHandleRegisterSuccess(t *testing.T) {
	setupHandlers(t, &fakeAPI{user: booking.User{ID: 2, Name: "山田太郎", Email: "a@example.com"}})

	rec := httptest.NewRecorder()
	HandleRegister(rec, postForm("/auth/register", url.Values{
		"name":     {"山田太郎"},
		"email":    {"a@example.com"},
		"password": {"secret1"},
	}))

	if got := rec.Header().Get("HX-Redirect"); got != "/services" {
		t.Errorf("expected redirect to /services, got %q", got)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("expected a session cookie")
	}
}

func TestHandleLogoutClearsSession(t *testing.T) {
	setupHandlers(t, &fakeAPI{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	HandleLogout(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/" {
		t.Errorf("expected redirect to landing, got %q", got)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Errorf("expected expired session cookie, got %+v", cookies)
	}
}

func TestValidateRegistrationCountsRunes(t *testing.T) {
	// Six multibyte characters still satisfy the length requirement.
	if errs := validateRegistration("山田太郎", "a@example.com", "あいうえおか"); errs != nil {
		t.Errorf("expected multibyte password to pass, got %v", errs)
	}
}

func TestValidateRegistrationReportsEveryField(t *testing.T) {
	errs := validateRegistration("", "not-an-email", "abc")
	if len(errs) != 3 {
		t.Fatalf("expected three field errors, got %v", errs)
	}
	if errs["name"] != "名前を入力してください" {
		t.Errorf("unexpected name message: %q", errs["name"])
	}
	if errs["email"] != "有効なメールアドレスを入力してください" {
		t.Errorf("unexpected email message: %q", errs["email"])
	}
	if errs["password"] != "パスワードは6文字以上で入力してください" {
		t.Errorf("unexpected password message: %q", errs["password"])
	}
}
