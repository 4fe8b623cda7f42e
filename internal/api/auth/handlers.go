// internal/api/auth/handlers.go
package auth

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/iwaseano/yoga-reserve/internal/api/apiutil"
	"github.com/iwaseano/yoga-reserve/internal/api/htmx"
	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/client"
	"github.com/iwaseano/yoga-reserve/internal/ratelimit"
	"github.com/iwaseano/yoga-reserve/internal/session"
	authview "github.com/iwaseano/yoga-reserve/internal/templates/components/authview"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

const authTimeout = 10 * time.Second

var (
	backend      client.API
	sessions     *session.Store
	toasts       *toast.Store
	loginLimiter *ratelimit.Limiter
	throttle     *rate.Limiter
	trustProxy   bool
	initOnce     sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(api client.API, sessionStore *session.Store, toastStore *toast.Store, limiter *ratelimit.Limiter, proxied bool) {
	initOnce.Do(func() {
		backend = api
		sessions = sessionStore
		toasts = toastStore
		loginLimiter = limiter
		throttle = rate.NewLimiter(rate.Limit(10), 20)
		trustProxy = proxied
	})
}

// GET /auth/login
func HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	component := authview.LoginModal(authview.LoginForm{})
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render login form", "Failed to render login form")
}

// GET /auth/register
func HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	component := authview.RegisterModal(authview.RegisterForm{})
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render registration form", "Failed to render registration form")
}

// GET /auth/close
func HandleClose(w http.ResponseWriter, r *http.Request) {
	apiutil.RenderHTMLComponent(r.Context(), w, authview.CloseModal(), nil,
		"Failed to clear modal", "Failed to close dialog")
}

// POST /auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if backend == nil || sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !throttle.Allow() {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	form := authview.LoginForm{Email: email}

	if email == "" || password == "" {
		form.Error = "メールアドレスとパスワードを入力してください"
		renderLoginForm(w, r, form)
		return
	}

	ip := ratelimit.GetClientIP(r, trustProxy)
	if loginLimiter != nil {
		if result := loginLimiter.CheckLogin(email, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(email, ip, result.Reason)
			form.Error = "ログイン試行が多すぎます。しばらく時間をおいてから再度お試しください"
			renderLoginForm(w, r, form)
			return
		}
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	resp, err := backend.Login(ctx, booking.LoginRequest{Email: email, Password: password})
	if err != nil {
		if loginLimiter != nil {
			loginLimiter.RecordFailure(email, ip)
		}
		logger.Warn().Err(err).Str("email", ratelimit.SanitizeIdentifier(email)).Msg("Login failed")
		form.Error = client.Message(err, "ログインに失敗しました")
		renderLoginForm(w, r, form)
		return
	}

	if loginLimiter != nil {
		loginLimiter.Reset(email)
	}
	establishSession(w, r, resp, "ログインしました")
}

// POST /auth/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if backend == nil || sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !throttle.Allow() {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	form := authview.RegisterForm{Name: name, Email: email}

	if errs := validateRegistration(name, email, password); errs != nil {
		form.FieldErrors = errs
		renderRegisterForm(w, r, form)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	resp, err := backend.Register(ctx, booking.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		logger.Warn().Err(err).Str("email", ratelimit.SanitizeIdentifier(email)).Msg("Registration failed")
		form.Error = client.Message(err, "登録に失敗しました")
		renderRegisterForm(w, r, form)
		return
	}

	establishSession(w, r, resp, "登録が完了しました")
}

// POST /auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessions == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sessions.Clear(w)
	htmx.Redirect(w, r, "/")
}

func establishSession(w http.ResponseWriter, r *http.Request, resp booking.LoginResponse, message string) {
	logger := log.Ctx(r.Context())

	sess := session.Session{
		SID:          uuid.New().String(),
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		User:         resp.User,
	}
	if err := sessions.Save(w, sess); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if toasts != nil {
		toasts.Push(sess.SID, toast.KindSuccess, message)
	}
	logger.Info().Int64("user_id", resp.User.ID).Msg("Session established")
	htmx.Redirect(w, r, "/services")
}

func renderLoginForm(w http.ResponseWriter, r *http.Request, form authview.LoginForm) {
	component := authview.LoginModal(form)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render login form", "Failed to render login form")
}

func renderRegisterForm(w http.ResponseWriter, r *http.Request, form authview.RegisterForm) {
	component := authview.RegisterModal(form)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render registration form", "Failed to render registration form")
}
