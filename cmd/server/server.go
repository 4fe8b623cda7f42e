// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iwaseano/yoga-reserve/internal/api"
	"github.com/iwaseano/yoga-reserve/internal/api/auth"
	"github.com/iwaseano/yoga-reserve/internal/api/bookings"
	"github.com/iwaseano/yoga-reserve/internal/api/services"
	"github.com/iwaseano/yoga-reserve/internal/api/shell"
	"github.com/iwaseano/yoga-reserve/internal/api/slots"
	"github.com/iwaseano/yoga-reserve/internal/api/toasts"
	"github.com/iwaseano/yoga-reserve/internal/client"
	"github.com/iwaseano/yoga-reserve/internal/config"
	"github.com/iwaseano/yoga-reserve/internal/email"
	"github.com/iwaseano/yoga-reserve/internal/mockapi"
	"github.com/iwaseano/yoga-reserve/internal/ratelimit"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

// app bundles the long-lived dependencies the handlers share.
type app struct {
	backend  client.API
	sessions *session.Store
	toasts   *toast.Store
	limiter  *ratelimit.Limiter
	mailer   email.Sender
	mock     *mockapi.Backend
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		sessions: session.New(cfg.App.SecretKey, cfg.App.Environment != "development"),
		toasts:   toast.NewStore(),
		limiter:  ratelimit.New(ratelimit.DefaultConfig()),
	}

	if cfg.Backend.Mock() {
		mock, err := mockapi.New(mockapi.MemoryDSN, cfg.App.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("start mock backend: %w", err)
		}
		a.mock = mock
		a.backend = mock
	} else {
		a.backend = client.NewHTTPClient(cfg.Backend.BaseURL, nil)
	}

	if cfg.Email.Enabled {
		mailer, err := email.NewSESClient(
			cfg.Email.AccessKeyID,
			cfg.Email.SecretAccessKey,
			cfg.Email.Region,
			cfg.Email.Sender,
		)
		if err != nil {
			return nil, fmt.Errorf("init email client: %w", err)
		}
		a.mailer = mailer
	}

	return a, nil
}

func (a *app) Close() {
	a.limiter.Close()
	if a.mock != nil {
		if err := a.mock.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close mock backend")
		}
	}
}

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithSession(a.sessions),
		api.WithRequestID,
		api.WithContentType,
	)

	trustProxy := cfg.Backend.Environment == config.BackendRemote
	auth.InitHandlers(a.backend, a.sessions, a.toasts, a.limiter, trustProxy)
	services.InitHandlers(a.backend)
	slots.InitHandlers(a.backend, a.toasts, a.mailer)
	bookings.InitHandlers(a.backend, a.toasts, a.mailer)
	toasts.InitHandlers(a.toasts)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Pages
	mux.HandleFunc("GET /", shell.HandleLanding)
	mux.HandleFunc("GET /services", services.HandleCatalogPage)
	mux.HandleFunc("GET /services/{id}/booking", slots.HandleBookingPage)
	mux.HandleFunc("GET /bookings", bookings.HandlePage)
	mux.HandleFunc("GET /admin/bookings", bookings.HandleAdminPage)

	// Auth
	mux.HandleFunc("GET /auth/login", auth.HandleLoginForm)
	mux.HandleFunc("GET /auth/register", auth.HandleRegisterForm)
	mux.HandleFunc("GET /auth/close", auth.HandleClose)
	mux.HandleFunc("POST /auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /auth/register", auth.HandleRegister)
	mux.HandleFunc("POST /auth/logout", auth.HandleLogout)

	// Fragments
	mux.HandleFunc("GET /services/{id}/slots", slots.HandleSlotTable)
	mux.HandleFunc("GET /services/{id}/slots/{slotID}/confirm", slots.HandleConfirmForm)
	mux.HandleFunc("POST /bookings", slots.HandleCreateBooking)
	mux.HandleFunc("GET /bookings/list", bookings.HandleList)
	mux.HandleFunc("GET /bookings/{id}/cancel", bookings.HandleCancelConfirm)
	mux.HandleFunc("DELETE /bookings/{id}", bookings.HandleCancel)
	mux.HandleFunc("GET /toasts", toasts.HandleRegion)
	mux.HandleFunc("DELETE /toasts/{id}", toasts.HandleDismiss)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Static file handling with logging and environment awareness
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "build/bin/static"
	}
	fs := http.FileServer(http.Dir(staticDir))

	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Static file request")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}
