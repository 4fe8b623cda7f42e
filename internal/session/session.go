// Package session is the single access point for the persisted session:
// the pairing of the authenticated user with the access/refresh credential
// pair. It is stored client-side in one HMAC-signed cookie; every caller
// goes through Save/Load/Clear rather than reading cookies directly.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iwaseano/yoga-reserve/internal/booking"
)

const (
	cookieName = "yoga_reserve_session"
	// Matches the refresh credential lifetime; the stored access token is
	// not proactively validated at load, only at the point of an API call.
	sessionTTL = 7 * 24 * time.Hour
)

var errConfigMissing = errors.New("session configuration missing")

// Session is the persisted pairing of a user with their credentials.
type Session struct {
	// SID keys per-session server state such as pending toasts.
	SID          string       `json:"sid"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         booking.User `json:"user"`
	ExpiresAt    int64        `json:"exp"`
}

// Store signs and verifies session cookies.
type Store struct {
	secret []byte
	secure bool
}

// New creates a store signing with secret. secure controls the cookie's
// Secure attribute; development runs disable it.
func New(secret string, secure bool) *Store {
	return &Store{secret: []byte(secret), secure: secure}
}

// Save persists the session to the response cookie. A missing SID is
// assigned here so every saved session can key server-side state.
func (s *Store) Save(w http.ResponseWriter, sess Session) error {
	if s == nil || len(s.secret) == 0 {
		return errConfigMissing
	}
	if sess.SID == "" {
		sess.SID = uuid.New().String()
	}
	expiresAt := time.Now().Add(sessionTTL)
	sess.ExpiresAt = expiresAt.Unix()

	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded + "." + s.sign(encoded),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

// Load restores the session from the request. A missing cookie, a bad
// signature, or an expired payload all read as "not authenticated" (nil
// session, nil error).
func (s *Store) Load(r *http.Request) (*Session, error) {
	if s == nil || len(s.secret) == 0 {
		return nil, errConfigMissing
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		return nil, nil
	}
	encoded, signature := parts[0], parts[1]
	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return nil, nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, nil
	}
	if sess.ExpiresAt <= time.Now().Unix() {
		return nil, nil
	}
	if sess.AccessToken == "" {
		// A saved user without an access credential is not a session.
		return nil, nil
	}
	return &sess, nil
}

// Clear expires the session cookie.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (s *Store) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
