package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func newTestLimiter(t *testing.T) (*Limiter, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)}
	l := New(&Config{
		MaxAttempts:  3,
		Lockout:      5 * time.Minute,
		MaxIPPerHour: 5,
		Clock:        clock,
	})
	t.Cleanup(l.Close)
	return l, clock
}

func TestCheckLoginAllowsFreshIdentifier(t *testing.T) {
	l, _ := newTestLimiter(t)

	result := l.CheckLogin("user@example.com", "203.0.113.1")
	if !result.Allowed {
		t.Fatalf("expected fresh identifier to be allowed: %+v", result)
	}
}

func TestLockoutAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 2; i++ {
		if locked := l.RecordFailure("user@example.com", "203.0.113.1"); locked {
			t.Fatalf("unexpected lockout on attempt %d", i+1)
		}
	}
	if locked := l.RecordFailure("user@example.com", "203.0.113.1"); !locked {
		t.Fatal("expected third failure to trigger lockout")
	}

	result := l.CheckLogin("user@example.com", "203.0.113.1")
	if result.Allowed {
		t.Fatal("expected locked identifier to be rejected")
	}
	if result.Reason != "lockout" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
	if result.RetryAfter <= 0 {
		t.Errorf("expected positive retry-after, got %v", result.RetryAfter)
	}
}

func TestLockoutExpires(t *testing.T) {
	l, clock := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		l.RecordFailure("user@example.com", "203.0.113.1")
	}
	clock.now = clock.now.Add(5*time.Minute + time.Second)

	if result := l.CheckLogin("user@example.com", "203.0.113.1"); !result.Allowed {
		t.Fatalf("expected lockout to expire: %+v", result)
	}
}

func TestIdentifierNormalization(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		l.RecordFailure("User@Example.com", "203.0.113.1")
	}

	if result := l.CheckLogin("  user@example.com ", "203.0.113.2"); result.Allowed {
		t.Fatal("expected case and whitespace variants to share the lockout")
	}
}

func TestResetClearsFailures(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		l.RecordFailure("user@example.com", "203.0.113.1")
	}
	l.Reset("user@example.com")

	if result := l.CheckLogin("user@example.com", "203.0.113.9"); !result.Allowed {
		t.Fatalf("expected reset identifier to be allowed: %+v", result)
	}
}

func TestIPHourlyLimit(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 5; i++ {
		l.RecordFailure("distinct"+string(rune('a'+i))+"@example.com", "203.0.113.7")
	}

	result := l.CheckLogin("fresh@example.com", "203.0.113.7")
	if result.Allowed {
		t.Fatal("expected IP hourly limit to reject")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
}

func TestGetClientIPDirect(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.RemoteAddr = "203.0.113.5:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	if ip := GetClientIP(r, false); ip != "203.0.113.5" {
		t.Errorf("expected remote addr when proxy is untrusted, got %q", ip)
	}
	if ip := GetClientIP(r, true); ip != "198.51.100.9" {
		t.Errorf("expected forwarded address when proxy is trusted, got %q", ip)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	if got := SanitizeIdentifier("someone@example.com"); got == "someone@example.com" {
		t.Errorf("expected identifier to be masked, got %q", got)
	}
}
