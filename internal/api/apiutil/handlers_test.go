package apiutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
)

func TestRenderHTMLComponentAppliesHeaders(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>ok</p>")
		return err
	})

	rec := httptest.NewRecorder()
	ok := RenderHTMLComponent(context.Background(), rec, component,
		map[string]string{"HX-Trigger": "refreshBookings"}, "render failed", "render failed")

	if !ok {
		t.Fatal("expected render to succeed")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type: %q", ct)
	}
	if got := rec.Header().Get("HX-Trigger"); got != "refreshBookings" {
		t.Errorf("expected extra header to be set, got %q", got)
	}
	if rec.Body.String() != "<p>ok</p>" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestRenderHTMLComponentFailureWritesNothingPartial(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, "<p>half")
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	ok := RenderHTMLComponent(context.Background(), rec, component, nil,
		"render failed", "ページを表示できません")

	if ok {
		t.Fatal("expected render to fail")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("expected no extra headers on failure, got %q", got)
	}
}
