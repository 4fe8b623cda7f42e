package apiutil

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"
)

// RenderHTMLComponent renders a templ component to the response, buffering
// first so a render failure never produces a half-written page. Extra headers
// are applied only on success. Returns false when rendering failed and an
// error response has already been written.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, headers map[string]string, logMsg, userMsg string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		http.Error(w, userMsg, http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		return false
	}
	return true
}
