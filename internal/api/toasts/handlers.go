// internal/api/toasts/handlers.go
package toasts

import (
	"net/http"
	"strings"
	"sync"

	"github.com/iwaseano/yoga-reserve/internal/api/apiutil"
	"github.com/iwaseano/yoga-reserve/internal/session"
	toastview "github.com/iwaseano/yoga-reserve/internal/templates/components/toastview"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

var (
	store    *toast.Store
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(toastStore *toast.Store) {
	initOnce.Do(func() {
		store = toastStore
	})
}

// GET /toasts
func HandleRegion(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if store == nil || sess == nil {
		w.Write([]byte(""))
		return
	}

	component := toastview.Region(store.Active(sess.SID))
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render toasts", "Failed to render notifications")
}

// DELETE /toasts/{id}
func HandleDismiss(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if store == nil || sess == nil {
		w.Write([]byte(""))
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id != "" {
		store.Dismiss(sess.SID, id)
	}

	component := toastview.Region(store.Active(sess.SID))
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render toasts", "Failed to render notifications")
}
