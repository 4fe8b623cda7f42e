// internal/api/services/handlers.go
package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iwaseano/yoga-reserve/internal/api/apiutil"
	"github.com/iwaseano/yoga-reserve/internal/api/shell"
	"github.com/iwaseano/yoga-reserve/internal/client"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/templates/components/servicesview"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
)

const serviceQueryTimeout = 10 * time.Second

var (
	backend  client.API
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(api client.API) {
	initOnce.Do(func() {
		backend = api
	})
}

// GET /services
func HandleCatalogPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if backend == nil {
		logger.Error().Msg("Service handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceQueryTimeout)
	defer cancel()

	view := servicesview.CatalogView{
		Base: shell.BaseViewFor(r, "クラス一覧 - ヨガ予約", layouts.PageServices),
	}
	list, err := backend.Services(ctx, sess.AccessToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load services")
		view.Error = client.Message(err, "クラス一覧の取得に失敗しました")
	} else {
		view.Services = servicesview.NewServiceCards(list)
	}
	component := servicesview.CatalogPage(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render service catalog", "Failed to render page")
}
