// internal/api/shell/handlers.go
package shell

import (
	"net/http"

	"github.com/iwaseano/yoga-reserve/internal/api/apiutil"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/templates/components/shell"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
)

// GET /
func HandleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// A restored session skips the landing page entirely.
	if sess := session.FromContext(r.Context()); sess != nil {
		http.Redirect(w, r, "/services", http.StatusSeeOther)
		return
	}

	base := layouts.BaseView{
		Title:      "ヨガ予約",
		ActivePage: layouts.PageLanding,
	}
	component := shell.LandingPage(base)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render landing page", "Failed to render page")
}

// BaseViewFor builds the layout state for the current request.
func BaseViewFor(r *http.Request, title string, page layouts.Page) layouts.BaseView {
	view := layouts.BaseView{Title: title, ActivePage: page}
	if sess := session.FromContext(r.Context()); sess != nil {
		view.LoggedIn = true
		view.UserName = sess.User.Name
	}
	return view
}
