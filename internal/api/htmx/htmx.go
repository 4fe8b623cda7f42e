package htmx

import (
	"net/http"
	"strings"
)

func IsRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// Redirect sends the browser to url. HTMX requests get an HX-Redirect header
// so the client performs a full-page navigation instead of swapping the
// fragment.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsRequest(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
