package httpx

import (
	"errors"
	"net/http"
	"strings"
)

var notFoundMeta = PageMeta{Title: "Page Not Found", PageTitle: "Page Not Found", CurrentPage: PageNotFound}

// NotFound renders the 404 page for browsers and a JSON error otherwise.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !isBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("not found"),
		})
		return
	}

	data := NewTemplateData(r, notFoundMeta).
		With("Code", "404").
		With("Message", "The page you're looking for doesn't exist.").
		Build()
	if err := h.T.RenderError(w, http.StatusNotFound, data); err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}

// isBrowserRequest reports whether the client expects HTML.
func isBrowserRequest(r *http.Request) bool {
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
