package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/http/ui/viewmodel"
)

const appTitle = "Profile Portal"

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T      *TemplateRenderer
	Flash  *FlashStore
	Logger *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	title := meta.Title
	if title == "" {
		title = appTitle
	} else {
		title += " - " + appTitle
	}
	return viewmodel.Layout{
		Title:           title,
		PageTitle:       meta.PageTitle,
		CurrentPage:     meta.CurrentPage,
		CSRFToken:       GetCSRFToken(r),
		IsAuthenticated: IsAuthenticated(r.Context()),
	}
}

// basePageData constructs the common page data map.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	return map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"CSRFToken":       layout.CSRFToken,
		"IsAuthenticated": layout.IsAuthenticated,
	}
}

// renderPage renders the full layout or, for htmx requests, only the page content.
// Notices queued by a previous redirect are shown on full renders; htmx renders carry
// the given notices as a toast trigger instead.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any, notices ...domainauth.Notice) {
	if WantsPartial(r) {
		HTMX(w).Toast(notices...)
		if err := h.T.RenderPartial(w, status, data); err != nil {
			h.renderTemplateError(w, r, err)
		}
		return
	}

	pending := append(h.Flash.Pop(w, r), notices...)
	if len(pending) > 0 {
		data["Notices"] = pending
	}
	if err := h.T.RenderFull(w, status, data); err != nil {
		h.renderTemplateError(w, r, err)
	}
}

// navigate sends the browser to url, replacing the current page, and shows notices there.
// htmx requests get HX-Redirect; plain form posts get a 303 and a flash cookie.
func (h *UIHandlers) navigate(w http.ResponseWriter, r *http.Request, url string, notices ...domainauth.Notice) {
	// Both paths end in a full page load, so notices travel in the flash cookie.
	h.Flash.Add(w, r, notices...)
	if IsHTMX(r) {
		HTMX(w).Redirect(url)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *UIHandlers) renderTemplateError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "render failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
