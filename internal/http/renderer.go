package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	corefuncs "github.com/target/profile-portal/internal/http/templates/core"
)

var templatePatterns = []string{
	"*.tmpl",
	"pages/*.tmpl",
	"partials/*.tmpl",
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	fsys    fs.FS
	devMode bool         // Re-parse templates on every render
	logger  *slog.Logger // For logging template errors

	mu sync.RWMutex
	t  *template.Template
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	DevMode    bool         // Enable hot reloading of templates
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
// In dev mode, TemplateFS should be os.DirFS("frontend/templates") so edits show up on reload.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &TemplateRenderer{
		fsys:    cfg.TemplateFS,
		devMode: cfg.DevMode,
		logger:  logger,
	}

	t, err := r.parse()
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{
		Template:           &t,
		ContentTemplateFor: ContentTemplateFor,
	})
	parsed, err := template.New("root").Funcs(funcs).ParseFS(r.fsys, templatePatterns...)
	if err != nil {
		return nil, err
	}
	t = parsed
	return t, nil
}

// templates returns the parsed set, re-parsing from disk in dev mode.
func (r *TemplateRenderer) templates() *template.Template {
	if r.devMode {
		if t, err := r.parse(); err == nil {
			r.mu.Lock()
			r.t = t
			r.mu.Unlock()
		} else {
			r.logger.Warn("template reload failed; using previous templates", slog.Any("error", err))
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, status, "layout", data)
}

// RenderPartial renders only the main content area.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, status, "content", data)
}

// RenderError renders an error page using the error template.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, status, "error-layout", data)
}

// Render executes the named template into a buffer and writes it with the given status.
// Nothing is written when execution fails.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates().ExecuteTemplate(&buf, name, data); err != nil {
		r.logTemplateError(name, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}

// logTemplateError logs a template execution error with context.
func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	if err == nil {
		return
	}
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
