package core

import (
	"bytes"
	"errors"
	"html/template"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers shared by every page.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"noticeClass": NoticeClass,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - The HTML here is rendered by our own trusted templates (html/template),
		// and is embedded back into the same template set. User-provided values were already
		// auto-escaped during ExecuteTemplate above.
		return template.HTML(buf.String()), nil
	}
}

// NoticeClass maps a notice kind to its toast CSS class.
func NoticeClass(kind domainauth.NoticeKind) string {
	switch kind {
	case domainauth.NoticeSuccess:
		return "toast-success"
	case domainauth.NoticeError:
		return "toast-error"
	default:
		return "toast-info"
	}
}
