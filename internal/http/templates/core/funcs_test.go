package core

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

func TestNoticeClass(t *testing.T) {
	assert.Equal(t, "toast-success", NoticeClass(domainauth.NoticeSuccess))
	assert.Equal(t, "toast-error", NoticeClass(domainauth.NoticeError))
	assert.Equal(t, "toast-info", NoticeClass(domainauth.NoticeKind("other")))
}

func TestRenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{
		Template:           &tmpl,
		ContentTemplateFor: func(page string) string { return page + "-content" },
	})

	render, ok := funcs["renderSection"].(func(string, any) (template.HTML, error))
	require.True(t, ok)

	_, err := render("login", nil)
	require.Error(t, err, "rendering before parse fails")

	tmpl = template.Must(template.New("root").Funcs(funcs).Parse(
		`{{define "login-content"}}<p>{{.}}</p>{{end}}{{define "page"}}{{renderSection "login" .}}{{end}}`))

	var out strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&out, "page", "<b>hi</b>"))
	assert.Equal(t, "<p>&lt;b&gt;hi&lt;/b&gt;</p>", out.String())
}
