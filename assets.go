// Package portal provides embedded assets for production builds.
package portal

import "embed"

// Embedded assets for production builds.
// In dev mode (DEV=true), assets are loaded from disk so edits show up on reload.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
