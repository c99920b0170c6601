// Package web holds the embedded page templates, static assets and the CMS
// editor shell.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed admin/index.html
var AdminIndex []byte

// Templates parses every embedded template into one set. Each section kind
// is defined as "section-<name>"; pages use "layout" and "notfound".
func Templates() (*template.Template, error) {
	return template.New("site").ParseFS(templateFS, "templates/*.html")
}

// Static returns the static asset tree rooted at its own directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
