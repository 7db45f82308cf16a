// Package client provides a handler for serving the client files.
package client

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/starquake/quizbench/internal/must"
	"github.com/starquake/quizbench/internal/web"
)

//go:embed static/*
var staticFS embed.FS

// Handler returns an [http.Handler] that serves the client files under /client.
// With minified set, HTML, CSS and JavaScript are minified on the way out.
func Handler(minified bool) http.Handler {
	fsys := must.Any(fs.Sub(staticFS, "static"))
	fileServer := http.FileServer(http.FS(fsys))

	if minified {
		return http.StripPrefix("/client", web.NewMinifier().Middleware(fileServer))
	}

	return http.StripPrefix("/client", fileServer)
}
