// Package assets embeds the status page served at '/'.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed web
var webFS embed.FS

// WebUI is rooted at internal/assets/web so index.html is served at '/'.
var WebUI = mustSub(webFS, "web")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
