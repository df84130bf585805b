// assets/embed.go
//
// Embedded page templates and static files for the web frontend.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var FS embed.FS

// Templates is the templates/ directory.
func Templates() fs.FS {
	sub, err := fs.Sub(FS, "templates")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return sub
}

// Static is the static/ directory, served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
