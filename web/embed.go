// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static templates
var content embed.FS

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(content, dir)
	if err != nil {
		log.Fatalf("failed to create %s sub-filesystem: %v", dir, err)
	}
	return fsys
}

// StaticFS returns the stylesheet and other static assets.
func StaticFS() fs.FS { return sub("static") }

// TemplatesFS returns the page templates.
func TemplatesFS() fs.FS { return sub("templates") }
