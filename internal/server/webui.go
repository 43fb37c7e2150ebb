package server

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
)

//go:embed web/*
var webFS embed.FS

// RegisterWebUI serves the browser chat page at /.
func RegisterWebUI(mux *http.ServeMux) {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		log.Printf("web UI fs error: %v", err)
		return
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))
}
