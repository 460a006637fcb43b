// Package site serves the embedded game page and its static assets.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/okian/hiscore/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("site render failed")
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const defaultTitle = "High Scores"

// StorageStatus tells the page whether scores can be saved.
type StorageStatus interface {
	Available() bool
}

// pageData feeds templates/index.html.
type pageData struct {
	Title       string
	DBAvailable bool
	Limit       int
}

// RootHandler renders the game page.
type RootHandler struct {
	status StorageStatus
	limit  int
}

// NewRootHandler creates a new root handler. limit is the leaderboard size
// the page asks for.
func NewRootHandler(status StorageStatus, limit int) *RootHandler {
	return &RootHandler{status: status, limit: limit}
}

// Register attaches the page at / and its assets under /static/.
func Register(_ context.Context, mux *http.ServeMux, status StorageStatus, limit int) {
	if mux == nil {
		panic("mux is nil")
	}
	if status == nil {
		panic("status is nil")
	}

	mux.Handle("/", NewRootHandler(status, limit))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// ServeHTTP handles GET / requests. Any other path under / is not found.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	data := pageData{Title: defaultTitle, DBAvailable: h.status.Available(), Limit: h.limit}
	if err := indexTemplate.Execute(&buf, data); err != nil {
		logger.Named("site").Error(r.Context(), "render index", logger.Error(errors.Join(ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// FS returns an http.FileSystem for the embedded static assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
