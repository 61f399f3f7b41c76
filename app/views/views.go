package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index.html", "city.html", "404.html"}

// Page is the value every template executes against. Path is the request
// path, used to build relative links so the app works behind a path prefix.
type Page struct {
	Path string
	Data any
}

type Renderer struct {
	logger    *slog.Logger
	templates map[string]*template.Template
}

func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"relativeURL": RelativeURL,
		"join":        strings.Join,
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}
	return &Renderer{logger: logger, templates: templates}, nil
}

// Render executes the named page into a buffer first so a template error can
// still produce a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := rd.templates[name]
	if !ok {
		rd.logger.ErrorContext(r.Context(), "Unknown template", slog.String("template", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", Page{Path: r.URL.Path, Data: data}); err != nil {
		rd.logger.ErrorContext(r.Context(), "Failed to render template",
			slog.String("template", name),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.logger.ErrorContext(r.Context(), "Failed to write response body", slog.Any("error", err))
	}
}

// RelativeURL returns endpoint relative to the directory of currentPath,
// e.g. ("/city/Paris", "/kb/Paris") -> "../kb/Paris".
func RelativeURL(currentPath, endpoint string) string {
	startDir := path.Dir(currentPath)
	rel, err := filepath.Rel(startDir, endpoint)
	if err != nil {
		return endpoint
	}
	return filepath.ToSlash(rel)
}
