// Package views renders the generator and gallery pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/krishkalaria12/snap-gallery/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format("1/2/2006")
	},
}

// Page carries what the layout needs on every page.
type Page struct {
	Title    string
	Session  *auth.Session
	LoginURL string
}

type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{"generator", "gallery"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func (r *Renderer) Generator(w io.Writer, p GeneratorPage) error {
	return r.render(w, "generator", p)
}

func (r *Renderer) Gallery(w io.Writer, p GalleryPage) error {
	return r.render(w, "gallery", p)
}
