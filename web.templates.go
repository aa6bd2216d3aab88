package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page template names.
const (
	PageBook     = "book.html"
	PageLogin    = "login.html"
	PageRegister = "register.html"
)

var templateFuncs = template.FuncMap{
	"humanize": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006 15:04")
	},
}

// Pages holds the parsed html pages, each one combined with the shared layout.
type Pages struct {
	templates map[string]*template.Template
}

// LoadPages parses all embedded pages once at startup.
func LoadPages() (*Pages, error) {
	p := &Pages{templates: map[string]*template.Template{}}
	for _, name := range []string{PageBook, PageLogin, PageRegister} {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

// Render executes a page into a buffer first so that a template error
// never produces a half written page.
func (p *Pages) Render(w http.ResponseWriter, name string, status int, data interface{}) error {
	t, ok := p.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
