package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	assets "github.com/partsbridge/marketplace/web"
)

// TemplateData is what every page receives.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flashes     []Flash
	CurrentPath string
	User        *SessionUser
	ShowCart    bool
	CartCount   int
	Data        any
}

// Engine renders one template set per page on top of the shared layout.
type Engine struct {
	pages map[string]*template.Template
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"money": func(v any) string {
			switch d := v.(type) {
			case decimal.Decimal:
				return "$" + d.StringFixed(2)
			case *decimal.Decimal:
				if d == nil {
					return "n/a"
				}
				return "$" + d.StringFixed(2)
			default:
				return fmt.Sprint(v)
			}
		},
		"days": func(d decimal.Decimal) string {
			return d.StringFixed(1)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"newKey":    func() string { return uuid.NewString() },
		"hasPrefix": strings.HasPrefix,
		"list":      func(values ...string) []string { return values },
	}
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	return newEngine(assets.Templates)
}

func newEngine(files fs.FS) (*Engine, error) {
	base, err := template.New("root").Funcs(templateFuncs()).ParseFS(files, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pageFiles, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(files, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = clone
	}
	return &Engine{pages: pages}, nil
}

// Render writes page with status. Nothing is written if execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, page string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	tpl, ok := e.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
