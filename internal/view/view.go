// Package view renders the site's HTML pages from embedded templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"tlgsite/internal/model"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// Static returns the stylesheet and scripts served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

const layoutFile = "layout.html"

// Page is the data every page template receives. Data holds the page-specific part.
type Page struct {
	Title string
	User  *model.User
	Path  string
	// Flash is a one-off message shown above the content.
	Flash string
	// Retry asks the layout to show the "could not load, retry" notice.
	Retry bool
	Data  any
}

// UserFunc returns the signed-in user of a request, or nil.
type UserFunc func(c echo.Context) *model.User

// Renderer is an echo.Renderer over the embedded page templates. Each page is parsed
// together with the layout so every page can define its own "content" block.
type Renderer struct {
	pages    map[string]*template.Template
	userFrom UserFunc
}

// New parses every page. extra is merged into the base func map (authorization helpers).
func New(userFrom UserFunc, extra template.FuncMap) (*Renderer, error) {
	funcs := Funcs()
	for k, v := range extra {
		funcs[k] = v
	}

	layout, err := template.New(layoutFile).Funcs(funcs).ParseFS(templates, "templates/"+layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	entries, err := fs.Glob(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(entries)), userFrom: userFrom}
	for _, entry := range entries {
		name := path.Base(entry)
		if name == layoutFile {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templates, entry)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".html")] = t
	}
	return r, nil
}

// Has reports whether a page called name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render implements echo.Renderer. data may be a Page, a *Page or any page-specific value.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	var page Page
	switch d := data.(type) {
	case Page:
		page = d
	case *Page:
		page = *d
	default:
		page = Page{Data: data}
	}
	if c != nil {
		if page.User == nil && r.userFrom != nil {
			page.User = r.userFrom(c)
		}
		if page.Path == "" {
			page.Path = c.Request().URL.Path
		}
	}
	return t.ExecuteTemplate(w, layoutFile, page)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// replaced by the authorization helpers passed to New
		"canManage": func(*model.User) bool { return false },
		"can":       func(*model.User, string, string) bool { return false },
		"year": func() int { return time.Now().Year() },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("02/01/2006")
		},
		"contains": func(list []string, s string) bool {
			for _, v := range list {
				if v == s {
					return true
				}
			}
			return false
		},
		"join": strings.Join,
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
		"active": func(current, prefix string) bool {
			if prefix == "/" {
				return current == "/"
			}
			return strings.HasPrefix(current, prefix)
		},
	}
}
