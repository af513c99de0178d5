package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages lists every page template; each is parsed together with base.html.
var pages = []string{
	"home.html",
	"login.html",
	"register.html",
	"menu.html",
	"cart.html",
	"order_success.html",
	"order_detail.html",
	"dashboard.html",
	"manage_items.html",
	"item_form.html",
	"error.html",
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"datetime": func(t time.Time) string {
		return t.Local().Format("02 Jan 2006 15:04")
	},
}

// htmlRenderer keeps a separate template set per page so each page can
// define its own "content" block.
type htmlRenderer struct {
	templates map[string]*template.Template
}

func newHTMLRenderer() (*htmlRenderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return &htmlRenderer{templates: templates}, nil
}

func (r *htmlRenderer) Instance(name string, data any) render.Render {
	return render.HTML{
		Template: r.templates[name],
		Name:     "base",
		Data:     data,
	}
}
