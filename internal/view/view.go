// Package view renders the dashboard's HTML pages.
//
// Templates are embedded in the binary. Every page is parsed together with
// layout.html and executed through the "layout" template, which places the
// page's "content" block inside the shared chrome.
package view

import (
	"embed"
	"io"

	"html/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	PageLogin      = "login"
	PageIndex      = "index"
	PageDoc        = "doc"
	PageReport     = "report"
	PageError      = "error"
	PageNotFound   = "notfound"
	PageDownload   = "download"
	PageInvoices   = "invoices"
	PageChart      = "chart"
	PageBilling    = "billing"
	PageProduction = "production"
)

var pages = []string{
	PageLogin, PageIndex, PageDoc, PageReport, PageError, PageNotFound,
	PageDownload, PageInvoices, PageChart, PageBilling, PageProduction,
}

// BasePath is where the dashboard is mounted.
const BasePath = "/comercial"

// Page is the data every template receives.
type Page struct {
	Title       string
	Usuario     string
	PermissaoNF bool
	Aba         string
	Data        any
}

// Renderer implements echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page. A template error is a programming error, so
// callers treat it as fatal at startup.
func New() (*Renderer, error) {
	funcs := sprig.FuncMap()
	for name, fn := range FuncMap() {
		funcs[name] = fn
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").
			Funcs(funcs).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse page %s", page)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Has reports whether name is a known page.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
