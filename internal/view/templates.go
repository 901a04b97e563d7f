package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title         string
	CSRFToken     string
	Flash         *shared.FlashMessage
	CurrentPath   string
	Authenticated bool
	Data          any
}

var funcMap = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006 15:04")
	},
	"money": func(v float64) string {
		return "$ " + strconv.FormatFloat(v, 'f', 2, 64)
	},
	"percent": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64) + " %"
	},
	"number": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData. The page is rendered
// to a buffer first so a failing template never leaves a half written
// response.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
