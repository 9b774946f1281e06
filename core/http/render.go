package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"

	"github.com/mudler/LocalSRS/core/schema"
)

//go:embed views/*
var viewsfs embed.FS

// templateRenderer adapts the embedded html templates to echo's Renderer.
type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

func renderEngine() (*templateRenderer, error) {
	funcs := sprig.FuncMap()
	funcs["MDToHTML"] = markDowner
	tmpl, err := template.New("").Funcs(funcs).ParseFS(viewsfs, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing views: %w", err)
	}
	return &templateRenderer{templates: tmpl}, nil
}

func markDowner(args ...interface{}) template.HTML {
	s := blackfriday.MarkdownCommon([]byte(fmt.Sprintf("%s", args...)))
	return template.HTML(bluemonday.UGCPolicy().Sanitize(string(s)))
}

func notFoundHandler(c echo.Context) {
	if c.Request().Header.Get(echo.HeaderContentType) == echo.MIMEApplicationJSON ||
		!strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		c.JSON(http.StatusNotFound, schema.ErrorResponse{
			Error: &schema.APIError{Message: "Resource not found", Code: http.StatusNotFound},
		})
		return
	}
	c.Render(http.StatusNotFound, "404.html", map[string]interface{}{})
}
