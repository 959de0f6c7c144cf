package callback

import (
	_ "embed"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Page is everything a renderer needs to describe an outcome.
type Page struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Success  bool   `json:"success"`
	RetryURL string `json:"retry_url,omitempty"`
}

// Renderer writes a Page as the response.
type Renderer interface {
	Render(c *gin.Context, status int, page Page)
}

// HTMLRenderer renders pages with the embedded HTML template.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer returns the default renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: pageTemplate}
}

func (r *HTMLRenderer) Render(c *gin.Context, status int, page Page) {
	c.Render(status, render.HTML{
		Template: r.tmpl,
		Name:     "page",
		Data:     page,
	})
}

// JSONRenderer renders pages as JSON objects.
type JSONRenderer struct{}

func (JSONRenderer) Render(c *gin.Context, status int, page Page) {
	c.JSON(status, page)
}

// NewRenderer picks a renderer by format name; anything but "json" renders HTML.
func NewRenderer(format string) Renderer {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return JSONRenderer{}
	}
	return NewHTMLRenderer()
}
