package blade

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// Page is a view to render as an HTTP response.
type Page interface {
	Name() string
	Data() any
	Status() int
}

type page struct {
	name   string
	data   any
	status int
}

func NewPage(name string, data any, status ...int) Page {
	statusCode := http.StatusOK
	if len(status) > 0 {
		statusCode = status[0]
	}
	return page{
		name:   name,
		data:   data,
		status: statusCode,
	}
}

func (p page) Name() string {
	return p.name
}

func (p page) Data() any {
	return p.data
}

func (p page) Status() int {
	return p.status
}

// HTML writes p to c through the engine installed as c's HTML renderer.
func HTML(c *gin.Context, p Page) {
	c.HTML(p.Status(), p.Name(), p.Data())
}

var _ render.HTMLRender = (*HtmlRender)(nil)

// HtmlRender gin HtmlRender compatible
type HtmlRender struct {
	e *Engine
}

// NewHTMLRender create a new HtmlRender
func NewHTMLRender(e *Engine) *HtmlRender {
	return &HtmlRender{e: e}
}

// Instance returns a new render.Render
func (h *HtmlRender) Instance(name string, data any) render.Render {
	return &Render{e: h.e, name: name, data: data}
}

// Render renders a view with data and writes it to w
type Render struct {
	e    *Engine
	name string
	data any
}

// Render renders the view and writes it to w. Nothing is written when the
// render fails, so the caller can still send an error page.
func (r *Render) Render(w http.ResponseWriter) error {
	out, err := r.e.RenderString(r.name, r.data)
	if err != nil {
		return err
	}
	r.WriteContentType(w)
	_, err = w.Write([]byte(out))
	return err
}

// WriteContentType write an HTML content type to the response header if not set
func (r *Render) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
