package blade

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHTMLRender(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := newTestEngine(t, map[string]string{
		"pages/hello.blade": "Hello {{ .Name }}",
	})

	r := gin.New()
	r.HTMLRender = NewHTMLRender(e)
	r.GET("/", func(c *gin.Context) {
		HTML(c, NewPage("pages/hello", gin.H{"Name": "<Ann>"}))
	})
	r.GET("/created", func(c *gin.Context) {
		HTML(c, NewPage("pages/hello", gin.H{"Name": "Bo"}, http.StatusCreated))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello &lt;Ann&gt;", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/created", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Hello Bo", w.Body.String())
}

func TestNewPage(t *testing.T) {
	p := NewPage("pages/a", gin.H{"k": "v"})
	assert.Equal(t, "pages/a", p.Name())
	assert.Equal(t, http.StatusOK, p.Status())
	assert.Equal(t, gin.H{"k": "v"}, p.Data())
}
