package gateway

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/wikidb/internal/wikiclient"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewPageMarkdown seeds the editor for a page that does not exist yet.
const NewPageMarkdown = "# A new page\n\nFeel-free to write in Markdown!\n"

type handlers struct {
	client *wikiclient.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter builds the gin engine serving the wiki over client.
func NewRouter(client *wikiclient.Client, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{client: client, logger: logger, now: time.Now}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/", h.index)
	r.GET("/wiki/:page", h.renderPage)
	r.POST("/save", h.savePage)
	r.POST("/create", h.createPage)
	r.POST("/delete", h.deletePage)

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, err.Error())
}

func pageLocation(name string) string {
	return "/wiki/" + url.PathEscape(name)
}

func (h *handlers) index(c *gin.Context) {
	pages, err := h.client.AllPages(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "Wiki home",
		"Pages": pages,
	})
}

func (h *handlers) renderPage(c *gin.Context) {
	name := c.Param("page")
	page, err := h.client.GetPage(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}

	raw := page.Content
	newPage := "no"
	id := page.ID
	if !page.Found {
		raw = NewPageMarkdown
		newPage = "yes"
		id = -1
	}

	content, err := renderMarkdown(raw)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "page.html", gin.H{
		"Title":      name,
		"ID":         id,
		"NewPage":    newPage,
		"RawContent": raw,
		"Content":    content,
		"Timestamp":  h.now().Format(time.RFC1123),
	})
}

func (h *handlers) savePage(c *gin.Context) {
	title := c.PostForm("title")
	markdown := c.PostForm("markdown")
	ctx := c.Request.Context()

	if c.PostForm("newPage") == "yes" {
		if err := h.client.CreatePage(ctx, title, markdown); err != nil {
			h.fail(c, err)
			return
		}
	} else {
		id, err := wikiclient.ParseID(c.PostForm("id"))
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		if err := h.client.SavePage(ctx, id, markdown); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, pageLocation(title))
}

func (h *handlers) createPage(c *gin.Context) {
	name := c.PostForm("name")
	location := "/"
	if name != "" {
		location = pageLocation(name)
	}
	c.Redirect(http.StatusSeeOther, location)
}

func (h *handlers) deletePage(c *gin.Context) {
	id, err := wikiclient.ParseID(c.PostForm("id"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if err := h.client.DeletePage(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
