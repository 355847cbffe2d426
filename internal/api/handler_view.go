package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// templates returns the parsed HTML templates served by View.
func templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// View handles GET /, a read-only rendering of the tree.
func (h *Handler) View(c *gin.Context) {
	tree, err := h.store.LoadTree(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load machine tree")
		c.String(http.StatusInternalServerError, "failed to load machines")
		return
	}
	c.HTML(http.StatusOK, "tree.html", gin.H{"Machines": tree})
}
