package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoadMachines handles GET /api/machines, returning the whole tree.
func (h *Handler) LoadMachines(c *gin.Context) {
	tree, err := h.store.LoadTree(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load machine tree")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load machines"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": tree})
}

// Legacy serves /api.php: GET ?load returns the tree, POST runs an action.
// Preflight requests never reach it.
func (h *Handler) Legacy(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		if _, ok := c.GetQuery("load"); ok {
			h.LoadMachines(c)
			return
		}
	case http.MethodPost:
		h.Dispatch(c)
		return
	}
	MethodNotAllowed(c)
}
