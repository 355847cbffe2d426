package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"inventory-tracker/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store  store.Store
	logger zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MethodNotAllowed is the fallback for unsupported methods.
func MethodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// NotFound is the fallback for unknown routes.
func NotFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// fail maps a store error onto a response. notFound is the message used for
// ErrNotFound.
func (h *Handler) fail(c *gin.Context, err error, notFound string) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Msg("store operation failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
