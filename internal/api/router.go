package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"inventory-tracker/internal/mw"
	"inventory-tracker/internal/store"
)

// Options tunes the middleware installed by NewRouter.
type Options struct {
	RateLimit     rate.Limit
	RateBurst     int
	CacheTTL      time.Duration // zero disables response caching
	AllowedOrigin string
	Logger        zerolog.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, opts Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(templates())

	handler := NewHandler(s, opts.Logger)

	responses := mw.NewResponseCache(opts.CacheTTL)
	var caching gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.CacheTTL > 0 {
		caching = mw.Cache(responses)
	}

	r.Use(
		gin.Recovery(),
		mw.RequestID(),
		mw.Logger(opts.Logger),
		mw.SecurityHeaders(),
		mw.CORS(opts.AllowedOrigin),
		mw.Invalidate(responses),
	)
	r.NoRoute(NotFound)
	r.NoMethod(MethodNotAllowed)

	rateLimiter := mw.RateLimiter(opts.RateLimit, opts.RateBurst)

	r.GET("/healthz", handler.Health)
	r.GET("/", rateLimiter, handler.View)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// GET /api/machines
		api.GET("/machines", caching, handler.LoadMachines)

		// POST /api/actions
		api.POST("/actions", handler.Dispatch)
	}

	// Same contract under the path older browser clients call.
	r.Any("/api.php", rateLimiter, caching, handler.Legacy)

	return r
}
