package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

// ResponseCache holds rendered GET responses. Every flush starts a new
// generation, and a response rendered during an older one is discarded.
type ResponseCache struct {
	store *cache.Cache
	mu    sync.Mutex
	gen   uint64
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl)}
}

// Generation returns the current flush generation.
func (r *ResponseCache) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Flush drops every entry and bumps the generation.
func (r *ResponseCache) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.store.Flush()
}

// ItemCount returns the number of cached responses.
func (r *ResponseCache) ItemCount() int {
	return r.store.ItemCount()
}

func (r *ResponseCache) get(key string) (cachedResponse, bool) {
	v, found := r.store.Get(key)
	if !found {
		return cachedResponse{}, false
	}
	return v.(cachedResponse), true
}

// set stores resp unless the cache was flushed after gen was read.
func (r *ResponseCache) set(key string, gen uint64, resp cachedResponse) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return false
	}
	r.store.Set(key, resp, cache.DefaultExpiration)
	return true
}

// Cache is a middleware for in-memory caching of GET requests.
func Cache(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if cached, found := rc.get(key); found {
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.Generation()
		c.Writer.Header().Set(CacheHeader, "MISS")
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			headers := blw.Header().Clone()
			headers.Del(CacheHeader)
			headers.Del(RequestIDHeader)
			rc.set(key, gen, cachedResponse{
				status:  blw.Status(),
				headers: headers,
				body:    bytes.Clone(blw.body.Bytes()),
			})
		}
	}
}

// Invalidate flushes the response cache after every successful request that
// is not a GET, so the next load sees the mutation.
func Invalidate(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			return
		}
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			rc.Flush()
		}
	}
}
