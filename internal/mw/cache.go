package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// Catalog scopes. A cached response belongs to exactly one scope, and a
// catalog write invalidates the scopes whose listings it changes.
const (
	ScopeBranches  = "branches"
	ScopeRoomTypes = "room-types"
	ScopeRooms     = "rooms"
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

// ResponseCache keeps successful catalog GET responses in memory, keyed by
// scope and request URI.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl), ttl: ttl}
}

func cacheKey(scope, uri string) string {
	return scope + "|" + uri
}

// Middleware caches GET responses under scope. A nil cache passes requests through.
func (rc *ResponseCache) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(scope, c.Request.RequestURI)
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw
		c.Next()

		// Errors such as an unknown room id are not cached; the room may be created next.
		if status := blw.Status(); status >= 200 && status < 300 {
			rc.store.Set(key, cachedResponse{
				status:  status,
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}, rc.ttl)
		}
	}
}

// Invalidate drops every cached response of the given scopes and returns how
// many were removed.
func (rc *ResponseCache) Invalidate(scopes ...string) int {
	if rc == nil {
		return 0
	}
	removed := 0
	for key := range rc.store.Items() {
		for _, scope := range scopes {
			if strings.HasPrefix(key, scope+"|") {
				rc.store.Delete(key)
				removed++
				break
			}
		}
	}
	return removed
}

// Len returns the number of live cached responses.
func (rc *ResponseCache) Len() int {
	if rc == nil {
		return 0
	}
	return rc.store.ItemCount()
}
