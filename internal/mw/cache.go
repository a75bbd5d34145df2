package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// snapshot is one stored GET reply.
type snapshot struct {
	status int
	header http.Header
	body   []byte
}

func (s snapshot) replay(c *gin.Context) {
	dst := c.Writer.Header()
	for k, v := range s.header {
		dst[k] = v
	}
	dst.Set("X-Cache", "HIT")
	c.Writer.WriteHeader(s.status)
	_, _ = c.Writer.Write(s.body)
}

// recorder tees the handler's body so it can be stored after the fact.
type recorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// cacheKey is built from the URL alone; RequestURI is only set on server-side
// requests.
func cacheKey(req *http.Request) string {
	return req.Method + " " + req.URL.RequestURI()
}

// Cache replays successful GET replies from memory for ttl. The router fronts
// the quick-reference codes (/console/scan/reference) and the VAPID public key
// (/api/vapid_public_key) with it; both only change on restart.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		if v, ok := store.Get(key); ok {
			v.(snapshot).replay(c)
			c.Abort()
			return
		}

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if status := rec.Status(); status >= http.StatusOK && status < http.StatusMultipleChoices {
			store.Set(key, snapshot{
				status: status,
				header: rec.Header().Clone(),
				body:   bytes.Clone(rec.buf.Bytes()),
			}, ttl)
		}
	}
}
