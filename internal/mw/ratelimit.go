package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// clientIdle is how long a client's limiter survives without requests.
const clientIdle = 10 * time.Minute

// ClientRateLimiter keeps one token bucket per client address. Buckets of idle
// clients expire from the table.
type ClientRateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewClientRateLimiter creates a limiter table allowing r requests per second
// with bursts of b.
func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		limiters: cache.New(clientIdle, 2*clientIdle),
		r:        r,
		b:        b,
	}
}

// Limiter returns the bucket for a client, creating it on first use.
func (l *ClientRateLimiter) Limiter(client string) *rate.Limiter {
	if v, ok := l.limiters.Get(client); ok {
		l.limiters.Set(client, v, cache.DefaultExpiration)
		return v.(*rate.Limiter)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.limiters.Get(client); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.limiters.Set(client, limiter, cache.DefaultExpiration)
	return limiter
}

// Allow reports whether the client may make a request now.
func (l *ClientRateLimiter) Allow(client string) bool {
	return l.Limiter(client).Allow()
}

// RateLimiter is a middleware for per-client rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewClientRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
