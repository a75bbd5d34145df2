package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"toolroom-console/config"
	"toolroom-console/internal/mw"
	"toolroom-console/internal/store"
)

// LiveStream serves the websocket event stream.
type LiveStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Deps is everything the router wires together. Store, Webpush and Live may be
// nil; the routes that need them then answer 503.
type Deps struct {
	Console   Console
	Store     store.Store
	Webpush   *webpush.Options
	Live      LiveStream
	Server    config.ServerConfig
	Reference []config.QuickReference
	Logger    *zap.SugaredLogger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(mw.Metrics())

	handler := NewHandler(d.Console, d.Store, d.Webpush, d.Reference, d.Logger)

	rateLimiter := mw.RateLimiter(rate.Limit(d.Server.RateLimitPerSec), d.Server.RateLimitBurst)

	ttl := time.Duration(d.Server.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", func(c *gin.Context) {
		if d.Live == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live stream is not available"})
			return
		}
		d.Live.ServeWS(c.Writer, c.Request)
	})

	console := r.Group("/console")
	console.Use(rateLimiter)
	{
		console.GET("/shell", handler.GetShell)
		console.POST("/navigate", handler.Navigate)
		console.POST("/reload", handler.Reload)
		console.PUT("/page/state", handler.UpdatePageState)

		console.POST("/alerts/:id/acknowledge", handler.AcknowledgeAlert)
		console.POST("/alerts/:id/resolve", handler.ResolveAlert)

		console.GET("/scan", handler.GetScan)
		console.PUT("/scan", handler.PutScan)
		console.POST("/scan/fill", handler.FillScan)
		console.POST("/scan/submit", handler.SubmitScan)
		console.GET("/scan/reference", caching, handler.GetReference)

		console.GET("/history/export", handler.ExportHistory)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", caching, handler.GetVAPIDPublicKey)
	}

	return r
}
