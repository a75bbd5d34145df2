package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom-console/config"
	"toolroom-console/internal/apiclient"
	"toolroom-console/internal/model"
	"toolroom-console/internal/scan"
	"toolroom-console/internal/shell"
	"toolroom-console/internal/store"
	"toolroom-console/internal/views"
)

// Console is the navigation shell as the HTTP surface sees it.
type Console interface {
	Render(now time.Time) shell.Render
	Navigate(page string) error
	Reload() <-chan struct{}
	UpdatePage(in views.Interaction) error
	Acknowledge(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string, note *string) error
	Scan() (*scan.Controller, error)
	HistoryRows(ctx context.Context) ([]model.HistoryRecord, error)
	Location() *time.Location
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	console   Console
	store     store.Store
	webpush   *webpush.Options
	reference []config.QuickReference
	logger    *zap.SugaredLogger
}

// NewHandler creates a new API handler. s and webpushOptions may be nil when
// push is not configured.
func NewHandler(console Console, s store.Store, webpushOptions *webpush.Options, reference []config.QuickReference, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		console:   console,
		store:     s,
		webpush:   webpushOptions,
		reference: reference,
		logger:    logger,
	}
}

// detach keeps the request's values but not its cancellation. Writes to the API
// of record must run to completion once sent, even if the browser goes away;
// the API client's own timeout still bounds them.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// statusFor maps console errors to HTTP status codes.
func statusFor(err error) int {
	var apiErr *apiclient.APIError
	var timeout *apiclient.TimeoutError
	switch {
	case errors.Is(err, shell.ErrUnknownPage):
		return http.StatusNotFound
	case errors.Is(err, views.ErrInvalidInteraction), errors.Is(err, scan.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, shell.ErrNotOnPage), errors.Is(err, scan.ErrBusy),
		errors.Is(err, scan.ErrClosed), errors.Is(err, views.ErrActionPending):
		return http.StatusConflict
	case errors.Is(err, shell.ErrNotStarted):
		return http.StatusServiceUnavailable
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warnf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	msg := err.Error()
	if status == http.StatusBadGateway {
		msg = apiclient.DetailMessage(err, fallback)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
