package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"toolroom-console/internal/views"
)

// reloadWait bounds how long POST /console/reload waits for the refetch.
const reloadWait = 15 * time.Second

// GetShell handles GET /console/shell.
func (h *Handler) GetShell(c *gin.Context) {
	c.JSON(http.StatusOK, h.console.Render(time.Now()))
}

type navigateRequest struct {
	Page string `json:"page" binding:"required"`
}

// Navigate handles POST /console/navigate.
func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.console.Navigate(req.Page); err != nil {
		h.fail(c, err, "Navigation failed")
		return
	}
	c.JSON(http.StatusOK, h.console.Render(time.Now()))
}

// Reload handles POST /console/reload. It answers once every poller of the
// mounted page has resolved, or when the request goes away.
func (h *Handler) Reload(c *gin.Context) {
	select {
	case <-h.console.Reload():
	case <-time.After(reloadWait):
		h.logger.Warnf("reload still running after %s", reloadWait)
	case <-c.Request.Context().Done():
		return
	}
	c.JSON(http.StatusOK, h.console.Render(time.Now()))
}

// UpdatePageState handles PUT /console/page/state.
func (h *Handler) UpdatePageState(c *gin.Context) {
	var in views.Interaction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.console.UpdatePage(in); err != nil {
		h.fail(c, err, "Invalid page state")
		return
	}
	c.JSON(http.StatusOK, h.console.Render(time.Now()))
}

// AcknowledgeAlert handles POST /console/alerts/:id/acknowledge.
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	if err := h.console.Acknowledge(detach(c), c.Param("id")); err != nil {
		h.fail(c, err, "Action failed")
		return
	}
	c.JSON(http.StatusOK, h.console.Render(time.Now()))
}

type resolveRequest struct {
	Note *string `json:"note"`
}

// ResolveAlert handles POST /console/alerts/:id/resolve. The body is optional.
func (h *Handler) ResolveAlert(c *gin.Context) {
	var req resolveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.console.Resolve(detach(c), c.Param("id"), req.Note); err != nil {
		h.fail(c, err, "Action failed")
		return
	}
	c.JSON(http.StatusOK, h.console.Render(time.Now()))
}
