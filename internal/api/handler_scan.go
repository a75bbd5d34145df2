package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toolroom-console/internal/scan"
)

// GetScan handles GET /console/scan.
func (h *Handler) GetScan(c *gin.Context) {
	ctl, err := h.console.Scan()
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, ctl.Snapshot())
}

// PutScan handles PUT /console/scan: a partial edit of the codes and mode.
func (h *Handler) PutScan(c *gin.Context) {
	ctl, err := h.console.Scan()
	if err != nil {
		h.fail(c, err, "")
		return
	}

	var in scan.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Update(in); err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, ctl.Snapshot())
}

type fillRequest struct {
	Code string `json:"code" binding:"required"`
}

// FillScan handles POST /console/scan/fill, the quick-reference tap.
func (h *Handler) FillScan(c *gin.Context) {
	ctl, err := h.console.Scan()
	if err != nil {
		h.fail(c, err, "")
		return
	}

	var req fillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filled, err := ctl.Fill(req.Code)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"filled": filled, "state": ctl.Snapshot()})
}

// SubmitScan handles POST /console/scan/submit and answers with the card as it
// stands after the transaction resolved.
func (h *Handler) SubmitScan(c *gin.Context) {
	ctl, err := h.console.Scan()
	if err != nil {
		h.fail(c, err, "")
		return
	}
	st, err := ctl.Submit(detach(c))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetReference handles GET /console/scan/reference.
func (h *Handler) GetReference(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"codes": h.reference})
}
