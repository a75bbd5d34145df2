// Package scan drives the checkout/return transaction of the scan station.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"toolroom-console/internal/apiclient"
	"toolroom-console/internal/derive"
	"toolroom-console/internal/metrics"
	"toolroom-console/internal/model"
)

// Modes.
const (
	ModeCheckout = "CHECKOUT"
	ModeReturn   = "RETURN"
)

// Statuses.
const (
	StatusIdle       = "idle"
	StatusSubmitting = "submitting"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// Input fields that can hold focus.
const (
	FocusWorker = "worker"
	FocusAsset  = "asset"
)

const (
	msgCodesRequired    = "Both QR codes are required"
	subCodesRequired    = "Please scan or enter the Worker QR and Asset QR"
	msgCheckedOut       = "Tool checked out successfully"
	msgReturned         = "Tool returned successfully"
	msgOperationFailed  = "Operation failed"
	subCheckCodes       = "Check the QR codes and try again"
	defaultSuccessDelay = 5 * time.Second
	defaultErrorDelay   = 6 * time.Second
)

var (
	// ErrBusy is returned while a transaction is being submitted.
	ErrBusy = errors.New("a scan transaction is already being submitted")
	// ErrInvalidMode is returned for a mode other than CHECKOUT or RETURN.
	ErrInvalidMode = errors.New("mode must be CHECKOUT or RETURN")
	// ErrClosed is returned once the scan page has been torn down.
	ErrClosed = errors.New("scan station is closed")
)

// Transactor runs the two custody transactions.
type Transactor interface {
	Checkout(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error)
	Return(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error)
}

// Journal keeps what this station submitted and what it was told.
type Journal interface {
	RecordScan(ctx context.Context, entry *model.ScanJournalEntry) error
	RecentScans(ctx context.Context, limit int) ([]model.ScanJournalEntry, error)
}

// Reloader is a poller the transaction invalidates.
type Reloader interface {
	Reload() <-chan struct{}
}

// State is everything the scan card shows.
type State struct {
	WorkerCode string `json:"worker_code"`
	AssetCode  string `json:"asset_code"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	SubMessage string `json:"sub_message,omitempty"`
	Focus      string `json:"focus"`
}

// Input is a partial edit of the scan card. Nil fields are left alone.
type Input struct {
	WorkerCode *string `json:"worker_code"`
	AssetCode  *string `json:"asset_code"`
	Mode       *string `json:"mode"`
}

// Options tunes a Controller.
type Options struct {
	SuccessDismiss time.Duration
	ErrorDismiss   time.Duration
	Location       *time.Location
	// Invalidate lists the pollers refreshed right after a successful
	// transaction, normally active custody and the summary.
	Invalidate  []Reloader
	JournalSize int
}

// Controller is the scan station state machine.
type Controller struct {
	api     Transactor
	journal Journal
	opts    Options
	logger  *zap.SugaredLogger

	mu        sync.Mutex
	state     State
	seq       uint64
	timer     *time.Timer
	closed    bool
	listeners []func(State)
}

// NewController creates an idle controller in CHECKOUT mode. journal may be nil.
func NewController(api Transactor, journal Journal, opts Options, logger *zap.SugaredLogger) *Controller {
	if opts.SuccessDismiss <= 0 {
		opts.SuccessDismiss = defaultSuccessDelay
	}
	if opts.ErrorDismiss <= 0 {
		opts.ErrorDismiss = defaultErrorDelay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.JournalSize <= 0 {
		opts.JournalSize = 10
	}
	return &Controller{
		api:     api,
		journal: journal,
		opts:    opts,
		logger:  logger,
		state:   State{Mode: ModeCheckout, Status: StatusIdle, Focus: FocusWorker},
	}
}

// OnChange registers fn to run after every state change.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update edits the code fields and the mode.
func (c *Controller) Update(in Input) error {
	if in.Mode != nil && *in.Mode != ModeCheckout && *in.Mode != ModeReturn {
		return fmt.Errorf("%w: %q", ErrInvalidMode, *in.Mode)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if in.Mode != nil && c.state.Status == StatusSubmitting {
		c.mu.Unlock()
		return ErrBusy
	}
	if in.WorkerCode != nil {
		c.state.WorkerCode = *in.WorkerCode
	}
	if in.AssetCode != nil {
		c.state.AssetCode = *in.AssetCode
	}
	if in.Mode != nil {
		// Switching mode clears the result but never the typed codes.
		c.state.Mode = *in.Mode
		c.clearResultLocked()
	}
	st := c.state
	c.mu.Unlock()

	c.notify(st)
	return nil
}

// SetMode switches between CHECKOUT and RETURN.
func (c *Controller) SetMode(mode string) error {
	return c.Update(Input{Mode: &mode})
}

// Fill puts a quick-reference code into the first blank field, worker first.
// It reports false when both fields are already filled.
func (c *Controller) Fill(code string) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	switch {
	case isBlank(c.state.WorkerCode):
		c.state.WorkerCode = code
		c.state.Focus = FocusAsset
	case isBlank(c.state.AssetCode):
		c.state.AssetCode = code
	default:
		c.mu.Unlock()
		return false, nil
	}
	st := c.state
	c.mu.Unlock()

	c.notify(st)
	return true, nil
}

// Submit runs the transaction selected by the current mode and blocks until it
// resolves. The returned state is what the card shows afterwards.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return State{}, ErrClosed
	}
	if c.state.Status == StatusSubmitting {
		c.mu.Unlock()
		return State{}, ErrBusy
	}

	mode := c.state.Mode
	req := model.ScanRequest{
		WorkerQR: strings.TrimSpace(c.state.WorkerCode),
		AssetQR:  strings.TrimSpace(c.state.AssetCode),
	}

	c.cancelDismissLocked()
	if req.WorkerQR == "" || req.AssetQR == "" {
		c.state.Status = StatusError
		c.state.Message = msgCodesRequired
		c.state.SubMessage = subCodesRequired
		st := c.state
		c.mu.Unlock()

		metrics.ScanTransactions.WithLabelValues(mode, model.OutcomeInvalid).Inc()
		c.record(ctx, mode, req, model.OutcomeInvalid, msgCodesRequired)
		c.notify(st)
		return st, nil
	}

	c.state.Status = StatusSubmitting
	c.state.Message = ""
	c.state.SubMessage = ""
	seq := c.seq
	st := c.state
	c.mu.Unlock()
	c.notify(st)

	var (
		res *model.ScanResult
		err error
	)
	if mode == ModeReturn {
		res, err = c.api.Return(ctx, req)
	} else {
		res, err = c.api.Checkout(ctx, req)
	}

	if err != nil {
		msg := apiclient.DetailMessage(err, msgOperationFailed)
		c.logger.Warnf("%s rejected for worker %s asset %s: %v", strings.ToLower(mode), req.WorkerQR, req.AssetQR, err)
		metrics.ScanTransactions.WithLabelValues(mode, model.OutcomeRejected).Inc()
		c.record(ctx, mode, req, model.OutcomeRejected, msg)

		return c.resolve(seq, func(s *State) {
			s.Status = StatusError
			s.Message = msg
			s.SubMessage = subCheckCodes
		}, c.opts.ErrorDismiss), nil
	}

	msg := successMessage(mode, res)
	sub := ""
	if res != nil && res.ExpectedReturnAt != nil && !res.ExpectedReturnAt.IsZero() {
		sub = "Return by " + derive.Clock(res.ExpectedReturnAt.Time, c.opts.Location)
	}
	c.logger.Infof("%s accepted for worker %s asset %s", strings.ToLower(mode), req.WorkerQR, req.AssetQR)
	metrics.ScanTransactions.WithLabelValues(mode, model.OutcomeSuccess).Inc()
	c.record(ctx, mode, req, model.OutcomeSuccess, msg)

	for _, r := range c.opts.Invalidate {
		r.Reload()
	}

	return c.resolve(seq, func(s *State) {
		s.Status = StatusSuccess
		s.Message = msg
		s.SubMessage = sub
		s.WorkerCode = ""
		s.AssetCode = ""
		s.Focus = FocusWorker
	}, c.opts.SuccessDismiss), nil
}

// resolve applies a transaction outcome and arms its dismiss timer. A
// controller closed in the meantime keeps its state.
func (c *Controller) resolve(seq uint64, apply func(*State), dismissAfter time.Duration) State {
	c.mu.Lock()
	if c.closed || c.seq != seq {
		st := c.state
		c.mu.Unlock()
		return st
	}
	apply(&c.state)
	c.armDismissLocked(dismissAfter)
	st := c.state
	c.mu.Unlock()

	c.notify(st)
	return st
}

func (c *Controller) armDismissLocked(after time.Duration) {
	c.seq++
	seq := c.seq
	c.timer = time.AfterFunc(after, func() { c.dismiss(seq) })
}

func (c *Controller) dismiss(seq uint64) {
	c.mu.Lock()
	if c.closed || c.seq != seq {
		c.mu.Unlock()
		return
	}
	c.clearResultLocked()
	st := c.state
	c.mu.Unlock()

	c.notify(st)
}

// clearResultLocked returns to idle and drops any pending dismiss.
func (c *Controller) clearResultLocked() {
	c.cancelDismissLocked()
	c.state.Status = StatusIdle
	c.state.Message = ""
	c.state.SubMessage = ""
}

func (c *Controller) cancelDismissLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Recent returns the latest journal entries, newest first.
func (c *Controller) Recent(ctx context.Context) ([]model.ScanJournalEntry, error) {
	if c.journal == nil {
		return nil, nil
	}
	entries, err := c.journal.RecentScans(ctx, c.opts.JournalSize)
	if err != nil {
		return nil, fmt.Errorf("loading scan journal: %w", err)
	}
	return entries, nil
}

func (c *Controller) record(ctx context.Context, mode string, req model.ScanRequest, outcome, msg string) {
	if c.journal == nil {
		return
	}
	entry := &model.ScanJournalEntry{
		Mode:       mode,
		WorkerCode: req.WorkerQR,
		AssetCode:  req.AssetQR,
		Outcome:    outcome,
		Message:    msg,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.journal.RecordScan(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Errorf("failed to record scan journal entry: %v", err)
	}
}

// Close tears the controller down. Timers stop and late results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notify(st State) {
	c.mu.Lock()
	listeners := make([]func(State), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func successMessage(mode string, res *model.ScanResult) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	if mode == ModeReturn {
		return msgReturned
	}
	return msgCheckedOut
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
