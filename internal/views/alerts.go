package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"toolroom-console/internal/apiclient"
	"toolroom-console/internal/derive"
	"toolroom-console/internal/metrics"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// ErrActionPending is returned when an alert already has an action in flight.
var ErrActionPending = errors.New("an action is already pending for this alert")

// Severity filter values.
const (
	SeverityAll = "ALL"

	compactRows    = 6
	compactMessage = 90
)

// SeverityFilters are the filter buttons of the alerts page in display order.
var SeverityFilters = []string{SeverityAll, model.SeverityCritical, model.SeverityWarning, model.SeverityInfo}

// Alert actions.
const (
	ActionAcknowledge = "acknowledge"
	ActionResolve     = "resolve"
)

// AlertActor performs alert transitions against the API of record.
type AlertActor interface {
	AcknowledgeAlert(ctx context.Context, id, workerID string) error
	ResolveAlert(ctx context.Context, id, workerID string, note *string) error
}

// AlertRow is one rendered alert.
type AlertRow struct {
	ID       string       `json:"id"`
	Severity derive.Badge `json:"severity"`
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Status   string       `json:"status"`
	Age      string       `json:"age"`
	Pending  bool         `json:"pending"`
}

// AlertsRender is the alerts feed as drawn.
type AlertsRender struct {
	State     RenderState `json:"state"`
	Compact   bool        `json:"compact"`
	Severity  string      `json:"severity"`
	Filters   []string    `json:"filters,omitempty"`
	Summary   string      `json:"summary"`
	Rows      []AlertRow  `json:"rows"`
	Notice    string      `json:"notice,omitempty"`
	EmptyText string      `json:"empty_text,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// AlertsOptions tunes an AlertsFeed.
type AlertsOptions struct {
	// Compact draws at most six rows with truncated messages, as on the dashboard.
	Compact    bool
	WorkerID   string
	NoticeTTL  time.Duration
	PendingTTL time.Duration
}

// AlertsFeed lists alerts and runs acknowledge/resolve. It never edits the list
// itself: after every action it reloads the alerts and summary pollers.
type AlertsFeed struct {
	source  poller.Source[[]model.Alert]
	actor   AlertActor
	refresh []Reloader
	opts    AlertsOptions
	logger  *zap.SugaredLogger

	// pending holds the ids of alerts with an action in flight. Entries expire
	// so a request that never returns cannot lock a row forever.
	pending *cache.Cache

	mu          sync.RWMutex
	severity    string
	notice      string
	noticeUntil time.Time
}

// NewAlertsFeed creates a feed. refresh lists the pollers to reload after an
// action, normally the alerts poller itself and the shared summary.
func NewAlertsFeed(source poller.Source[[]model.Alert], actor AlertActor, refresh []Reloader, opts AlertsOptions, logger *zap.SugaredLogger) *AlertsFeed {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 6 * time.Second
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 30 * time.Second
	}
	return &AlertsFeed{
		source:   source,
		actor:    actor,
		refresh:  refresh,
		opts:     opts,
		logger:   logger,
		pending:  cache.New(opts.PendingTTL, 2*opts.PendingTTL),
		severity: SeverityAll,
	}
}

// Update applies the severity filter.
func (v *AlertsFeed) Update(in Interaction) error {
	if in.Tab != nil || in.StateFilter != nil || in.Search != nil {
		return fmt.Errorf("%w: alerts feed only takes a severity", ErrInvalidInteraction)
	}
	if in.Severity == nil {
		return nil
	}
	switch *in.Severity {
	case SeverityAll, model.SeverityCritical, model.SeverityWarning, model.SeverityInfo:
	default:
		return fmt.Errorf("%w: severity %q", ErrInvalidInteraction, *in.Severity)
	}
	v.mu.Lock()
	v.severity = *in.Severity
	v.mu.Unlock()
	return nil
}

// Rows returns the alerts matching the severity filter in server order.
func (v *AlertsFeed) Rows() []model.Alert {
	v.mu.RLock()
	sev := v.severity
	v.mu.RUnlock()

	return bySeverity(v.source.Snapshot().Data, sev)
}

func bySeverity(all []model.Alert, sev string) []model.Alert {
	if sev == SeverityAll {
		return all
	}
	out := make([]model.Alert, 0, len(all))
	for _, a := range all {
		if a.Severity == sev {
			out = append(out, a)
		}
	}
	return out
}

// IsPending reports whether id has an action in flight.
func (v *AlertsFeed) IsPending(id string) bool {
	_, found := v.pending.Get(id)
	return found
}

// Acknowledge acknowledges one alert.
func (v *AlertsFeed) Acknowledge(ctx context.Context, id string) error {
	return v.act(ctx, id, ActionAcknowledge, func(ctx context.Context) error {
		return v.actor.AcknowledgeAlert(ctx, id, v.opts.WorkerID)
	})
}

// Resolve resolves one alert with an optional note.
func (v *AlertsFeed) Resolve(ctx context.Context, id string, note *string) error {
	return v.act(ctx, id, ActionResolve, func(ctx context.Context) error {
		return v.actor.ResolveAlert(ctx, id, v.opts.WorkerID, note)
	})
}

func (v *AlertsFeed) act(ctx context.Context, id, action string, call func(context.Context) error) error {
	if err := v.pending.Add(id, action, cache.DefaultExpiration); err != nil {
		return ErrActionPending
	}

	err := call(ctx)
	v.pending.Delete(id)
	metrics.AlertActions.WithLabelValues(action, metrics.Outcome(err)).Inc()

	if err != nil {
		msg := apiclient.DetailMessage(err, "Action failed")
		v.logger.Warnf("alert %s %s rejected: %s", id, action, msg)
		v.mu.Lock()
		v.notice = msg
		v.noticeUntil = time.Now().Add(v.opts.NoticeTTL)
		v.mu.Unlock()
	} else {
		v.logger.Infof("alert %s %sd", id, action)
	}

	// The server's view is refreshed either way: a rejection is often a
	// transition somebody else already made.
	v.reload(ctx)
	return err
}

func (v *AlertsFeed) reload(ctx context.Context) {
	pending := make([]<-chan struct{}, 0, len(v.refresh))
	for _, r := range v.refresh {
		pending = append(pending, r.Reload())
	}
	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// Notice returns the rejection message while it is still on screen.
func (v *AlertsFeed) Notice(now time.Time) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.notice == "" || !now.Before(v.noticeUntil) {
		return ""
	}
	return v.notice
}

// Render draws the feed.
func (v *AlertsFeed) Render(now time.Time) any {
	v.mu.RLock()
	sev := v.severity
	v.mu.RUnlock()

	snap := v.source.Snapshot()
	alerts := bySeverity(snap.Data, sev)

	out := AlertsRender{
		State:    Classify(snap.Loading, len(alerts)),
		Compact:  v.opts.Compact,
		Severity: sev,
		Summary:  openAlertsText(len(snap.Data)),
		Notice:   v.Notice(now),
		Error:    snap.Error,
	}
	if !v.opts.Compact {
		out.Filters = SeverityFilters
	}
	if out.State == Empty {
		out.EmptyText = "No alerts in this category"
		if v.opts.Compact {
			out.EmptyText = "No active alerts, all clear"
		}
	}

	if v.opts.Compact && len(alerts) > compactRows {
		alerts = alerts[:compactRows]
	}
	out.Rows = make([]AlertRow, 0, len(alerts))
	for _, a := range alerts {
		msg := a.Message
		if v.opts.Compact {
			msg = truncate(msg, compactMessage)
		}
		out.Rows = append(out.Rows, AlertRow{
			ID:       a.ID,
			Severity: derive.SeverityBadge(a.Severity),
			Type:     a.AlertType,
			Title:    a.Title,
			Message:  msg,
			Status:   a.Status,
			Age:      derive.TimeAgo(a.CreatedAt.Time, now),
			Pending:  v.IsPending(a.ID),
		})
	}
	return out
}

func openAlertsText(n int) string {
	if n == 1 {
		return "1 open alert"
	}
	return fmt.Sprintf("%d open alerts", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
