package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"toolroom-console/config"
	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
	"toolroom-console/internal/scan"
	"toolroom-console/internal/views"
)

var (
	// ErrUnknownPage is returned when navigating to a page that does not exist.
	ErrUnknownPage = errors.New("unknown page")
	// ErrNotOnPage is returned when an action needs a page that is not mounted.
	ErrNotOnPage = errors.New("action not available on the current page")
	// ErrNotStarted is returned before Start or after Stop.
	ErrNotStarted = errors.New("console shell is not running")
)

// API is everything the console reads from and writes to the API of record.
type API interface {
	views.AlertActor
	scan.Transactor
	Summary(ctx context.Context) (model.SummaryMetrics, error)
	ActiveCustody(ctx context.Context) ([]model.CustodyRecord, error)
	Alerts(ctx context.Context, status string, limit int) ([]model.Alert, error)
	Assets(ctx context.Context, limit int) ([]model.Asset, error)
	Kits(ctx context.Context) ([]model.Kit, error)
	Workers(ctx context.Context) ([]model.Worker, error)
	History(ctx context.Context, limit int) ([]model.HistoryRecord, error)
}

// Event types.
const (
	EventResource = "resource"
	EventScan     = "scan"
	EventNavigate = "navigate"
)

// Event tells live clients that something on screen changed.
type Event struct {
	Type     string      `json:"type"`
	Page     string      `json:"page"`
	Resource string      `json:"resource,omitempty"`
	Scan     *scan.State `json:"scan,omitempty"`
	At       time.Time   `json:"at"`
}

// Broadcaster fans events out to live clients.
type Broadcaster interface {
	Broadcast(ev Event)
}

// NavLink is one sidebar entry as drawn.
type NavLink struct {
	PageInfo
	Active bool                 `json:"active"`
	Badge  *derive.SidebarBadge `json:"badge,omitempty"`
}

// Render is the whole console frame: sidebar, banner and the mounted page.
type Render struct {
	Page   string        `json:"page"`
	Nav    []NavLink     `json:"nav"`
	Banner derive.Banner `json:"banner"`
	Body   any           `json:"body"`
	At     time.Time     `json:"at"`
}

// Shell mounts exactly one page at a time and owns the shared summary poller.
type Shell struct {
	api         API
	journal     scan.Journal
	cfg         *config.Config
	broadcaster Broadcaster
	logger      *zap.SugaredLogger

	summary *poller.Poller[model.SummaryMetrics]

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	current *mounted
}

// New creates a shell. journal and broadcaster may be nil.
func New(api API, journal scan.Journal, cfg *config.Config, broadcaster Broadcaster, logger *zap.SugaredLogger) *Shell {
	s := &Shell{
		api:         api,
		journal:     journal,
		cfg:         cfg,
		broadcaster: broadcaster,
		logger:      logger,
	}
	s.summary = poller.New("shell.summary", api.Summary, config.Every(cfg.Polling.ShellSummaryMs), logger)
	s.summary.OnChange(func(name string) {
		s.emit(Event{Type: EventResource, Resource: name})
	})
	return s
}

// Start begins the shared summary poll and mounts the dashboard.
func (s *Shell) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.summary.Start(s.ctx)
	return s.Navigate(PageDashboard)
}

// Stop tears down the mounted page and the shared summary.
func (s *Shell) Stop() {
	s.mu.Lock()
	cur := s.current
	cancel := s.cancel
	s.current = nil
	s.mu.Unlock()

	if cur != nil {
		cur.teardown()
	}
	s.summary.Stop()
	if cancel != nil {
		cancel()
	}
}

// Page returns the mounted page id, or "" before Start.
func (s *Shell) Page() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.page
}

// Navigate unmounts the current page and mounts page. Navigating to the page
// already on screen remounts it.
func (s *Shell) Navigate(page string) error {
	if !knownPage(page) {
		return fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrNotStarted
	}

	next, err := s.build(page)
	if err != nil {
		return err
	}
	next.pollers.OnChange(func(name string) {
		s.emit(Event{Type: EventResource, Page: page, Resource: name})
	})

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if prev != nil {
		prev.teardown()
	}
	next.pollers.Start(ctx)

	s.logger.Infof("mounted page %s", page)
	s.emit(Event{Type: EventNavigate, Page: page})
	return nil
}

// Reload refreshes every poller of the mounted page plus the shared summary.
// The channel closes once all of them have resolved.
func (s *Shell) Reload() <-chan struct{} {
	g := poller.Group{s.summary}
	if cur := s.mounted(); cur != nil {
		g = append(g, cur.pollers...)
	}
	return g.Reload()
}

// UpdatePage applies a view interaction to the mounted page.
func (s *Shell) UpdatePage(in views.Interaction) error {
	cur := s.mounted()
	if cur == nil {
		return ErrNotStarted
	}
	return cur.view.Update(in)
}

// Acknowledge acknowledges an alert from whichever alerts feed is on screen.
func (s *Shell) Acknowledge(ctx context.Context, id string) error {
	feed, err := s.alertsFeed()
	if err != nil {
		return err
	}
	return feed.Acknowledge(ctx, id)
}

// Resolve resolves an alert from whichever alerts feed is on screen.
func (s *Shell) Resolve(ctx context.Context, id string, note *string) error {
	feed, err := s.alertsFeed()
	if err != nil {
		return err
	}
	return feed.Resolve(ctx, id, note)
}

func (s *Shell) alertsFeed() (*views.AlertsFeed, error) {
	cur := s.mounted()
	if cur == nil {
		return nil, ErrNotStarted
	}
	if cur.alerts == nil {
		return nil, fmt.Errorf("%w: no alerts on %s", ErrNotOnPage, cur.page)
	}
	return cur.alerts, nil
}

// Scan returns the scan station controller while the scan page is mounted.
func (s *Shell) Scan() (*scan.Controller, error) {
	cur := s.mounted()
	if cur == nil {
		return nil, ErrNotStarted
	}
	if cur.scan == nil {
		return nil, fmt.Errorf("%w: scan station is not open", ErrNotOnPage)
	}
	return cur.scan, nil
}

// HistoryRows returns the custody history to export. On the custody page these
// are the rows matching the current search, uncapped; elsewhere the history is
// fetched once.
func (s *Shell) HistoryRows(ctx context.Context) ([]model.HistoryRecord, error) {
	if cur := s.mounted(); cur != nil && cur.history != nil && cur.history.Loaded() {
		return cur.history.Rows(), nil
	}
	return s.api.History(ctx, s.cfg.API.HistoryLimit)
}

// Location is the zone timestamps are displayed in.
func (s *Shell) Location() *time.Location {
	return s.cfg.Display.Location
}

// Summary is the shared summary cell.
func (s *Shell) Summary() poller.State[model.SummaryMetrics] {
	return s.summary.Snapshot()
}

// Render draws the whole frame.
func (s *Shell) Render(now time.Time) Render {
	cur := s.mounted()
	out := Render{At: now}

	summary := s.summary.Snapshot()
	var badge derive.SidebarBadge
	if summary.HasData {
		out.Banner = derive.CriticalBanner(summary.Data)
		badge = derive.AlertsBadge(summary.Data)
	}

	if cur != nil {
		out.Page = cur.page
		out.Body = cur.view.Render(now)
	}

	out.Nav = make([]NavLink, 0, len(Pages))
	for _, p := range Pages {
		link := NavLink{PageInfo: p, Active: p.ID == out.Page}
		if p.ID == PageAlerts && badge.Visible {
			b := badge
			link.Badge = &b
		}
		out.Nav = append(out.Nav, link)
	}
	return out
}

func (s *Shell) mounted() *mounted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Shell) emit(ev Event) {
	if s.broadcaster == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.broadcaster.Broadcast(ev)
}
