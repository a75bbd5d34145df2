package shell

import (
	"context"
	"fmt"
	"time"

	"toolroom-console/config"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
	"toolroom-console/internal/scan"
	"toolroom-console/internal/views"
)

// Page identifiers.
const (
	PageDashboard = "dashboard"
	PageScan      = "scan"
	PageCustody   = "custody"
	PageAssets    = "assets"
	PageWorkers   = "workers"
	PageAlerts    = "alerts"
)

// PageInfo is one sidebar entry.
type PageInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Pages lists the console pages in sidebar order.
var Pages = []PageInfo{
	{ID: PageDashboard, Label: "Dashboard"},
	{ID: PageScan, Label: "Scan Station"},
	{ID: PageCustody, Label: "Custody Log"},
	{ID: PageAssets, Label: "Assets & Kits"},
	{ID: PageWorkers, Label: "Workers"},
	{ID: PageAlerts, Label: "Alerts"},
}

func knownPage(id string) bool {
	for _, p := range Pages {
		if p.ID == id {
			return true
		}
	}
	return false
}

// mounted is the page currently on screen together with everything it owns.
type mounted struct {
	page    string
	pollers poller.Group
	view    views.View

	alerts  *views.AlertsFeed
	history *views.HistoryTable
	scan    *scan.Controller
}

func (m *mounted) teardown() {
	m.pollers.Stop()
	if m.scan != nil {
		m.scan.Close()
	}
}

// build creates a page and its pollers. Nothing is started yet.
func (s *Shell) build(page string) (*mounted, error) {
	cfg := s.cfg
	every := config.Every
	loc := cfg.Display.Location
	m := &mounted{page: page}

	alertsFetch := func(ctx context.Context) ([]model.Alert, error) {
		return s.api.Alerts(ctx, cfg.API.AlertsStatus, cfg.API.AlertsLimit)
	}
	feedOpts := func(compact bool) views.AlertsOptions {
		return views.AlertsOptions{
			Compact:   compact,
			WorkerID:  cfg.API.StationWorkerID,
			NoticeTTL: every(cfg.Console.NoticeDismissMs),
		}
	}

	switch page {
	case PageDashboard:
		summary := poller.New(page+".summary", s.api.Summary, every(cfg.Polling.DashboardSummaryMs), s.logger)
		custody := poller.New(page+".custody", s.api.ActiveCustody, every(cfg.Polling.DashboardCustodyMs), s.logger)
		alerts := poller.New(page+".alerts", alertsFetch, every(cfg.Polling.DashboardAlertsMs), s.logger)

		m.alerts = views.NewAlertsFeed(alerts, s.api, []views.Reloader{alerts, summary, s.summary}, feedOpts(true), s.logger)
		m.view = views.NewDashboard(summary, views.NewCustodyTable(custody, loc), m.alerts)
		m.pollers = poller.Group{summary, custody, alerts}

	case PageScan:
		m.scan = scan.NewController(s.api, s.journal, scan.Options{
			SuccessDismiss: every(cfg.Console.SuccessDismissMs),
			ErrorDismiss:   every(cfg.Console.ErrorDismissMs),
			Location:       loc,
			Invalidate:     []scan.Reloader{s.summary},
			JournalSize:    cfg.Console.JournalSize,
		}, s.logger)
		m.scan.OnChange(func(st scan.State) {
			s.emit(Event{Type: EventScan, Page: PageScan, Scan: &st})
		})
		m.view = &scanView{ctl: m.scan, reference: cfg.Console.QuickReference}

	case PageCustody:
		active := poller.New(page+".active", s.api.ActiveCustody, every(cfg.Polling.ActiveCustodyMs), s.logger)
		history := poller.New(page+".history", func(ctx context.Context) ([]model.HistoryRecord, error) {
			return s.api.History(ctx, cfg.API.HistoryLimit)
		}, every(cfg.Polling.HistoryMs), s.logger)

		m.history = views.NewHistoryTable(history, loc)
		m.view = views.NewCustodyLog(views.NewCustodyTable(active, loc), m.history)
		m.pollers = poller.Group{active, history}

	case PageAssets:
		assets := poller.New(page+".assets", func(ctx context.Context) ([]model.Asset, error) {
			return s.api.Assets(ctx, cfg.API.AssetsLimit)
		}, every(cfg.Polling.InventoryMs), s.logger)
		kits := poller.New(page+".kits", s.api.Kits, every(cfg.Polling.InventoryMs), s.logger)

		m.view = views.NewInventory(assets, kits, loc)
		m.pollers = poller.Group{assets, kits}

	case PageWorkers:
		workers := poller.New(page+".workers", s.api.Workers, every(cfg.Polling.WorkersMs), s.logger)

		m.view = views.NewWorkerDirectory(workers)
		m.pollers = poller.Group{workers}

	case PageAlerts:
		alerts := poller.New(page+".alerts", alertsFetch, every(cfg.Polling.AlertsMs), s.logger)

		m.alerts = views.NewAlertsFeed(alerts, s.api, []views.Reloader{alerts, s.summary}, feedOpts(false), s.logger)
		m.view = m.alerts
		m.pollers = poller.Group{alerts}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
	return m, nil
}

// ScanRender is the scan station page as drawn.
type ScanRender struct {
	Card      scan.State               `json:"card"`
	Reference []config.QuickReference  `json:"reference"`
	Recent    []model.ScanJournalEntry `json:"recent"`
	Error     string                   `json:"error,omitempty"`
}

// scanView adapts the scan controller to the page interface. The card is edited
// through the controller, never through Update.
type scanView struct {
	ctl       *scan.Controller
	reference []config.QuickReference
}

func (v *scanView) Update(views.Interaction) error {
	return fmt.Errorf("%w: the scan station has no list state", views.ErrInvalidInteraction)
}

func (v *scanView) Render(time.Time) any {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := ScanRender{Card: v.ctl.Snapshot(), Reference: v.reference}
	recent, err := v.ctl.Recent(ctx)
	if err != nil {
		out.Error = err.Error()
	}
	out.Recent = recent
	return out
}
