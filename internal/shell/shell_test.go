package shell

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolroom-console/config"
	"toolroom-console/internal/derive"
	"toolroom-console/internal/logger"
	"toolroom-console/internal/model"
	"toolroom-console/internal/scan"
	"toolroom-console/internal/views"
)

// fakeAPI serves fixed data and counts calls per operation.
type fakeAPI struct {
	mu      sync.Mutex
	calls   map[string]int
	summary model.SummaryMetrics
	history []model.HistoryRecord
	alerts  []model.Alert
	acked   []string
}

func newFakeAPI() *fakeAPI {
	w1, w2 := "Ravi Kumar", "Anita Desai"
	a1, a2 := "TL-0001", "TL-0002"
	return &fakeAPI{
		calls:   map[string]int{},
		summary: model.SummaryMetrics{TotalAssets: 40, OpenAlerts: 3, CriticalAlerts: 1},
		history: []model.HistoryRecord{
			{ID: "h1", Worker: &w1, Asset: &a1},
			{ID: "h2", Worker: &w2, Asset: &a2},
		},
		alerts: []model.Alert{{ID: "al-1", Severity: model.SeverityCritical, Title: "Overdue", Status: model.AlertOpen}},
	}
}

func (f *fakeAPI) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) Summary(context.Context) (model.SummaryMetrics, error) {
	f.hit("summary")
	return f.summary, nil
}

func (f *fakeAPI) ActiveCustody(context.Context) ([]model.CustodyRecord, error) {
	f.hit("custody")
	return []model.CustodyRecord{}, nil
}

func (f *fakeAPI) Alerts(context.Context, string, int) ([]model.Alert, error) {
	f.hit("alerts")
	return f.alerts, nil
}

func (f *fakeAPI) Assets(context.Context, int) ([]model.Asset, error) {
	f.hit("assets")
	return []model.Asset{}, nil
}

func (f *fakeAPI) Kits(context.Context) ([]model.Kit, error) {
	f.hit("kits")
	return []model.Kit{}, nil
}

func (f *fakeAPI) Workers(context.Context) ([]model.Worker, error) {
	f.hit("workers")
	return []model.Worker{}, nil
}

func (f *fakeAPI) History(context.Context, int) ([]model.HistoryRecord, error) {
	f.hit("history")
	return f.history, nil
}

func (f *fakeAPI) Checkout(context.Context, model.ScanRequest) (*model.ScanResult, error) {
	f.hit("checkout")
	return &model.ScanResult{Success: true, Asset: "Torque Wrench"}, nil
}

func (f *fakeAPI) Return(context.Context, model.ScanRequest) (*model.ScanResult, error) {
	f.hit("return")
	return &model.ScanResult{Success: true, Message: "Returned"}, nil
}

func (f *fakeAPI) AcknowledgeAlert(_ context.Context, id, _ string) error {
	f.hit("acknowledge")
	f.mu.Lock()
	f.acked = append(f.acked, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) ResolveAlert(context.Context, string, string, *string) error {
	f.hit("resolve")
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Broadcast(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) has(typ, page string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Type == typ && ev.Page == page {
			return true
		}
	}
	return false
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	require.NoError(t, cfg.ApplyDefaults())
	// Timers never fire during a test; only the mount fetch and reloads run.
	p := &cfg.Polling
	for _, ms := range []*int{&p.ShellSummaryMs, &p.DashboardSummaryMs, &p.DashboardCustodyMs,
		&p.DashboardAlertsMs, &p.ActiveCustodyMs, &p.HistoryMs, &p.AlertsMs, &p.InventoryMs, &p.WorkersMs} {
		*ms = int(time.Hour / time.Millisecond)
	}
	cfg.Display.Location = time.UTC
	return cfg
}

func startShell(t *testing.T) (*Shell, *fakeAPI, *recorder) {
	t.Helper()
	api := newFakeAPI()
	rec := &recorder{}
	s := New(api, nil, testConfig(t), rec, logger.Nop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	// Shared summary plus the dashboard's own mount fetches.
	eventually(t, func() bool {
		return api.count("summary") == 2 && api.count("custody") == 1 && api.count("alerts") == 1
	})
	return s, api, rec
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestShell_StartMountsDashboard(t *testing.T) {
	s, _, rec := startShell(t)

	assert.Equal(t, PageDashboard, s.Page())
	eventually(t, func() bool { return s.Summary().HasData })
	assert.True(t, rec.has(EventNavigate, PageDashboard))

	frame := s.Render(time.Now())
	assert.Equal(t, PageDashboard, frame.Page)
	assert.True(t, frame.Banner.Visible)
	assert.Equal(t, "1 Critical Alert Require Immediate Attention", frame.Banner.Title)
	require.Len(t, frame.Nav, len(Pages))
	for _, link := range frame.Nav {
		assert.Equal(t, link.ID == PageDashboard, link.Active, link.ID)
		if link.ID == PageAlerts {
			require.NotNil(t, link.Badge)
			assert.Equal(t, derive.SidebarBadge{Visible: true, Text: "3", Color: derive.ColorRed}, *link.Badge)
		} else {
			assert.Nil(t, link.Badge)
		}
	}
	_, ok := frame.Body.(views.DashboardRender)
	assert.True(t, ok)
}

func TestShell_NavigateUnknownPage(t *testing.T) {
	s, _, _ := startShell(t)

	err := s.Navigate("reports")
	assert.ErrorIs(t, err, ErrUnknownPage)
	assert.Equal(t, PageDashboard, s.Page())
}

func TestShell_NavigateTearsDownPreviousPage(t *testing.T) {
	s, api, _ := startShell(t)

	require.NoError(t, s.Navigate(PageWorkers))
	eventually(t, func() bool { return api.count("workers") == 1 })

	summaryBefore := api.count("summary")
	<-s.Reload()

	assert.Equal(t, 2, api.count("workers"))
	assert.Equal(t, summaryBefore+1, api.count("summary"))
	assert.Equal(t, 1, api.count("custody"), "dashboard pollers are gone")
	assert.Equal(t, 1, api.count("alerts"))
}

func TestShell_AlertActionsNeedAnAlertsFeed(t *testing.T) {
	s, api, _ := startShell(t)

	require.NoError(t, s.Navigate(PageWorkers))
	assert.ErrorIs(t, s.Acknowledge(context.Background(), "al-1"), ErrNotOnPage)

	require.NoError(t, s.Navigate(PageAlerts))
	eventually(t, func() bool { return api.count("alerts") == 2 })
	alertsBefore := api.count("alerts")
	summaryBefore := api.count("summary")

	require.NoError(t, s.Acknowledge(context.Background(), "al-1"))
	assert.Equal(t, []string{"al-1"}, api.acked)
	assert.Equal(t, alertsBefore+1, api.count("alerts"))
	assert.Equal(t, summaryBefore+1, api.count("summary"))
}

func TestShell_ScanOnlyOnScanPage(t *testing.T) {
	s, api, rec := startShell(t)

	_, err := s.Scan()
	assert.ErrorIs(t, err, ErrNotOnPage)

	require.NoError(t, s.Navigate(PageScan))
	ctl, err := s.Scan()
	require.NoError(t, err)

	err = s.UpdatePage(views.Interaction{})
	assert.True(t, errors.Is(err, views.ErrInvalidInteraction))

	worker, asset := "WRK-0001", "TL-0042"
	require.NoError(t, ctl.Update(scan.Input{WorkerCode: &worker, AssetCode: &asset}))
	summaryBefore := api.count("summary")

	st, err := ctl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scan.StatusSuccess, st.Status)
	assert.Equal(t, 1, api.count("checkout"))
	eventually(t, func() bool { return api.count("summary") > summaryBefore })
	eventually(t, func() bool { return rec.has(EventScan, PageScan) })

	body, ok := s.Render(time.Now()).Body.(ScanRender)
	require.True(t, ok)
	assert.Equal(t, scan.StatusSuccess, body.Card.Status)

	require.NoError(t, s.Navigate(PageDashboard))
	_, err = ctl.Submit(context.Background())
	assert.ErrorIs(t, err, scan.ErrClosed)
}

func TestShell_HistoryRows(t *testing.T) {
	s, api, _ := startShell(t)

	rows, err := s.HistoryRows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, api.count("history"))

	require.NoError(t, s.Navigate(PageCustody))
	eventually(t, func() bool { return api.count("history") == 2 })

	tab, q := views.TabHistory, "anita"
	require.NoError(t, s.UpdatePage(views.Interaction{Tab: &tab}))
	require.NoError(t, s.UpdatePage(views.Interaction{Search: &q}))

	eventually(t, func() bool {
		rows, err := s.HistoryRows(context.Background())
		return err == nil && len(rows) == 1 && rows[0].ID == "h2"
	})
	assert.Equal(t, 2, api.count("history"), "the mounted history is exported without a refetch")
}

func TestShell_StopRejectsNavigation(t *testing.T) {
	s, _, _ := startShell(t)
	s.Stop()

	assert.Equal(t, "", s.Page())
	assert.ErrorIs(t, s.Navigate(PageAlerts), ErrNotStarted)
	assert.ErrorIs(t, s.UpdatePage(views.Interaction{}), ErrNotStarted)
}
