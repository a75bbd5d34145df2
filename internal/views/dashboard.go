package views

import (
	"fmt"
	"time"

	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// DashboardRender is the dashboard as drawn.
type DashboardRender struct {
	State             RenderState       `json:"state"`
	Cards             []derive.StatCard `json:"cards,omitempty"`
	CalibrationNotice string            `json:"calibration_notice,omitempty"`
	Custody           CustodyRender     `json:"custody"`
	Alerts            AlertsRender      `json:"alerts"`
	Error             string            `json:"error,omitempty"`
}

// Dashboard is the landing page: KPIs, a compact custody table and a compact
// alerts feed. The critical banner belongs to the shell.
type Dashboard struct {
	summary poller.Source[model.SummaryMetrics]
	Custody *CustodyTable
	Alerts  *AlertsFeed
}

// NewDashboard composes the dashboard. alerts should be a compact feed.
func NewDashboard(summary poller.Source[model.SummaryMetrics], custody *CustodyTable, alerts *AlertsFeed) *Dashboard {
	return &Dashboard{summary: summary, Custody: custody, Alerts: alerts}
}

// Update routes the search to the custody table.
func (v *Dashboard) Update(in Interaction) error {
	if in.Tab != nil || in.StateFilter != nil || in.Severity != nil {
		return fmt.Errorf("%w: dashboard only takes a search", ErrInvalidInteraction)
	}
	return v.Custody.Update(in)
}

// Render draws the dashboard.
func (v *Dashboard) Render(now time.Time) any {
	snap := v.summary.Snapshot()
	out := DashboardRender{
		State:   Loading,
		Custody: v.Custody.render(),
		Alerts:  v.Alerts.Render(now).(AlertsRender),
		Error:   snap.Error,
	}
	if !snap.HasData {
		if !snap.Loading {
			out.State = Empty
		}
		return out
	}

	out.State = Populated
	out.Cards = derive.StatCards(snap.Data)
	out.CalibrationNotice = derive.CalibrationNotice(snap.Data)
	return out
}
