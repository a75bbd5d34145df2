package derive

import (
	"fmt"
	"strconv"
	"strings"

	"toolroom-console/internal/model"
)

// IsCriticalBannerVisible reports whether the dashboard critical banner shows.
func IsCriticalBannerVisible(s model.SummaryMetrics) bool {
	return s.CriticalAlerts > 0
}

// CriticalBannerText is the banner headline.
func CriticalBannerText(s model.SummaryMetrics) string {
	plural := ""
	if s.CriticalAlerts > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d Critical Alert%s Require Immediate Attention", s.CriticalAlerts, plural)
}

// Banner is the dashboard critical banner.
type Banner struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// CriticalBanner builds the banner from the summary.
func CriticalBanner(s model.SummaryMetrics) Banner {
	if !IsCriticalBannerVisible(s) {
		return Banner{}
	}
	return Banner{
		Visible: true,
		Title:   CriticalBannerText(s),
		Detail:  "Overdue tools or expired calibration, action required now",
	}
}

// SidebarBadge is the counter next to the Alerts page in the sidebar.
type SidebarBadge struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text,omitempty"`
	Color   string `json:"color,omitempty"`
}

// AlertsBadge shows open_alerts when positive, red if any are critical.
func AlertsBadge(s model.SummaryMetrics) SidebarBadge {
	if s.OpenAlerts <= 0 {
		return SidebarBadge{}
	}
	color := ColorAmber
	if s.CriticalAlerts > 0 {
		color = ColorRed
	}
	return SidebarBadge{Visible: true, Text: strconv.Itoa(s.OpenAlerts), Color: color}
}

// StatCard is one KPI tile on the dashboard.
type StatCard struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Sub   string `json:"sub,omitempty"`
	Color string `json:"color"`
}

// StatCards lays out the dashboard KPI tiles.
func StatCards(s model.SummaryMetrics) []StatCard {
	overdueSub := "All on time"
	if s.Overdue > 0 {
		overdueSub = "Needs action"
	}
	alertColor, alertSub := ColorAmber, "No critical"
	if s.CriticalAlerts > 0 {
		alertColor, alertSub = ColorRed, fmt.Sprintf("%d critical", s.CriticalAlerts)
	}

	return []StatCard{
		{Label: "Total Assets", Value: s.TotalAssets, Color: ColorBlue},
		{Label: "Available", Value: s.Available, Color: ColorGreen},
		{Label: "In Custody", Value: s.InCustody, Sub: fmt.Sprintf("%d kits", s.KitsInCustody), Color: ColorAmber},
		{Label: "Overdue", Value: s.Overdue, Sub: overdueSub, Color: ColorRed},
		{Label: "Open Alerts", Value: s.OpenAlerts, Sub: alertSub, Color: alertColor},
		{Label: "Workers Today", Value: s.ActiveWorkersToday, Color: ColorPurple},
	}
}

// CalibrationNotice summarises calibration debt; empty when there is none.
func CalibrationNotice(s model.SummaryMetrics) string {
	var parts []string
	if s.CalibrationOverdue > 0 {
		plural := ""
		if s.CalibrationOverdue > 1 {
			plural = "s"
		}
		parts = append(parts, fmt.Sprintf("%d asset%s with expired calibration", s.CalibrationOverdue, plural))
	}
	if s.CalibrationDueSoon > 0 {
		parts = append(parts, fmt.Sprintf("%d due within 30 days", s.CalibrationDueSoon))
	}
	return strings.Join(parts, " · ")
}
