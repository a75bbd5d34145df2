// Package derive turns server-reported payloads into presentation facts. Every
// function here is pure: same input, same output, no I/O and no clock reads.
package derive

import (
	"fmt"
	"strconv"
	"time"

	"toolroom-console/internal/model"
)

// Color classes shared by every badge and tag.
const (
	ColorRed     = "red"
	ColorAmber   = "amber"
	ColorBlue    = "blue"
	ColorGreen   = "green"
	ColorOrange  = "orange"
	ColorPurple  = "purple"
	ColorCyan    = "cyan"
	ColorSlate   = "slate"
	ColorNeutral = "neutral"
)

// Badge is a short label plus the color class it is drawn with.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Placeholder is shown for absent optional values.
const Placeholder = "—"

// Hours renders a duration in hours with exactly one decimal place.
func Hours(h float64) string {
	return strconv.FormatFloat(h, 'f', 1, 64) + "h"
}

// OverdueLabel is the status badge text of an active custody record. It trusts
// the server's is_overdue and overdue_hours and never recomputes them.
func OverdueLabel(r model.CustodyRecord) string {
	if !r.IsOverdue {
		return "IN CUSTODY"
	}
	var h float64
	if r.OverdueHours != nil {
		h = *r.OverdueHours
	}
	return "OVERDUE · " + Hours(h)
}

// OverdueBadge pairs OverdueLabel with its color.
func OverdueBadge(r model.CustodyRecord) Badge {
	if r.IsOverdue {
		return Badge{Label: OverdueLabel(r), Color: ColorRed}
	}
	return Badge{Label: OverdueLabel(r), Color: ColorAmber}
}

// TimeAgo buckets the time elapsed between t and now.
func TimeAgo(t, now time.Time) string {
	s := int64(now.Sub(t) / time.Second)
	switch {
	case s < 60:
		return "just now"
	case s < 3600:
		return fmt.Sprintf("%dm ago", s/60)
	case s < 86400:
		return fmt.Sprintf("%dh ago", s/3600)
	default:
		return fmt.Sprintf("%dd ago", s/86400)
	}
}

// Clock formats an instant as HH:MM in loc.
func Clock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}

// OptionalClock formats an optional instant, or the placeholder.
func OptionalClock(t *model.Timestamp, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return Clock(t.Time, loc)
}

// DayAndClock formats an instant as "02 Jan 15:04" in loc.
func DayAndClock(t *model.Timestamp, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.In(loc).Format("02 Jan 15:04")
}

// Date formats an optional instant as "02 Jan 2006" in loc.
func Date(t *model.Timestamp, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.In(loc).Format("02 Jan 2006")
}

// OrPlaceholder dereferences an optional string.
func OrPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}
