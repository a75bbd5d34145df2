package views

import (
	"fmt"
	"sync"
	"time"

	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// HistoryDisplayLimit caps the rows drawn by the history table.
const HistoryDisplayLimit = 100

// HistoryRow is one rendered custody history line.
type HistoryRow struct {
	ID            string       `json:"id"`
	Event         derive.Badge `json:"event"`
	Worker        string       `json:"worker"`
	Asset         string       `json:"asset"`
	CheckedOut    string       `json:"checked_out"`
	Returned      string       `json:"returned"`
	ReturnedColor string       `json:"returned_color"`
	Overdue       string       `json:"overdue"`
}

// HistoryRender is the history table as drawn.
type HistoryRender struct {
	State     RenderState  `json:"state"`
	Search    string       `json:"search"`
	Total     int          `json:"total"`
	Rows      []HistoryRow `json:"rows"`
	EmptyText string       `json:"empty_text,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// HistoryTable lists past and current custody events.
type HistoryTable struct {
	source poller.Source[[]model.HistoryRecord]
	loc    *time.Location

	mu     sync.RWMutex
	search string
}

// NewHistoryTable creates a table over the custody history poller.
func NewHistoryTable(source poller.Source[[]model.HistoryRecord], loc *time.Location) *HistoryTable {
	return &HistoryTable{source: source, loc: loc}
}

// SetSearch replaces the free-text search.
func (v *HistoryTable) SetSearch(q string) {
	v.mu.Lock()
	v.search = q
	v.mu.Unlock()
}

// Update applies the search field.
func (v *HistoryTable) Update(in Interaction) error {
	if in.Tab != nil || in.Severity != nil || in.StateFilter != nil {
		return fmt.Errorf("%w: history table only takes a search", ErrInvalidInteraction)
	}
	if in.Search != nil {
		v.SetSearch(*in.Search)
	}
	return nil
}

// Rows returns every record matching the search, without the display cap.
func (v *HistoryTable) Rows() []model.HistoryRecord {
	v.mu.RLock()
	q := v.search
	v.mu.RUnlock()

	return historyMatches(v.source.Snapshot().Data, q)
}

func historyMatches(data []model.HistoryRecord, q string) []model.HistoryRecord {
	return Filter(data, q, func(r model.HistoryRecord) []string {
		return []string{deref(r.Worker), deref(r.Asset), deref(r.AssetName)}
	})
}

// Loaded reports whether the history has been fetched at least once.
func (v *HistoryTable) Loaded() bool {
	return v.source.Snapshot().HasData
}

// Location is the zone rows are formatted in.
func (v *HistoryTable) Location() *time.Location {
	return v.loc
}

// Render draws the table.
func (v *HistoryTable) Render(time.Time) any {
	return v.render()
}

func (v *HistoryTable) render() HistoryRender {
	v.mu.RLock()
	q := v.search
	v.mu.RUnlock()

	snap := v.source.Snapshot()
	records := historyMatches(snap.Data, q)

	out := HistoryRender{
		State:  Classify(snap.Loading, len(records)),
		Search: q,
		Total:  len(records),
		Error:  snap.Error,
	}
	if out.State == Empty {
		out.EmptyText = "No records found"
	}
	if len(records) > HistoryDisplayLimit {
		records = records[:HistoryDisplayLimit]
	}

	out.Rows = make([]HistoryRow, 0, len(records))
	for _, r := range records {
		out.Rows = append(out.Rows, HistoryRowOf(r, v.loc))
	}
	return out
}

// HistoryRowOf formats one history record.
func HistoryRowOf(r model.HistoryRecord, loc *time.Location) HistoryRow {
	row := HistoryRow{
		ID:            r.ID,
		Event:         derive.Badge{Label: r.EventType, Color: derive.ColorBlue},
		Worker:        derive.OrPlaceholder(r.Worker),
		Asset:         derive.OrPlaceholder(r.AssetName),
		CheckedOut:    derive.DayAndClock(r.CheckedOutAt, loc),
		Returned:      "Not returned",
		ReturnedColor: derive.ColorAmber,
		Overdue:       derive.Placeholder,
	}
	if row.Asset == derive.Placeholder {
		row.Asset = derive.OrPlaceholder(r.Asset)
	}
	if r.ReturnedAt != nil && !r.ReturnedAt.IsZero() {
		row.Returned = derive.Clock(r.ReturnedAt.Time, loc)
		row.ReturnedColor = derive.ColorGreen
	}
	if r.IsOverdue {
		var h float64
		if r.OverdueHours != nil {
			h = *r.OverdueHours
		}
		row.Overdue = derive.Hours(h)
	}
	return row
}
