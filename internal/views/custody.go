package views

import (
	"fmt"
	"sync"
	"time"

	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// CustodyRow is one rendered line of the active custody table.
type CustodyRow struct {
	ID         string       `json:"id"`
	Worker     string       `json:"worker"`
	EmployeeID string       `json:"employee_id"`
	Asset      string       `json:"asset"`
	AssetCode  string       `json:"asset_code"`
	IsKit      bool         `json:"is_kit"`
	CheckedOut string       `json:"checked_out"`
	DueBack    string       `json:"due_back"`
	Overdue    bool         `json:"overdue"`
	Status     derive.Badge `json:"status"`
}

// CustodyRender is the active custody table as drawn.
type CustodyRender struct {
	State     RenderState  `json:"state"`
	Search    string       `json:"search"`
	Rows      []CustodyRow `json:"rows"`
	EmptyText string       `json:"empty_text,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// CustodyTable lists everything currently checked out.
type CustodyTable struct {
	source poller.Source[[]model.CustodyRecord]
	loc    *time.Location

	mu     sync.RWMutex
	search string
}

// NewCustodyTable creates a table over the active custody poller.
func NewCustodyTable(source poller.Source[[]model.CustodyRecord], loc *time.Location) *CustodyTable {
	return &CustodyTable{source: source, loc: loc}
}

// SetSearch replaces the free-text search.
func (v *CustodyTable) SetSearch(q string) {
	v.mu.Lock()
	v.search = q
	v.mu.Unlock()
}

// Update applies the search field; nothing else applies to this table.
func (v *CustodyTable) Update(in Interaction) error {
	if in.Tab != nil || in.Severity != nil || in.StateFilter != nil {
		return fmt.Errorf("%w: custody table only takes a search", ErrInvalidInteraction)
	}
	if in.Search != nil {
		v.SetSearch(*in.Search)
	}
	return nil
}

// Rows returns the records matching the current search in server order.
func (v *CustodyTable) Rows() []model.CustodyRecord {
	v.mu.RLock()
	q := v.search
	v.mu.RUnlock()

	return custodyMatches(v.source.Snapshot().Data, q)
}

func custodyMatches(data []model.CustodyRecord, q string) []model.CustodyRecord {
	return Filter(data, q, func(r model.CustodyRecord) []string {
		return []string{r.WorkerName, r.AssetName, r.AssetCode}
	})
}

// Render draws the table.
func (v *CustodyTable) Render(time.Time) any {
	return v.render()
}

func (v *CustodyTable) render() CustodyRender {
	v.mu.RLock()
	q := v.search
	v.mu.RUnlock()

	snap := v.source.Snapshot()
	records := custodyMatches(snap.Data, q)

	out := CustodyRender{
		State:  Classify(snap.Loading, len(records)),
		Search: q,
		Rows:   make([]CustodyRow, 0, len(records)),
		Error:  snap.Error,
	}
	if out.State == Empty {
		out.EmptyText = "No items currently checked out"
	}
	for _, r := range records {
		out.Rows = append(out.Rows, CustodyRow{
			ID:         r.ID,
			Worker:     r.WorkerName,
			EmployeeID: r.WorkerEmployeeID,
			Asset:      r.AssetName,
			AssetCode:  r.AssetCode,
			IsKit:      r.IsKit,
			CheckedOut: derive.Clock(r.CheckedOutAt.Time, v.loc),
			DueBack:    derive.OptionalClock(r.ExpectedReturnAt, v.loc),
			Overdue:    r.IsOverdue,
			Status:     derive.OverdueBadge(r),
		})
	}
	return out
}
