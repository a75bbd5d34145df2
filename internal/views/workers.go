package views

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// WorkerRow is one rendered badge holder.
type WorkerRow struct {
	ID          string       `json:"id"`
	EmployeeID  string       `json:"employee_id"`
	Name        string       `json:"name"`
	Initials    string       `json:"initials"`
	Role        derive.Badge `json:"role"`
	Department  string       `json:"department"`
	Phone       string       `json:"phone"`
	QRCode      string       `json:"qr_code"`
	Active      bool         `json:"active"`
	ActiveLabel string       `json:"active_label"`
}

// WorkersRender is the workers page as drawn.
type WorkersRender struct {
	State     RenderState `json:"state"`
	Search    string      `json:"search"`
	Total     int         `json:"total"`
	Rows      []WorkerRow `json:"rows"`
	EmptyText string      `json:"empty_text,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// WorkerDirectory is the workers page.
type WorkerDirectory struct {
	source poller.Source[[]model.Worker]

	mu     sync.RWMutex
	search string
}

// NewWorkerDirectory creates the page over the workers poller.
func NewWorkerDirectory(source poller.Source[[]model.Worker]) *WorkerDirectory {
	return &WorkerDirectory{source: source}
}

// Update applies the search field.
func (v *WorkerDirectory) Update(in Interaction) error {
	if in.Tab != nil || in.Severity != nil || in.StateFilter != nil {
		return fmt.Errorf("%w: worker directory only takes a search", ErrInvalidInteraction)
	}
	if in.Search != nil {
		v.mu.Lock()
		v.search = *in.Search
		v.mu.Unlock()
	}
	return nil
}

// Rows returns the workers matching the search.
func (v *WorkerDirectory) Rows() []model.Worker {
	v.mu.RLock()
	q := v.search
	v.mu.RUnlock()

	return workerMatches(v.source.Snapshot().Data, q)
}

func workerMatches(data []model.Worker, q string) []model.Worker {
	return Filter(data, q, func(w model.Worker) []string {
		return []string{w.FullName, w.EmployeeID, deref(w.Department)}
	})
}

// Render draws the directory.
func (v *WorkerDirectory) Render(time.Time) any {
	v.mu.RLock()
	q := v.search
	v.mu.RUnlock()

	snap := v.source.Snapshot()
	workers := workerMatches(snap.Data, q)
	out := WorkersRender{
		State:  Classify(snap.Loading, len(workers)),
		Search: q,
		Total:  len(snap.Data),
		Rows:   make([]WorkerRow, 0, len(workers)),
		Error:  snap.Error,
	}
	if out.State == Empty {
		out.EmptyText = "No workers found"
	}
	for _, w := range workers {
		row := WorkerRow{
			ID:          w.ID,
			EmployeeID:  w.EmployeeID,
			Name:        w.FullName,
			Initials:    Initials(w.FullName),
			Role:        derive.RoleBadge(w.Role),
			Department:  derive.OrPlaceholder(w.Department),
			Phone:       derive.OrPlaceholder(w.Phone),
			QRCode:      w.QRCode,
			Active:      w.IsActive,
			ActiveLabel: "Inactive",
		}
		if w.IsActive {
			row.ActiveLabel = "Active"
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Initials takes the first letter of the first two words, upper-cased.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	return b.String()
}
