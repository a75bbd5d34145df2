// Package views holds the per-page interaction state of the console and derives
// each page's visible rows from the pollers' current snapshots on every render.
package views

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidInteraction is returned when a view is asked to take a value it does
// not offer, such as an unknown tab.
var ErrInvalidInteraction = errors.New("invalid view state")

// RenderState is the one visual state a list is in.
type RenderState string

const (
	Loading   RenderState = "loading"
	Empty     RenderState = "empty"
	Populated RenderState = "populated"
)

// Classify picks exactly one render state for a list.
func Classify(loading bool, n int) RenderState {
	switch {
	case loading:
		return Loading
	case n == 0:
		return Empty
	default:
		return Populated
	}
}

// Filter keeps the rows where any of fields contains query, ignoring case. An
// empty query returns rows as they are. Order is never changed.
func Filter[T any](rows []T, query string, fields func(T) []string) []T {
	if query == "" {
		return rows
	}
	q := strings.ToLower(query)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, f := range fields(row) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Interaction is a partial update of a view's local state. Nil fields are left
// as they are.
type Interaction struct {
	Search      *string `json:"search"`
	StateFilter *string `json:"state_filter"`
	Tab         *string `json:"tab"`
	Severity    *string `json:"severity"`
}

// View is one mounted page body.
type View interface {
	Update(in Interaction) error
	Render(now time.Time) any
}

// Reloader is anything that can be asked for an out-of-band refresh.
type Reloader interface {
	Reload() <-chan struct{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
