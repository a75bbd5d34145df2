package views

import (
	"fmt"
	"sync"
	"time"
)

// Custody log tabs.
const (
	TabActive  = "active"
	TabHistory = "history"
)

// CustodyLogRender is the custody page as drawn.
type CustodyLogRender struct {
	Tab     string         `json:"tab"`
	Active  *CustodyRender `json:"active,omitempty"`
	History *HistoryRender `json:"history,omitempty"`
}

// CustodyLog is the custody page: an "Active Now" tab and a "Full History" tab,
// each with its own search.
type CustodyLog struct {
	Active  *CustodyTable
	History *HistoryTable

	mu  sync.RWMutex
	tab string
}

// NewCustodyLog creates the page on its active tab.
func NewCustodyLog(active *CustodyTable, history *HistoryTable) *CustodyLog {
	return &CustodyLog{Active: active, History: history, tab: TabActive}
}

// Tab returns the selected tab.
func (v *CustodyLog) Tab() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tab
}

// Update switches tabs and routes the search to the selected tab.
func (v *CustodyLog) Update(in Interaction) error {
	if in.Severity != nil || in.StateFilter != nil {
		return fmt.Errorf("%w: custody log takes a tab and a search", ErrInvalidInteraction)
	}
	if in.Tab != nil {
		switch *in.Tab {
		case TabActive, TabHistory:
		default:
			return fmt.Errorf("%w: tab %q", ErrInvalidInteraction, *in.Tab)
		}
		v.mu.Lock()
		v.tab = *in.Tab
		v.mu.Unlock()
	}
	if in.Search != nil {
		if v.Tab() == TabHistory {
			v.History.SetSearch(*in.Search)
		} else {
			v.Active.SetSearch(*in.Search)
		}
	}
	return nil
}

// Render draws only the selected tab.
func (v *CustodyLog) Render(time.Time) any {
	out := CustodyLogRender{Tab: v.Tab()}
	if out.Tab == TabHistory {
		h := v.History.render()
		out.History = &h
	} else {
		a := v.Active.render()
		out.Active = &a
	}
	return out
}
