package views

import (
	"fmt"
	"sync"
	"time"

	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// Inventory tabs.
const (
	TabAssets = "assets"
	TabKits   = "kits"
)

// AssetRow is one rendered asset.
type AssetRow struct {
	ID             string       `json:"id"`
	Code           string       `json:"code"`
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	Manufacturer   string       `json:"manufacturer"`
	State          derive.Badge `json:"state"`
	Calibration    derive.Badge `json:"calibration"`
	CalibrationDue string       `json:"calibration_due"`
}

// KitRow is one rendered kit.
type KitRow struct {
	ID       string       `json:"id"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Pieces   int          `json:"pieces"`
	State    derive.Badge `json:"state"`
}

// InventoryRender is the assets page as drawn.
type InventoryRender struct {
	Tab          string      `json:"tab"`
	Search       string      `json:"search"`
	StateFilter  string      `json:"state_filter"`
	StateOptions []string    `json:"state_options"`
	AssetCount   int         `json:"asset_count"`
	KitCount     int         `json:"kit_count"`
	State        RenderState `json:"state"`
	Assets       []AssetRow  `json:"assets,omitempty"`
	Kits         []KitRow    `json:"kits,omitempty"`
	EmptyText    string      `json:"empty_text,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Inventory is the assets and kits page.
type Inventory struct {
	assets poller.Source[[]model.Asset]
	kits   poller.Source[[]model.Kit]
	loc    *time.Location

	mu          sync.RWMutex
	tab         string
	search      string
	stateFilter string
}

// NewInventory creates the page on its assets tab.
func NewInventory(assets poller.Source[[]model.Asset], kits poller.Source[[]model.Kit], loc *time.Location) *Inventory {
	return &Inventory{assets: assets, kits: kits, loc: loc, tab: TabAssets}
}

// Update applies tab, search and state filter. An empty state filter shows all.
func (v *Inventory) Update(in Interaction) error {
	if in.Severity != nil {
		return fmt.Errorf("%w: inventory has no severity filter", ErrInvalidInteraction)
	}
	if in.Tab != nil && *in.Tab != TabAssets && *in.Tab != TabKits {
		return fmt.Errorf("%w: tab %q", ErrInvalidInteraction, *in.Tab)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if in.Tab != nil {
		v.tab = *in.Tab
	}
	if in.Search != nil {
		v.search = *in.Search
	}
	if in.StateFilter != nil {
		v.stateFilter = *in.StateFilter
	}
	return nil
}

// Assets returns the assets matching search and state filter.
func (v *Inventory) Assets() []model.Asset {
	q, sf := v.criteria()
	return assetMatches(v.assets.Snapshot().Data, q, sf)
}

// Kits returns the kits matching search and state filter.
func (v *Inventory) Kits() []model.Kit {
	q, sf := v.criteria()
	return kitMatches(v.kits.Snapshot().Data, q, sf)
}

func assetMatches(data []model.Asset, q, state string) []model.Asset {
	rows := Filter(data, q, func(a model.Asset) []string {
		return []string{a.Name, a.AssetCode}
	})
	return filterState(rows, state, func(a model.Asset) string { return a.State })
}

func kitMatches(data []model.Kit, q, state string) []model.Kit {
	rows := Filter(data, q, func(k model.Kit) []string {
		return []string{k.Name, k.KitCode}
	})
	return filterState(rows, state, func(k model.Kit) string { return k.State })
}

func (v *Inventory) criteria() (string, string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.search, v.stateFilter
}

func filterState[T any](rows []T, state string, stateOf func(T) string) []T {
	if state == "" {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if stateOf(r) == state {
			out = append(out, r)
		}
	}
	return out
}

// Render draws the selected tab.
func (v *Inventory) Render(time.Time) any {
	v.mu.RLock()
	tab, q, sf := v.tab, v.search, v.stateFilter
	v.mu.RUnlock()

	assetSnap, kitSnap := v.assets.Snapshot(), v.kits.Snapshot()
	assets, kits := assetMatches(assetSnap.Data, q, sf), kitMatches(kitSnap.Data, q, sf)
	out := InventoryRender{
		Tab:          tab,
		Search:       q,
		StateFilter:  sf,
		StateOptions: model.KnownStates,
		AssetCount:   len(assets),
		KitCount:     len(kits),
	}

	if tab == TabKits {
		out.State = Classify(kitSnap.Loading, len(kits))
		out.Error = kitSnap.Error
		out.Kits = make([]KitRow, 0, len(kits))
		for _, k := range kits {
			out.Kits = append(out.Kits, KitRow{
				ID:       k.ID,
				Code:     k.KitCode,
				Name:     k.Name,
				Category: categoryName(k.Category),
				Pieces:   k.ExpectedCount,
				State:    derive.StateBadge(k.State),
			})
		}
	} else {
		out.State = Classify(assetSnap.Loading, len(assets))
		out.Error = assetSnap.Error
		out.Assets = make([]AssetRow, 0, len(assets))
		for _, a := range assets {
			out.Assets = append(out.Assets, AssetRow{
				ID:             a.ID,
				Code:           a.AssetCode,
				Name:           a.Name,
				Category:       categoryName(a.Category),
				Manufacturer:   derive.OrPlaceholder(a.Manufacturer),
				State:          derive.StateBadge(a.State),
				Calibration:    derive.CalibrationBadge(a.CalibrationStatus),
				CalibrationDue: derive.Date(a.CalibrationDueAt, v.loc),
			})
		}
	}
	if out.State == Empty {
		out.EmptyText = "No assets match your search"
	}
	return out
}

func categoryName(c *model.Category) string {
	if c == nil || c.Name == "" {
		return derive.Placeholder
	}
	return c.Name
}
