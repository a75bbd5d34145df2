package notification

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"toolroom-console/internal/model"
	"toolroom-console/internal/poller"
)

// knownTTL bounds how long an alert id is remembered after it was last seen.
const knownTTL = 24 * time.Hour

// Dispatcher accepts alerts to push.
type Dispatcher interface {
	Dispatch(alert model.Alert)
}

// Watcher turns alert snapshots into push jobs. The first snapshot only seeds
// what is already open; afterwards every newly seen CRITICAL alert is pushed once.
type Watcher struct {
	dispatcher Dispatcher
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	seeded bool
	known  *cache.Cache
}

// NewWatcher creates a watcher that hands new critical alerts to d.
func NewWatcher(d Dispatcher, logger *zap.SugaredLogger) *Watcher {
	return &Watcher{
		dispatcher: d,
		logger:     logger,
		known:      cache.New(knownTTL, time.Hour),
	}
}

// Watch subscribes to a poller's changes.
func (w *Watcher) Watch(p *poller.Poller[[]model.Alert]) {
	p.OnChange(func(string) {
		snap := p.Snapshot()
		if snap.HasData && snap.Error == "" {
			w.Observe(snap.Data)
		}
	})
}

// Observe processes one successful alerts snapshot.
func (w *Watcher) Observe(alerts []model.Alert) {
	w.mu.Lock()
	var fresh []model.Alert
	for _, a := range alerts {
		_, seen := w.known.Get(a.ID)
		w.known.Set(a.ID, struct{}{}, cache.DefaultExpiration)
		if w.seeded && !seen && a.Severity == model.SeverityCritical {
			fresh = append(fresh, a)
		}
	}
	if !w.seeded {
		w.logger.Infof("push watcher seeded with %d open alerts", len(alerts))
	}
	w.seeded = true
	w.mu.Unlock()

	for _, a := range fresh {
		w.logger.Infof("new critical alert %s: %s", a.ID, a.Title)
		w.dispatcher.Dispatch(a)
	}
}
