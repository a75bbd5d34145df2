package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"toolroom-console/internal/metrics"
)

// FetchFunc retrieves one snapshot of a resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is what a view sees of a polled resource.
type State[T any] struct {
	Data      T
	HasData   bool
	Loading   bool
	Error     string
	UpdatedAt time.Time
}

// Source is anything a view can read a snapshot from.
type Source[T any] interface {
	Snapshot() State[T]
}

// Poller owns one resource's data/loading/error cell and its refresh cadence.
// Only the poller's own fetch completions write the cell.
type Poller[T any] struct {
	name     string
	fetch    FetchFunc[T]
	interval time.Duration
	logger   *zap.SugaredLogger

	mu        sync.RWMutex
	state     State[T]
	started   bool
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []func(name string)
}

// New creates a poller. It does nothing until Start.
func New[T any](name string, fetch FetchFunc[T], interval time.Duration, logger *zap.SugaredLogger) *Poller[T] {
	return &Poller[T]{
		name:     name,
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		state:    State[T]{Loading: true},
		done:     make(chan struct{}),
	}
}

// Name identifies the polled resource.
func (p *Poller[T]) Name() string {
	return p.name
}

// OnChange registers fn to run after every applied result.
func (p *Poller[T]) OnChange(fn func(name string)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Start performs an immediate fetch and then one fetch per interval until Stop
// or until ctx is done. Calling Start twice, or after Stop, is a no-op.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	go p.run()
}

func (p *Poller[T]) run() {
	defer close(p.done)

	p.fetchAndApply(p.ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debugf("poller %s stopped", p.name)
			return
		case <-timer.C:
			p.fetchAndApply(p.ctx)
			timer.Reset(p.interval)
		}
	}
}

// Stop halts the timer and cancels in-flight fetches. Any response that resolves
// afterwards is discarded.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Done is closed once the timer loop has exited.
func (p *Poller[T]) Done() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.started {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

// Reload performs one out-of-band fetch in addition to the timer. The returned
// channel closes when that fetch's result has been applied or discarded.
func (p *Poller[T]) Reload() <-chan struct{} {
	finished := make(chan struct{})

	p.mu.RLock()
	active := p.started && !p.stopped
	ctx := p.ctx
	p.mu.RUnlock()

	if !active {
		close(finished)
		return finished
	}

	go func() {
		defer close(finished)
		p.fetchAndApply(ctx)
	}()
	return finished
}

// Snapshot returns the current state of the cell.
func (p *Poller[T]) Snapshot() State[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Poller[T]) fetchAndApply(ctx context.Context) {
	start := time.Now()
	data, err := p.fetch(ctx)
	metrics.PollerFetchDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	if !p.apply(data, err) {
		metrics.PollerFetches.WithLabelValues(p.name, "discarded").Inc()
		return
	}
	metrics.PollerFetches.WithLabelValues(p.name, metrics.Outcome(err)).Inc()
	if err != nil {
		p.logger.Warnf("poller %s fetch failed: %v", p.name, err)
	}
	p.notify()
}

// apply writes a resolved fetch into the cell, last resolved wins. It reports
// false when the poller was torn down before the fetch resolved.
func (p *Poller[T]) apply(data T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}

	if err != nil {
		p.state.Error = err.Error()
	} else {
		p.state.Data = data
		p.state.HasData = true
		p.state.Error = ""
	}
	p.state.Loading = false
	p.state.UpdatedAt = time.Now()
	return true
}

func (p *Poller[T]) notify() {
	p.mu.RLock()
	listeners := make([]func(string), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn(p.name)
	}
}
