package poller

import "context"

// Lifecycle is the type-erased face of a Poller, used by whoever mounts a page.
type Lifecycle interface {
	Name() string
	Start(ctx context.Context)
	Stop()
	Reload() <-chan struct{}
	OnChange(fn func(name string))
}

// Group starts, stops and reloads a page's pollers together.
type Group []Lifecycle

// Start starts every poller in the group.
func (g Group) Start(ctx context.Context) {
	for _, p := range g {
		p.Start(ctx)
	}
}

// Stop tears every poller down.
func (g Group) Stop() {
	for _, p := range g {
		p.Stop()
	}
}

// Reload triggers one out-of-band fetch on every poller; the returned channel
// closes once all of them have resolved.
func (g Group) Reload() <-chan struct{} {
	pending := make([]<-chan struct{}, 0, len(g))
	for _, p := range g {
		pending = append(pending, p.Reload())
	}

	all := make(chan struct{})
	go func() {
		defer close(all)
		for _, ch := range pending {
			<-ch
		}
	}()
	return all
}

// OnChange registers fn on every poller in the group.
func (g Group) OnChange(fn func(name string)) {
	for _, p := range g {
		p.OnChange(fn)
	}
}
