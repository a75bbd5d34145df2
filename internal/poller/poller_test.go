package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolroom-console/internal/logger"
)

const never = time.Hour

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller")
	}
}

func TestPoller_LoadingUntilFirstResolve(t *testing.T) {
	release := make(chan struct{})
	p := New("summary", func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	}, never, logger.Nop())

	assert.True(t, p.Snapshot().Loading)
	p.Start(context.Background())
	defer p.Stop()

	assert.True(t, p.Snapshot().Loading)
	assert.False(t, p.Snapshot().HasData)

	close(release)
	assert.Eventually(t, func() bool { return !p.Snapshot().Loading }, time.Second, 5*time.Millisecond)

	st := p.Snapshot()
	assert.True(t, st.HasData)
	assert.Equal(t, 7, st.Data)
	assert.Empty(t, st.Error)
}

func TestPoller_FirstFetchFailureEndsLoading(t *testing.T) {
	p := New("alerts", func(ctx context.Context) ([]string, error) {
		return nil, errors.New("connection refused")
	}, never, logger.Nop())
	p.Start(context.Background())
	defer p.Stop()

	assert.Eventually(t, func() bool { return !p.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	st := p.Snapshot()
	assert.False(t, st.HasData)
	assert.Equal(t, "connection refused", st.Error)
}

func TestPoller_ErrorKeepsLastKnownGoodData(t *testing.T) {
	var calls atomic.Int32
	p := New("custody", func(ctx context.Context) ([]string, error) {
		switch calls.Add(1) {
		case 1:
			return []string{"c1", "c2"}, nil
		case 2:
			return nil, errors.New("request timed out")
		default:
			return []string{"c1"}, nil
		}
	}, never, logger.Nop())
	p.Start(context.Background())
	defer p.Stop()

	assert.Eventually(t, func() bool { return p.Snapshot().HasData }, time.Second, 5*time.Millisecond)

	waitFor(t, p.Reload())
	st := p.Snapshot()
	assert.Equal(t, []string{"c1", "c2"}, st.Data)
	assert.Equal(t, "request timed out", st.Error)
	assert.False(t, st.Loading, "a routine refresh never goes back to loading")

	waitFor(t, p.Reload())
	st = p.Snapshot()
	assert.Equal(t, []string{"c1"}, st.Data)
	assert.Empty(t, st.Error)
}

func TestPoller_RepeatsOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := New("history", func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	}, 10*time.Millisecond, logger.Nop())
	p.Start(context.Background())
	defer p.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPoller_ReloadTwiceEqualsOnce(t *testing.T) {
	backend := func(ctx context.Context) ([]string, error) {
		return []string{"a1", "a2", "a3"}, nil
	}

	once := New("alerts", backend, never, logger.Nop())
	once.Start(context.Background())
	defer once.Stop()
	waitFor(t, once.Reload())

	twice := New("alerts", backend, never, logger.Nop())
	twice.Start(context.Background())
	defer twice.Stop()
	first, second := twice.Reload(), twice.Reload()
	waitFor(t, first)
	waitFor(t, second)

	assert.Equal(t, once.Snapshot().Data, twice.Snapshot().Data)
}

func TestPoller_LastResolvedWins(t *testing.T) {
	var mu sync.Mutex
	var calls int
	slow := make(chan struct{})

	p := New("summary", func(ctx context.Context) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		switch n {
		case 1:
			return "initial", nil
		case 2:
			<-slow
			return "issued-first-resolved-last", nil
		default:
			return "issued-last-resolved-first", nil
		}
	}, never, logger.Nop())
	p.Start(context.Background())
	defer p.Stop()
	assert.Eventually(t, func() bool { return p.Snapshot().Data == "initial" }, time.Second, 5*time.Millisecond)

	early := p.Reload()
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, time.Millisecond)

	late := p.Reload()
	waitFor(t, late)
	assert.Equal(t, "issued-last-resolved-first", p.Snapshot().Data)

	close(slow)
	waitFor(t, early)
	assert.Equal(t, "issued-first-resolved-last", p.Snapshot().Data)
}

func TestPoller_StopSuppressesLateResponse(t *testing.T) {
	release := make(chan struct{})
	var notified atomic.Int32

	p := New("custody", func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	}, never, logger.Nop())
	p.OnChange(func(string) { notified.Add(1) })
	p.Start(context.Background())

	p.Stop()
	close(release)
	waitFor(t, p.Done())

	st := p.Snapshot()
	assert.True(t, st.Loading)
	assert.False(t, st.HasData)
	assert.Zero(t, notified.Load())

	// Reload after teardown never fetches.
	waitFor(t, p.Reload())
	assert.False(t, p.Snapshot().HasData)
}

func TestPoller_NotifiesListeners(t *testing.T) {
	changed := make(chan string, 4)
	p := New("workers", func(ctx context.Context) (int, error) { return 1, nil }, never, logger.Nop())
	p.OnChange(func(name string) { changed <- name })
	p.Start(context.Background())
	defer p.Stop()

	select {
	case name := <-changed:
		assert.Equal(t, "workers", name)
	case <-time.After(time.Second):
		t.Fatal("listener not called")
	}
}

func TestGroup_ReloadWaitsForAll(t *testing.T) {
	var a, b atomic.Int32
	pa := New("a", func(ctx context.Context) (int32, error) { return a.Add(1), nil }, never, logger.Nop())
	pb := New("b", func(ctx context.Context) (int32, error) { return b.Add(1), nil }, never, logger.Nop())
	g := Group{pa, pb}

	g.Start(context.Background())
	defer g.Stop()
	assert.Eventually(t, func() bool { return pa.Snapshot().HasData && pb.Snapshot().HasData }, time.Second, 5*time.Millisecond)

	waitFor(t, g.Reload())
	require.Equal(t, int32(2), pa.Snapshot().Data)
	require.Equal(t, int32(2), pb.Snapshot().Data)

	g.Stop()
	waitFor(t, pa.Done())
	waitFor(t, pb.Done())
}
