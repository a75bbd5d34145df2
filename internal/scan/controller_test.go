package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolroom-console/internal/apiclient"
	"toolroom-console/internal/logger"
	"toolroom-console/internal/model"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	result   *model.ScanResult
	err      error
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeAPI) call(kind string, req model.ScanRequest) (*model.ScanResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, kind+" "+req.WorkerQR+" "+req.AssetQR)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeAPI) Checkout(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return f.call("checkout", req)
}

func (f *fakeAPI) Return(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return f.call("return", req)
}

func (f *fakeAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

type memJournal struct {
	mu      sync.Mutex
	entries []model.ScanJournalEntry
}

func (j *memJournal) RecordScan(ctx context.Context, e *model.ScanJournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e.ID = int64(len(j.entries) + 1)
	j.entries = append(j.entries, *e)
	return nil
}

func (j *memJournal) RecentScans(ctx context.Context, limit int) ([]model.ScanJournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]model.ScanJournalEntry, 0, limit)
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.entries[i])
	}
	return out, nil
}

type countingReloader struct{ calls atomic.Int32 }

func (r *countingReloader) Reload() <-chan struct{} {
	r.calls.Add(1)
	ch := make(chan struct{})
	close(ch)
	return ch
}

func str(s string) *string { return &s }

func newController(api *fakeAPI, opts Options) (*Controller, *memJournal) {
	journal := &memJournal{}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	c := NewController(api, journal, opts, logger.Nop())
	return c, journal
}

func TestController_BlankCodesNeverReachTheNetwork(t *testing.T) {
	api := &fakeAPI{}
	c, journal := newController(api, Options{})
	defer c.Close()

	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-004"), AssetCode: str("   ")}))
	st, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Both QR codes are required", st.Message)
	assert.Equal(t, "Please scan or enter the Worker QR and Asset QR", st.SubMessage)
	assert.Equal(t, "QR-W-004", st.WorkerCode, "codes are kept")
	assert.Empty(t, api.calls())
	require.Len(t, journal.entries, 1)
	assert.Equal(t, model.OutcomeInvalid, journal.entries[0].Outcome)
}

func TestController_ValidationErrorStaysUntilModeChange(t *testing.T) {
	c, _ := newController(&fakeAPI{}, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-004")}))
	st := c.Snapshot()
	assert.Equal(t, StatusError, st.Status, "editing a code keeps the message")
	assert.Equal(t, "Both QR codes are required", st.Message)

	require.NoError(t, c.SetMode(ModeReturn))
	st = c.Snapshot()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.Message)
	assert.Equal(t, "QR-W-004", st.WorkerCode)
}

func TestController_CheckoutSuccess(t *testing.T) {
	due := time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC)
	api := &fakeAPI{result: &model.ScanResult{Success: true, ExpectedReturnAt: model.At(due)}}
	custody, summary := &countingReloader{}, &countingReloader{}
	c, journal := newController(api, Options{
		SuccessDismiss: 30 * time.Millisecond,
		Invalidate:     []Reloader{custody, summary},
	})
	defer c.Close()

	require.NoError(t, c.Update(Input{WorkerCode: str(" QR-W-004 "), AssetCode: str("QR-A-001")}))
	st, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"checkout QR-W-004 QR-A-001"}, api.calls(), "codes are trimmed")
	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, "Tool checked out successfully", st.Message)
	assert.Equal(t, "Return by 17:30", st.SubMessage)
	assert.Empty(t, st.WorkerCode)
	assert.Empty(t, st.AssetCode)
	assert.Equal(t, FocusWorker, st.Focus)
	assert.Equal(t, int32(1), custody.calls.Load())
	assert.Equal(t, int32(1), summary.calls.Load())
	require.Len(t, journal.entries, 1)
	assert.Equal(t, model.OutcomeSuccess, journal.entries[0].Outcome)

	assert.Eventually(t, func() bool { return c.Snapshot().Status == StatusIdle }, time.Second, 5*time.Millisecond)
	assert.Empty(t, c.Snapshot().Message)
}

func TestController_ReturnUsesServerMessage(t *testing.T) {
	api := &fakeAPI{result: &model.ScanResult{Message: "Drill returned by Mohan Lal"}}
	c, _ := newController(api, Options{})
	defer c.Close()

	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-004"), AssetCode: str("QR-A-025"), Mode: str(ModeReturn)}))
	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"return QR-W-004 QR-A-025"}, api.calls())
	assert.Equal(t, "Drill returned by Mohan Lal", st.Message)
	assert.Empty(t, st.SubMessage)

	api.result = nil
	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-004"), AssetCode: str("QR-A-025")}))
	st, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tool returned successfully", st.Message)
}

func TestController_RejectionKeepsCodes(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"server detail", &apiclient.APIError{StatusCode: 409, Detail: "Asset is already in custody"}, "Asset is already in custody"},
		{"no detail", &apiclient.APIError{StatusCode: 500}, "Operation failed"},
		{"timeout", &apiclient.TimeoutError{Err: context.DeadlineExceeded}, "Operation failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{err: tc.err}
			c, journal := newController(api, Options{ErrorDismiss: 30 * time.Millisecond})
			defer c.Close()

			require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-004"), AssetCode: str("QR-A-001")}))
			st, err := c.Submit(context.Background())
			require.NoError(t, err)

			assert.Equal(t, StatusError, st.Status)
			assert.Equal(t, tc.expected, st.Message)
			assert.Equal(t, "Check the QR codes and try again", st.SubMessage)
			assert.Equal(t, "QR-W-004", st.WorkerCode)
			assert.Equal(t, "QR-A-001", st.AssetCode)
			assert.Equal(t, model.OutcomeRejected, journal.entries[0].Outcome)

			assert.Eventually(t, func() bool { return c.Snapshot().Status == StatusIdle }, time.Second, 5*time.Millisecond)
			assert.Equal(t, "QR-W-004", c.Snapshot().WorkerCode)
		})
	}
}

func TestController_SubmitWhileSubmittingIsRejected(t *testing.T) {
	api := &fakeAPI{result: &model.ScanResult{}, block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, _ := newController(api, Options{})
	defer c.Close()
	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-001"), AssetCode: str("QR-A-004")}))

	done := make(chan State, 1)
	go func() {
		st, _ := c.Submit(context.Background())
		done <- st
	}()
	<-api.entered

	assert.Equal(t, StatusSubmitting, c.Snapshot().Status)
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.SetMode(ModeReturn), ErrBusy)

	close(api.block)
	assert.Equal(t, StatusSuccess, (<-done).Status)
	assert.Len(t, api.calls(), 1)
}

func TestController_NewSubmissionSupersedesDismiss(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	c, _ := newController(api, Options{ErrorDismiss: 50 * time.Millisecond, SuccessDismiss: time.Hour})
	defer c.Close()

	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-001"), AssetCode: str("QR-A-004")}))
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	api.err = nil
	api.result = &model.ScanResult{}
	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-001"), AssetCode: str("QR-A-004")}))
	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, StatusSuccess, c.Snapshot().Status, "the earlier error timer must not clear the newer result")
}

func TestController_SetModeKeepsCodes(t *testing.T) {
	c, _ := newController(&fakeAPI{}, Options{})
	defer c.Close()

	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-002")}))
	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusError, c.Snapshot().Status)

	require.NoError(t, c.SetMode(ModeReturn))
	st := c.Snapshot()
	assert.Equal(t, ModeReturn, st.Mode)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.Message)
	assert.Equal(t, "QR-W-002", st.WorkerCode)

	assert.ErrorIs(t, c.SetMode("TRANSFER"), ErrInvalidMode)
}

func TestController_Fill(t *testing.T) {
	c, _ := newController(&fakeAPI{}, Options{})
	defer c.Close()

	filled, err := c.Fill("QR-W-003")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, "QR-W-003", c.Snapshot().WorkerCode)
	assert.Equal(t, FocusAsset, c.Snapshot().Focus)

	filled, err = c.Fill("QR-K-001")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, "QR-K-001", c.Snapshot().AssetCode)

	filled, err = c.Fill("QR-A-001")
	require.NoError(t, err)
	assert.False(t, filled, "inert once both fields hold a code")
	assert.Equal(t, "QR-K-001", c.Snapshot().AssetCode)

	require.NoError(t, c.Update(Input{WorkerCode: str("")}))
	filled, err = c.Fill("QR-W-005")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, "QR-W-005", c.Snapshot().WorkerCode)
}

func TestController_CloseDropsLateResult(t *testing.T) {
	api := &fakeAPI{result: &model.ScanResult{}, block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, journal := newController(api, Options{})
	var changes atomic.Int32
	c.OnChange(func(State) { changes.Add(1) })

	require.NoError(t, c.Update(Input{WorkerCode: str("QR-W-001"), AssetCode: str("QR-A-004")}))
	done := make(chan State, 1)
	go func() {
		st, _ := c.Submit(context.Background())
		done <- st
	}()
	<-api.entered
	before := changes.Load()

	c.Close()
	close(api.block)
	st := <-done

	assert.Equal(t, StatusSubmitting, st.Status)
	assert.Equal(t, before, changes.Load())
	assert.Len(t, journal.entries, 1, "the transaction still happened on the server")

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestController_Recent(t *testing.T) {
	c, _ := newController(&fakeAPI{}, Options{JournalSize: 2})
	defer c.Close()

	for i := 0; i < 3; i++ {
		_, err := c.Submit(context.Background())
		require.NoError(t, err)
	}
	entries, err := c.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ID)
}
