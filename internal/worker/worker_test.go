package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikonell/krakker-backend/internal/models"
)

func startWorker(t *testing.T, w *Worker) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		w.Wait()
	})
	return cancel, errCh
}

func TestNew_Defaults(t *testing.T) {
	w := New(nil, nil, nil, Options{}, nil)
	assert.Equal(t, DefaultInterval, w.interval)
	assert.Equal(t, DefaultConcurrency, w.concurrency)
	assert.Equal(t, models.WorkerStateIdle, w.State())
	assert.Nil(t, w.LastRun())
}

func TestRun_CancelDuringSleepStopsImmediately(t *testing.T) {
	store, issues := widgetsFixture()
	w := New(store, issues, store, Options{Interval: time.Hour}, discardLogger())
	cancel, errCh := startWorker(t, w)

	require.Eventually(t, func() bool {
		return w.State() == models.WorkerStateSleeping
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop during sleep")
	}
	w.Wait()
	assert.Equal(t, models.WorkerStateStopped, w.State())
	assert.Equal(t, 1, store.calls())
}

func TestRun_CancelledBeforeStartRunsNoPass(t *testing.T) {
	store, issues := widgetsFixture()
	w := New(store, issues, store, Options{Interval: time.Hour}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, w.Run(ctx))
	assert.Zero(t, store.calls())
	assert.Equal(t, models.WorkerStateStopped, w.State())
}

func TestRun_PassErrorsDoNotStopLoop(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("database unavailable")
	w := New(store, newFakeIssues(), store, Options{Interval: 5 * time.Millisecond}, discardLogger())
	cancel, errCh := startWorker(t, w)

	require.Eventually(t, func() bool {
		return store.calls() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestRun_RejectsSecondStart(t *testing.T) {
	store, issues := widgetsFixture()
	w := New(store, issues, store, Options{Interval: time.Hour}, discardLogger())
	startWorker(t, w)

	require.Eventually(t, func() bool {
		return w.State() != models.WorkerStateIdle
	}, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, w.Run(context.Background()), ErrAlreadyRunning)
}

func TestTrigger_WakesSleepingLoop(t *testing.T) {
	store, issues := widgetsFixture()
	w := New(store, issues, store, Options{Interval: time.Hour}, discardLogger())
	startWorker(t, w)

	require.Eventually(t, func() bool {
		return w.State() == models.WorkerStateSleeping && store.calls() == 1
	}, 2*time.Second, 5*time.Millisecond)

	w.Trigger()

	require.Eventually(t, func() bool {
		return store.calls() == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestTrigger_NeverBlocks(t *testing.T) {
	w := New(newMemStore(), newFakeIssues(), newMemStore(), Options{}, discardLogger())
	for i := 0; i < 10; i++ {
		w.Trigger()
	}
}

func TestWait_ReturnsWhenNeverStarted(t *testing.T) {
	w := New(newMemStore(), newFakeIssues(), newMemStore(), Options{}, discardLogger())

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a worker that was never started")
	}
}
