package counter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modhaven/mh-aggregator/internal/counter"
	"github.com/modhaven/mh-aggregator/internal/engine"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/mocks"
)

type testJanitorMocks struct {
	ctrl    *gomock.Controller
	history *mocks.MockHistoryLedger
	clock   *mocks.MockClock
	ticks   chan time.Time
	janitor engine.Engine
}

func setupTestJanitor(t *testing.T, window time.Duration) *testJanitorMocks {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testJanitorMocks{
		ctrl:    ctrl,
		history: mocks.NewMockHistoryLedger(ctrl),
		clock:   mocks.NewMockClock(ctrl),
		ticks:   make(chan time.Time, 1),
	}
	tm.clock.EXPECT().After(gomock.Any()).Return((<-chan time.Time)(tm.ticks)).AnyTimes()
	tm.janitor = counter.NewHistoryJanitor(window, tm.history, tm.clock)
	return tm
}

func TestHistoryJanitor_Name(t *testing.T) {
	tm := setupTestJanitor(t, time.Hour)
	defer tm.ctrl.Finish()

	assert.Equal(t, "history-janitor", tm.janitor.Name())
}

func TestHistoryJanitor_ClearsOnTick(t *testing.T) {
	tm := setupTestJanitor(t, time.Hour)
	defer tm.ctrl.Finish()

	ctx := context.Background()

	cleared := make(chan struct{})
	tm.history.EXPECT().ClearAll(gomock.Any()).DoAndReturn(func(context.Context) error {
		close(cleared)
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- tm.janitor.Start(ctx)
	}()

	tm.ticks <- time.Now()
	select {
	case <-cleared:
	case <-time.After(5 * time.Second):
		t.Fatal("ledger was never cleared")
	}

	require.NoError(t, tm.janitor.Stop(ctx))
	require.NoError(t, <-done)
}

func TestHistoryJanitor_ClearFailureKeepsRunning(t *testing.T) {
	tm := setupTestJanitor(t, time.Hour)
	defer tm.ctrl.Finish()

	ctx := context.Background()

	// First clear fails, the loop survives and clears on the next tick
	first := tm.history.EXPECT().ClearAll(gomock.Any()).Return(errors.New("redis down"))
	cleared := make(chan struct{})
	tm.history.EXPECT().ClearAll(gomock.Any()).After(first).DoAndReturn(func(context.Context) error {
		close(cleared)
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- tm.janitor.Start(ctx)
	}()

	tm.ticks <- time.Now()
	tm.ticks <- time.Now()
	select {
	case <-cleared:
	case <-time.After(5 * time.Second):
		t.Fatal("ledger was never cleared after the failed attempt")
	}

	require.NoError(t, tm.janitor.Stop(ctx))
	require.NoError(t, <-done)
}

func TestHistoryJanitor_StopBeforeAnyTick(t *testing.T) {
	tm := setupTestJanitor(t, time.Hour)
	defer tm.ctrl.Finish()

	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- tm.janitor.Start(ctx)
	}()

	// Give the loop a moment to enter its select, then stop without ever
	// delivering a tick: ClearAll must not be called
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, tm.janitor.Stop(ctx))
	require.NoError(t, <-done)
}
