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
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/mocks"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

// testCounterMocks contains all the mocks needed for testing the counter engine
type testCounterMocks struct {
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	events    *mocks.MockEventQueue
	history   *mocks.MockHistoryLedger
	gate      *mocks.MockProcessingGate
	syncQueue *mocks.MockSyncQueue
	clock     *mocks.MockClock
	engine    counter.Engine
}

// testNow is the frozen cycle timestamp; testToday is its UTC calendar day
var (
	testNow   = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	testToday = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
)

// setupTestCounter creates all the mocks and engine for testing
func setupTestCounter(t *testing.T) *testCounterMocks {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testCounterMocks{
		ctrl:      ctrl,
		store:     mocks.NewMockStore(ctrl),
		events:    mocks.NewMockEventQueue(ctrl),
		history:   mocks.NewMockHistoryLedger(ctrl),
		gate:      mocks.NewMockProcessingGate(ctrl),
		syncQueue: mocks.NewMockSyncQueue(ctrl),
		clock:     mocks.NewMockClock(ctrl),
	}

	config := &counter.Config{
		CycleInterval: 10 * time.Minute,
		FlushWorkers:  2,
	}

	tm.engine = counter.NewEngine(
		config,
		tm.store,
		tm.events,
		tm.history,
		tm.gate,
		tm.syncQueue,
		tm.clock,
	)

	tm.clock.EXPECT().Now().Return(testNow).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()

	return tm
}

// tearDownTestCounter cleans up the test mocks
func tearDownTestCounter(mocks *testCounterMocks) {
	mocks.ctrl.Finish()
}

// expectCycleScaffolding wires the calls every non-skipped cycle makes:
// gate acquire/release and an empty daily stats rollover
func (tm *testCounterMocks) expectCycleScaffolding() {
	tm.gate.EXPECT().TryAcquire(gomock.Any()).Return(true, nil)
	tm.gate.EXPECT().Release(gomock.Any()).Return(nil)
	tm.store.EXPECT().ListRolloverCandidates(gomock.Any(), testToday).Return(nil, nil)
}

func TestCounterEngine_Name(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	assert.Equal(t, "download-counter", mocks.engine.Name())
}

func TestProcessDownloads_GateHeldElsewhere(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	// Another process holds the gate: the cycle is skipped entirely,
	// nothing is drained and the gate is not released
	mocks.gate.EXPECT().TryAcquire(gomock.Any()).Return(false, nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_EmptyQueue(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return(nil, nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_CountsDistinctDownloads(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	events := []domain.DownloadEvent{
		{ID: "e1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11},
		{ID: "e2", IPAddress: "10.0.0.2", ProjectID: 1, VersionID: 12},
		{ID: "e3", IPAddress: "10.0.0.1", ProjectID: 2, VersionID: 21},
	}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return(events, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(nil, nil)

	// Every event is distinct: all three land in the history ledger
	for _, event := range events {
		mocks.history.EXPECT().Append(gomock.Any(), event).Return(nil)
	}

	// Version counters get one increment each, project counters are summed
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(11), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(12), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(21), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(1), uint64(2)).Return(nil)
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(2), uint64(1)).Return(nil)
	mocks.store.EXPECT().UpsertDailyDownloads(gomock.Any(), uint64(1), testToday, uint64(2)).Return(nil)
	mocks.store.EXPECT().UpsertDailyDownloads(gomock.Any(), uint64(2), testToday, uint64(1)).Return(nil)

	// Both touched projects queue up for re-indexing
	mocks.syncQueue.EXPECT().
		Enqueue(gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, added, _ []uint64) error {
			assert.ElementsMatch(t, []uint64{1, 2}, added)
			return nil
		})

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_SameVersionRepeatDiscarded(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	// The same IP already downloaded this exact version in the current
	// history window: the repeat never counts
	history := []domain.DownloadEvent{
		{ID: "h1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11},
	}
	events := []domain.DownloadEvent{
		{ID: "e1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11},
	}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return(events, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(history, nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_UserIdentityMatchDiscarded(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	// Different IPs, same logged-in user, same version: still a repeat
	history := []domain.DownloadEvent{
		{ID: "h1", IPAddress: "10.0.0.1", UserID: "u1", ProjectID: 1, VersionID: 11},
	}
	events := []domain.DownloadEvent{
		{ID: "e1", IPAddress: "10.0.0.2", UserID: "u1", ProjectID: 1, VersionID: 11},
	}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return(events, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(history, nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_CrossVersionCap(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	// Two prior downloads of other versions by the same IP: the third
	// version still counts. Once it is accepted the identity sits at the
	// cap, so the fourth version is discarded.
	history := []domain.DownloadEvent{
		{ID: "h1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11},
		{ID: "h2", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 12},
	}
	accepted := domain.DownloadEvent{ID: "e1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 13}
	capped := domain.DownloadEvent{ID: "e2", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 14}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return([]domain.DownloadEvent{accepted, capped}, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(history, nil)

	mocks.history.EXPECT().Append(gomock.Any(), accepted).Return(nil)
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(13), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(1), uint64(1)).Return(nil)
	mocks.store.EXPECT().UpsertDailyDownloads(gomock.Any(), uint64(1), testToday, uint64(1)).Return(nil)
	mocks.syncQueue.EXPECT().Enqueue(gomock.Any(), []uint64{1}, gomock.Nil()).Return(nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_OtherProjectUnaffectedByCap(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	// The cap is per project: an identity maxed out on project 1 still
	// counts against project 2
	history := []domain.DownloadEvent{
		{ID: "h1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11},
		{ID: "h2", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 12},
		{ID: "h3", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 13},
	}
	event := domain.DownloadEvent{ID: "e1", IPAddress: "10.0.0.1", ProjectID: 2, VersionID: 21}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return([]domain.DownloadEvent{event}, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(history, nil)

	mocks.history.EXPECT().Append(gomock.Any(), event).Return(nil)
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(21), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(2), uint64(1)).Return(nil)
	mocks.store.EXPECT().UpsertDailyDownloads(gomock.Any(), uint64(2), testToday, uint64(1)).Return(nil)
	mocks.syncQueue.EXPECT().Enqueue(gomock.Any(), []uint64{2}, gomock.Nil()).Return(nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_HistoryAppendFailureStillCounts(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	event := domain.DownloadEvent{ID: "e1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return([]domain.DownloadEvent{event}, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(nil, nil)

	// A failed ledger write weakens future dedup but never drops the count
	mocks.history.EXPECT().Append(gomock.Any(), event).Return(errors.New("redis down"))
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(11), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(1), uint64(1)).Return(nil)
	mocks.store.EXPECT().UpsertDailyDownloads(gomock.Any(), uint64(1), testToday, uint64(1)).Return(nil)
	mocks.syncQueue.EXPECT().Enqueue(gomock.Any(), []uint64{1}, gomock.Nil()).Return(nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_FlushFailureIsolated(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	events := []domain.DownloadEvent{
		{ID: "e1", IPAddress: "10.0.0.1", ProjectID: 1, VersionID: 11},
		{ID: "e2", IPAddress: "10.0.0.2", ProjectID: 2, VersionID: 21},
	}

	mocks.expectCycleScaffolding()
	mocks.events.EXPECT().Drain(gomock.Any()).Return(events, nil)
	mocks.history.EXPECT().ReadAll(gomock.Any()).Return(nil, nil)
	mocks.history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	// Project 1's counter write fails: its daily upsert is skipped but
	// project 2 and both version counters still flush
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(1), uint64(1)).Return(errors.New("deadlock"))
	mocks.store.EXPECT().IncrementProjectDownloads(gomock.Any(), uint64(2), uint64(1)).Return(nil)
	mocks.store.EXPECT().UpsertDailyDownloads(gomock.Any(), uint64(2), testToday, uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(11), uint64(1)).Return(nil)
	mocks.store.EXPECT().IncrementVersionDownloads(gomock.Any(), uint64(21), uint64(1)).Return(nil)

	mocks.syncQueue.EXPECT().
		Enqueue(gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, added, _ []uint64) error {
			assert.ElementsMatch(t, []uint64{1, 2}, added)
			return nil
		})

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_RollsOverStaleDailyStats(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()
	yesterday := testToday.AddDate(0, 0, -1)

	rows := []schema.ProjectDailyStats{
		{ProjectID: 1, Date: yesterday, Downloads: 5},
		{ProjectID: 2, Date: yesterday, Downloads: 9},
	}

	mocks.gate.EXPECT().TryAcquire(gomock.Any()).Return(true, nil)
	mocks.gate.EXPECT().Release(gomock.Any()).Return(nil)

	mocks.store.EXPECT().ListRolloverCandidates(gomock.Any(), testToday).Return(rows, nil)
	// Rollover failures are isolated per row: project 1 fails, project 2
	// still rolls, the cycle continues either way
	mocks.store.EXPECT().RolloverDailyStats(gomock.Any(), rows[0], testToday).Return(errors.New("serialization failure"))
	mocks.store.EXPECT().RolloverDailyStats(gomock.Any(), rows[1], testToday).Return(nil)

	mocks.events.EXPECT().Drain(gomock.Any()).Return(nil, nil)

	err := mocks.engine.ProcessDownloads(ctx)
	require.NoError(t, err)
}

func TestProcessDownloads_DrainErrorReleasesGate(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	mocks.gate.EXPECT().TryAcquire(gomock.Any()).Return(true, nil)
	mocks.gate.EXPECT().Release(gomock.Any()).Return(nil)
	mocks.store.EXPECT().ListRolloverCandidates(gomock.Any(), testToday).Return(nil, nil)
	mocks.events.EXPECT().Drain(gomock.Any()).Return(nil, errors.New("connection refused"))

	err := mocks.engine.ProcessDownloads(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to drain event queue")
}

func TestProcessDownloads_GateError(t *testing.T) {
	mocks := setupTestCounter(t)
	defer tearDownTestCounter(mocks)

	ctx := context.Background()

	mocks.gate.EXPECT().TryAcquire(gomock.Any()).Return(false, errors.New("connection refused"))

	err := mocks.engine.ProcessDownloads(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check processing gate")
}
