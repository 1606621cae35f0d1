package bridge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/bridge"
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/mocks"
)

// testBridgeMocks contains all the mocks needed for testing the event bridge
type testBridgeMocks struct {
	ctrl       *gomock.Controller
	natsJS     *mocks.MockNatsJetStream
	conn       *mocks.MockNatsConn
	js         *mocks.MockJetStream
	consumer   *mocks.MockNatsConsumer
	consumeCtx *mocks.MockConsumeContext
	events     *mocks.MockEventQueue
	syncQueue  *mocks.MockSyncQueue
	bridge     bridge.Bridge
}

func setupTestBridge(t *testing.T) *testBridgeMocks {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testBridgeMocks{
		ctrl:       ctrl,
		natsJS:     mocks.NewMockNatsJetStream(ctrl),
		conn:       mocks.NewMockNatsConn(ctrl),
		js:         mocks.NewMockJetStream(ctrl),
		consumer:   mocks.NewMockNatsConsumer(ctrl),
		consumeCtx: mocks.NewMockConsumeContext(ctrl),
		events:     mocks.NewMockEventQueue(ctrl),
		syncQueue:  mocks.NewMockSyncQueue(ctrl),
	}

	cfg := bridge.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "PLATFORM_EVENTS",
		ConsumerName:   "mh-aggregator",
		MaxReconnects:  5,
		ReconnectWait:  time.Second,
		ConnectionName: "mh-aggregator-test",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     3,
	}

	tm.natsJS.EXPECT().
		Connect(cfg.URL, gomock.Any()).
		Return(tm.conn, tm.js, nil)

	b, err := bridge.NewBridge(cfg, tm.natsJS, tm.events, tm.syncQueue, adapter.NewJSON())
	require.NoError(t, err)
	tm.bridge = b

	return tm
}

func tearDownTestBridge(tm *testBridgeMocks) {
	tm.ctrl.Finish()
}

// runBridge starts the bridge loop and returns the captured message handler
// plus a shutdown func that cancels the loop and waits for it to exit
func runBridge(t *testing.T, tm *testBridgeMocks) (adapter.MessageHandler, func()) {
	handlerCh := make(chan adapter.MessageHandler, 1)

	tm.js.EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), "PLATFORM_EVENTS", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			assert.Equal(t, "mh-aggregator", cfg.Durable)
			assert.ElementsMatch(t,
				[]string{bridge.SubjectDownloadRecorded, bridge.SubjectProjectChanged},
				cfg.FilterSubjects,
			)
			return tm.consumer, nil
		})
	tm.consumer.EXPECT().Info(gomock.Any()).Return(&jetstream.ConsumerInfo{Name: "mh-aggregator"}, nil)
	tm.consumer.EXPECT().
		Consume(gomock.Any()).
		DoAndReturn(func(h adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			handlerCh <- h
			return tm.consumeCtx, nil
		})
	tm.consumeCtx.EXPECT().Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tm.bridge.Run(ctx)
	}()

	var handler adapter.MessageHandler
	select {
	case handler = <-handlerCh:
	case <-time.After(5 * time.Second):
		t.Fatal("bridge never subscribed")
	}

	return handler, func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("bridge never shut down")
		}
	}
}

func TestBridge_DownloadRecorded(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Subject().Return(bridge.SubjectDownloadRecorded).AnyTimes()
	msg.EXPECT().Data().Return([]byte(`{"ip_address":"10.0.0.1","user_id":"u1","project_id":1,"version_id":11}`))

	acked := make(chan struct{})
	tm.events.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event domain.DownloadEvent) error {
			// The bridge assigns its own opaque id before enqueueing
			assert.NotEmpty(t, event.ID)
			assert.Equal(t, "10.0.0.1", event.IPAddress)
			assert.Equal(t, "u1", event.UserID)
			assert.Equal(t, uint64(1), event.ProjectID)
			assert.Equal(t, uint64(11), event.VersionID)
			return nil
		})
	msg.EXPECT().Ack().DoAndReturn(func() error {
		close(acked)
		return nil
	})

	handler(msg)
	select {
	case <-acked:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never acked")
	}
}

func TestBridge_DownloadRecordedMalformed(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Subject().Return(bridge.SubjectDownloadRecorded).AnyTimes()
	msg.EXPECT().Data().Return([]byte(`{not json`))

	// Unparseable payloads are poison: terminated, never redelivered
	termed := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(termed)
		return nil
	})

	handler(msg)
	select {
	case <-termed:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never terminated")
	}
}

func TestBridge_DownloadRecordedMissingIDs(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Subject().Return(bridge.SubjectDownloadRecorded).AnyTimes()
	msg.EXPECT().Data().Return([]byte(`{"ip_address":"10.0.0.1"}`))

	termed := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(termed)
		return nil
	})

	handler(msg)
	select {
	case <-termed:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never terminated")
	}
}

func TestBridge_DownloadRecordedEnqueueFailure(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Subject().Return(bridge.SubjectDownloadRecorded).AnyTimes()
	msg.EXPECT().Data().Return([]byte(`{"ip_address":"10.0.0.1","project_id":1,"version_id":11}`))

	// A Redis failure is transient: NAK so JetStream redelivers
	tm.events.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	naked := make(chan struct{})
	msg.EXPECT().Nak().DoAndReturn(func() error {
		close(naked)
		return nil
	})

	handler(msg)
	select {
	case <-naked:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never nak'd")
	}
}

func TestBridge_ProjectChanged(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	upserted := mocks.NewMockJetStreamMessage(tm.ctrl)
	upserted.EXPECT().Subject().Return(bridge.SubjectProjectChanged).AnyTimes()
	upserted.EXPECT().Data().Return([]byte(`{"project_id":5,"kind":"upserted"}`))
	tm.syncQueue.EXPECT().Enqueue(gomock.Any(), []uint64{5}, gomock.Nil()).Return(nil)
	ackedUpsert := make(chan struct{})
	upserted.EXPECT().Ack().DoAndReturn(func() error {
		close(ackedUpsert)
		return nil
	})

	removed := mocks.NewMockJetStreamMessage(tm.ctrl)
	removed.EXPECT().Subject().Return(bridge.SubjectProjectChanged).AnyTimes()
	removed.EXPECT().Data().Return([]byte(`{"project_id":6,"kind":"removed"}`))
	tm.syncQueue.EXPECT().Enqueue(gomock.Any(), gomock.Nil(), []uint64{6}).Return(nil)
	ackedRemove := make(chan struct{})
	removed.EXPECT().Ack().DoAndReturn(func() error {
		close(ackedRemove)
		return nil
	})

	handler(upserted)
	handler(removed)
	for _, ch := range []chan struct{}{ackedUpsert, ackedRemove} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatal("message was never acked")
		}
	}
}

func TestBridge_ProjectChangedUnknownKind(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Subject().Return(bridge.SubjectProjectChanged).AnyTimes()
	msg.EXPECT().Data().Return([]byte(`{"project_id":5,"kind":"renamed"}`))

	termed := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(termed)
		return nil
	})

	handler(msg)
	select {
	case <-termed:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never terminated")
	}
}

func TestBridge_UnexpectedSubject(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	handler, shutdown := runBridge(t, tm)
	defer shutdown()

	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Subject().Return("events.unrelated").AnyTimes()

	termed := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(termed)
		return nil
	})

	handler(msg)
	select {
	case <-termed:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never terminated")
	}
}

func TestBridge_Close(t *testing.T) {
	tm := setupTestBridge(t)
	defer tearDownTestBridge(tm)

	tm.conn.EXPECT().Close()
	tm.bridge.Close()
}
