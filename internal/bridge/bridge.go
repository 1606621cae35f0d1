// Package bridge consumes platform events from NATS JetStream and feeds the
// Redis-backed queues the background engines drain. It is the only inbound
// coupling between the request-serving tier and the aggregation core:
// request handlers publish and return immediately, the bridge enqueues.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/queue"
)

const (
	// SubjectDownloadRecorded carries one message per qualifying
	// primary-file download (non-edge-cache requests only)
	SubjectDownloadRecorded = "events.downloads.recorded"

	// SubjectProjectChanged carries one message per mutation of a
	// project's indexable fields, visibility, or status
	SubjectProjectChanged = "events.projects.changed"
)

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Bridge defines the interface for the event bridge
type Bridge interface {
	// Run starts the event bridge
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type eventBridge struct {
	nc        adapter.NatsConn
	js        adapter.JetStream
	events    queue.EventQueue
	syncQueue queue.SyncQueue
	json      adapter.JSON
	config    Config
}

// NewBridge creates a new event bridge
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	events queue.EventQueue,
	syncQueue queue.SyncQueue,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &eventBridge{
		nc:        nc,
		js:        js,
		events:    events,
		syncQueue: syncQueue,
		json:      jsonAdapter,
		config:    cfg,
	}, nil
}

// Run starts consuming platform events
func (b *eventBridge) Run(ctx context.Context) error {
	logger.Info("Starting event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
	)

	consumerConfig := jetstream.ConsumerConfig{
		Durable:        b.config.ConsumerName,
		AckPolicy:      jetstream.AckExplicitPolicy,
		AckWait:        b.config.AckWaitTimeout,
		MaxDeliver:     b.config.MaxDeliver,
		FilterSubjects: []string{SubjectDownloadRecorded, SubjectProjectChanged},
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down event bridge")
			return ctx.Err()
		case msg := <-msgChan:
			go b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage routes a single NATS message to the matching queue
func (b *eventBridge) handleMessage(ctx context.Context, msg adapter.Message) {
	switch msg.Subject() {
	case SubjectDownloadRecorded:
		b.handleDownloadRecorded(ctx, msg)
	case SubjectProjectChanged:
		b.handleProjectChanged(ctx, msg)
	default:
		logger.Warn("Received message on unexpected subject", zap.String("subject", msg.Subject()))
		b.term(msg)
	}
}

// handleDownloadRecorded assigns a fresh event id and pushes the download
// onto the counter engine's queue
func (b *eventBridge) handleDownloadRecorded(ctx context.Context, msg adapter.Message) {
	var event domain.DownloadEvent
	if err := b.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal download event"))
		b.term(msg)
		return
	}
	if event.ProjectID == 0 || event.VersionID == 0 {
		logger.Warn("Dropping download event without project/version ids")
		b.term(msg)
		return
	}

	// Queue entries carry their own opaque id; whatever the publisher set
	// is replaced so replays cannot collide
	event.ID = uuid.NewString()

	if err := b.events.Enqueue(ctx, event); err != nil {
		logger.Error(err, zap.String("message", "Failed to enqueue download event"))
		b.nak(msg)
		return
	}
	b.ack(msg)
}

// handleProjectChanged pushes the project id onto the matching sync list
func (b *eventBridge) handleProjectChanged(ctx context.Context, msg adapter.Message) {
	var change domain.ProjectChangedEvent
	if err := b.json.Unmarshal(msg.Data(), &change); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal project change"))
		b.term(msg)
		return
	}
	if change.ProjectID == 0 {
		logger.Warn("Dropping project change without project id")
		b.term(msg)
		return
	}

	var err error
	switch change.Kind {
	case domain.ProjectChangeRemoved:
		err = b.syncQueue.Enqueue(ctx, nil, []uint64{change.ProjectID})
	case domain.ProjectChangeUpserted:
		err = b.syncQueue.Enqueue(ctx, []uint64{change.ProjectID}, nil)
	default:
		logger.Warn("Dropping project change with unknown kind",
			zap.String("kind", string(change.Kind)),
			zap.Uint64("project_id", change.ProjectID),
		)
		b.term(msg)
		return
	}
	if err != nil {
		logger.Error(err, zap.String("message", "Failed to enqueue project change"))
		b.nak(msg)
		return
	}
	b.ack(msg)
}

func (b *eventBridge) ack(msg adapter.Message) {
	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

func (b *eventBridge) nak(msg adapter.Message) {
	if err := msg.Nak(); err != nil {
		logger.Error(err, zap.String("message", "Failed to NAK message"))
	}
}

func (b *eventBridge) term(msg adapter.Message) {
	if err := msg.Term(); err != nil {
		logger.Error(err, zap.String("message", "Failed to terminate message"))
	}
}

// Close closes the NATS connection
func (b *eventBridge) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}
