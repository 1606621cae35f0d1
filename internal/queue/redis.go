package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/logger"
)

const (
	eventQueueKey  = "downloads:events"
	historyKey     = "downloads:history"
	gateKey        = "downloads:processing"
	syncAddedKey   = "search:sync:added"
	syncRemovedKey = "search:sync:removed"
)

// redisEventQueue implements EventQueue on a Redis list
type redisEventQueue struct {
	redis adapter.RedisClient
	json  adapter.JSON
}

// NewEventQueue creates a Redis-backed event queue
func NewEventQueue(redis adapter.RedisClient, json adapter.JSON) EventQueue {
	return &redisEventQueue{redis: redis, json: json}
}

func (q *redisEventQueue) Enqueue(ctx context.Context, event domain.DownloadEvent) error {
	payload, err := q.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal download event: %w", err)
	}
	if err := q.redis.RPush(ctx, eventQueueKey, string(payload)); err != nil {
		return fmt.Errorf("failed to enqueue download event: %w", err)
	}
	return nil
}

func (q *redisEventQueue) Drain(ctx context.Context) ([]domain.DownloadEvent, error) {
	raw, err := q.redis.DrainList(ctx, eventQueueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to drain event queue: %w", err)
	}
	return decodeEvents(ctx, q.json, eventQueueKey, raw), nil
}

// redisHistoryLedger implements HistoryLedger on a Redis list
type redisHistoryLedger struct {
	redis adapter.RedisClient
	json  adapter.JSON
}

// NewHistoryLedger creates a Redis-backed history ledger
func NewHistoryLedger(redis adapter.RedisClient, json adapter.JSON) HistoryLedger {
	return &redisHistoryLedger{redis: redis, json: json}
}

func (l *redisHistoryLedger) Append(ctx context.Context, entry domain.DownloadEvent) error {
	payload, err := l.json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	if err := l.redis.RPush(ctx, historyKey, string(payload)); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

func (l *redisHistoryLedger) ReadAll(ctx context.Context) ([]domain.DownloadEvent, error) {
	raw, err := l.redis.Range(ctx, historyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read history ledger: %w", err)
	}
	return decodeEvents(ctx, l.json, historyKey, raw), nil
}

func (l *redisHistoryLedger) ClearAll(ctx context.Context) error {
	if err := l.redis.Del(ctx, historyKey); err != nil {
		return fmt.Errorf("failed to clear history ledger: %w", err)
	}
	return nil
}

// decodeEvents unmarshals raw list entries, skipping malformed payloads
// individually so a single bad entry never fails a cycle
func decodeEvents(ctx context.Context, codec adapter.JSON, key string, raw []string) []domain.DownloadEvent {
	events := make([]domain.DownloadEvent, 0, len(raw))
	for _, item := range raw {
		var event domain.DownloadEvent
		if err := codec.Unmarshal([]byte(item), &event); err != nil {
			logger.WarnCtx(ctx, "Skipping malformed queue payload",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}
	return events
}

// redisGate implements ProcessingGate as a SET NX PX lease
type redisGate struct {
	redis adapter.RedisClient
	ttl   time.Duration
}

// NewProcessingGate creates a Redis-backed processing gate. The TTL bounds
// how long a crashed runner can keep the gate stuck.
func NewProcessingGate(redis adapter.RedisClient, ttl time.Duration) ProcessingGate {
	return &redisGate{redis: redis, ttl: ttl}
}

func (g *redisGate) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := g.redis.SetNX(ctx, gateKey, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire processing gate: %w", err)
	}
	return ok, nil
}

func (g *redisGate) Release(ctx context.Context) error {
	if err := g.redis.Del(ctx, gateKey); err != nil {
		return fmt.Errorf("failed to release processing gate: %w", err)
	}
	return nil
}

func (g *redisGate) Held(ctx context.Context) (bool, error) {
	val, err := g.redis.Get(ctx, gateKey)
	if err != nil {
		return false, fmt.Errorf("failed to read processing gate: %w", err)
	}
	return val != "", nil
}

// redisSyncQueue implements SyncQueue on a pair of Redis lists
type redisSyncQueue struct {
	redis adapter.RedisClient
}

// NewSyncQueue creates a Redis-backed search sync queue
func NewSyncQueue(redis adapter.RedisClient) SyncQueue {
	return &redisSyncQueue{redis: redis}
}

func (q *redisSyncQueue) Enqueue(ctx context.Context, added, removed []uint64) error {
	if err := q.push(ctx, syncAddedKey, added); err != nil {
		return err
	}
	return q.push(ctx, syncRemovedKey, removed)
}

func (q *redisSyncQueue) push(ctx context.Context, key string, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = strconv.FormatUint(id, 10)
	}
	if err := q.redis.RPush(ctx, key, values...); err != nil {
		return fmt.Errorf("failed to enqueue sync ids onto %s: %w", key, err)
	}
	return nil
}

func (q *redisSyncQueue) DrainAdded(ctx context.Context) ([]uint64, error) {
	return q.drain(ctx, syncAddedKey)
}

func (q *redisSyncQueue) DrainRemoved(ctx context.Context) ([]uint64, error) {
	return q.drain(ctx, syncRemovedKey)
}

func (q *redisSyncQueue) drain(ctx context.Context, key string) ([]uint64, error) {
	raw, err := q.redis.DrainList(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to drain %s: %w", key, err)
	}

	seen := make(map[uint64]struct{}, len(raw))
	ids := make([]uint64, 0, len(raw))
	for _, item := range raw {
		id, err := strconv.ParseUint(item, 10, 64)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping malformed sync queue id",
				zap.String("key", key),
				zap.String("value", item),
			)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
