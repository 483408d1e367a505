package redisledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

const (
	keyPrefix = "delivery:event:"
	recordTTL = time.Hour
)

// kvStore is the narrow slice of the key-value store the ledger needs.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisKV struct {
	rdb *redis.Client
}

func (s redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s redisKV) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Ledger tracks dispatch/delivery status per event id with a bounded
// lifetime. Every operation is best-effort: store failures are logged and
// absorbed so the dispatch path never fails because of ledger availability.
type Ledger struct {
	store  kvStore
	logger zerolog.Logger
}

// New creates a ledger over the shared Redis connection.
func New(rdb *redis.Client, logger zerolog.Logger) *Ledger {
	return newWithStore(redisKV{rdb: rdb}, logger)
}

func newWithStore(store kvStore, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With().Str("service", "delivery-ledger").Logger(),
	}
}

// MarkDispatched upserts the record as dispatched on the given channel and
// resets its TTL. A record already acknowledged as delivered keeps its
// delivered status; only the dispatch fields are filled in.
func (l *Ledger) MarkDispatched(ctx context.Context, eventID, channel string) {
	if eventID == "" {
		return
	}
	rec := l.load(ctx, eventID)
	if rec == nil {
		rec = &notification.DeliveryRecord{}
	}
	if rec.Status != notification.StatusDelivered {
		rec.Status = notification.StatusDispatched
	}
	rec.Channel = channel
	rec.DispatchedAt = time.Now().UTC().UnixMilli()
	l.save(ctx, eventID, rec)
}

// MarkDelivered records delivery acknowledgment. When no record exists yet
// (a fast in-app acknowledgment racing ahead of the dispatch-time write) a
// new record is created directly in the delivered state.
func (l *Ledger) MarkDelivered(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	rec := l.load(ctx, eventID)
	if rec == nil {
		rec = &notification.DeliveryRecord{}
	}
	rec.Status = notification.StatusDelivered
	rec.DeliveredAt = time.Now().UTC().UnixMilli()
	l.save(ctx, eventID, rec)
}

// Status returns the record for an event, or nil when absent or the store
// is unavailable.
func (l *Ledger) Status(ctx context.Context, eventID string) *notification.DeliveryRecord {
	if eventID == "" {
		return nil
	}
	return l.load(ctx, eventID)
}

// IsDelivered reports whether the event was acknowledged as delivered.
func (l *Ledger) IsDelivered(ctx context.Context, eventID string) bool {
	rec := l.load(ctx, eventID)
	return rec != nil && rec.Status == notification.StatusDelivered
}

func (l *Ledger) load(ctx context.Context, eventID string) *notification.DeliveryRecord {
	data, found, err := l.store.Get(ctx, keyPrefix+eventID)
	if err != nil {
		l.logger.Warn().Err(err).Str("event_id", eventID).Msg("ledger read failed")
		return nil
	}
	if !found {
		return nil
	}
	var rec notification.DeliveryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		l.logger.Warn().Err(err).Str("event_id", eventID).Msg("ledger record corrupt")
		return nil
	}
	return &rec
}

func (l *Ledger) save(ctx context.Context, eventID string, rec *notification.DeliveryRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		l.logger.Warn().Err(err).Str("event_id", eventID).Msg("ledger record marshal failed")
		return
	}
	if err := l.store.SetEx(ctx, keyPrefix+eventID, data, recordTTL); err != nil {
		l.logger.Warn().Err(err).Str("event_id", eventID).Msg("ledger write failed")
	}
}
