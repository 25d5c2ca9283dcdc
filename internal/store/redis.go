package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/wildkids/internal/progress"
)

// ErrNotFound is returned by Remote.Load when the user has no record.
var ErrNotFound = errors.New("not found")

// maxUpdateAttempts bounds the optimistic-lock retries of RedisRemote.Update.
const maxUpdateAttempts = 8

// Remote is the canonical per-user store for signed-in users.
type Remote interface {
	Load(ctx context.Context, userID string) (progress.Record, error)
	// Update applies fn to the current record and stores the result
	// atomically with respect to other writers.
	Update(ctx context.Context, userID string, fn func(*progress.Record) error) (progress.Record, error)
	// Subscribe calls fn with the current stats and then with the fresh
	// stats after every change to the user's record.
	Subscribe(ctx context.Context, userID string, fn func(progress.Stats)) (*Subscription, error)
}

// RedisRemote keeps each user's record as a JSON document at
// <prefix>:user:<id> and announces changes on <prefix>:user:<id>:progress.
type RedisRemote struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisRemote(rdb *redis.Client, prefix string, logger *slog.Logger) *RedisRemote {
	return &RedisRemote{rdb: rdb, prefix: prefix, logger: logger}
}

func (r *RedisRemote) key(userID string) string {
	return r.prefix + ":user:" + userID
}

func (r *RedisRemote) channel(userID string) string {
	return r.key(userID) + ":progress"
}

func decodeRecord(data []byte) (progress.Record, error) {
	rec := progress.NewRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return progress.Record{}, fmt.Errorf("decoding record: %w", err)
	}
	rec.Normalize()
	return rec, nil
}

func (r *RedisRemote) Load(ctx context.Context, userID string) (progress.Record, error) {
	data, err := r.rdb.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return progress.Record{}, ErrNotFound
	}
	if err != nil {
		return progress.Record{}, fmt.Errorf("loading record: %w", err)
	}
	return decodeRecord(data)
}

// Update does a read-merge-write under WATCH, retrying when another writer
// changes the record between the read and the write. The fresh stats are
// published in the same MULTI block.
func (r *RedisRemote) Update(ctx context.Context, userID string, fn func(*progress.Record) error) (progress.Record, error) {
	key := r.key(userID)

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		var out progress.Record
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			rec := progress.NewRecord()
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				if rec, err = decodeRecord(data); err != nil {
					return err
				}
			}

			if err := fn(&rec); err != nil {
				return err
			}
			rec.Normalize()

			doc, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			stats, err := json.Marshal(rec.Progress)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, doc, 0)
				pipe.Publish(ctx, r.channel(userID), stats)
				return nil
			})
			out = rec
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("record changed during update, retrying", "user_id", userID, "attempt", attempt)
			continue
		}
		if err != nil {
			return progress.Record{}, fmt.Errorf("updating record: %w", err)
		}
		return out, nil
	}
	return progress.Record{}, fmt.Errorf("updating record: gave up after %d attempts", maxUpdateAttempts)
}

func (r *RedisRemote) Subscribe(ctx context.Context, userID string, fn func(progress.Stats)) (*Subscription, error) {
	ps := r.rdb.Subscribe(ctx, r.channel(userID))
	// Wait for the confirmation so that no change published after
	// Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribing: %w", err)
	}

	rec, err := r.Load(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		rec, err = progress.NewRecord(), nil
	}
	if err != nil {
		ps.Close()
		return nil, err
	}

	sub := NewSubscription(func() { ps.Close() })
	sub.Deliver(func() { fn(rec.Progress) })

	go func() {
		for msg := range ps.Channel() {
			var stats progress.Stats
			if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
				r.logger.Warn("dropping malformed progress update", "user_id", userID, "error", err)
				continue
			}
			stats = progress.Aggregate(stats.Games)
			if !sub.Deliver(func() { fn(stats) }) {
				return
			}
		}
	}()

	return sub, nil
}
