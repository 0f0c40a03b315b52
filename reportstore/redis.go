package reportstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appshell/stopwatch"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// DefaultRedisPrefix namespaces report keys.
const DefaultRedisPrefix = "appshell:report:"

// listPageSize is the number of index entries read per round trip when List has no limit.
const listPageSize = 100

// RedisStore keeps msgpack-encoded reports in Redis with an expiry.
type RedisStore struct {
	client *redis.Client
	logger *zap.SugaredLogger
	prefix string
	ttl    time.Duration
	clock  clock.Clock
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the report expiry. Zero keeps reports forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore connects to addr.
func NewRedisStore(addr, password string, db, poolSize int, logger *zap.SugaredLogger, opts ...RedisOption) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	return NewRedisStoreFromClient(client, logger, opts...)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, logger *zap.SugaredLogger, opts ...RedisOption) *RedisStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &RedisStore{
		client: client,
		logger: logger,
		prefix: DefaultRedisPrefix,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(runID string) string {
	return s.prefix + runID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Ping tests the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Publish stores report under runID and indexes it by creation time.
func (s *RedisStore) Publish(ctx context.Context, runID, kind string, report stopwatch.Report) error {
	if !validRunID(runID) {
		return errEmptyRunID
	}
	rec := NewRecord(runID, kind, report, s.clock.Now())
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(runID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(rec.CreatedAt.UnixNano()), Member: runID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store report %s: %w", runID, err)
	}
	return nil
}

// Get loads one report.
func (s *RedisStore) Get(ctx context.Context, runID string) (Record, error) {
	data, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return Record{}, fmt.Errorf("failed to load report %s: %w", runID, err)
	}

	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode report %s: %w", runID, err)
	}
	return rec, nil
}

// List returns up to limit reports, newest first. Index entries whose report
// expired are dropped from the index.
func (s *RedisStore) List(ctx context.Context, limit int) ([]Record, error) {
	out := make([]Record, 0)
	var expired []any

	// Expired reports leave their index entry behind, so keep paging until
	// limit live records are found or the index runs out.
	for start := int64(0); limit <= 0 || len(out) < limit; {
		count := int64(listPageSize)
		if limit > 0 {
			count = int64(limit - len(out))
		}
		ids, err := s.client.ZRevRange(ctx, s.indexKey(), start, start+count-1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read report index: %w", err)
		}
		start += int64(len(ids))

		for _, id := range ids {
			rec, err := s.Get(ctx, id)
			if errors.Is(err, ErrNotFound) {
				expired = append(expired, id)
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		if int64(len(ids)) < count {
			break
		}
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			s.logger.Warnw("Failed to prune expired reports from index", "count", len(expired), "error", err)
		}
	}
	return out, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
