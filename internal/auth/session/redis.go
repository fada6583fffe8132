package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"go.uber.org/zap"
)

const keySession = "authgate:session:"

type redisRecord struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps sessions in Redis keyed by the token digest.
// With a positive ttl the key carries the same expiry, and created_at is
// still checked on resolve.
type RedisStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.AuthMetrics
}

func NewRedisStore(client redis.UniversalClient, clk clock.Clock, ttl time.Duration, log *zap.Logger, m *metrics.AuthMetrics) *RedisStore {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		clock:   clk,
		log:     log.Named("auth.session.redis"),
		metrics: m,
	}
}

func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	if !validUserID(userID) {
		s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpCreate, false)
		return "", ErrInvalidUserID
	}
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(redisRecord{UserID: userID, CreatedAt: s.clock.Now()})
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, keySession+HashToken(token), payload, max(s.ttl, 0)).Err(); err != nil {
		s.metrics.RecordStoreError(BackendRedis, err)
		s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpCreate, false)
		return "", err
	}

	s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpCreate, true)
	return token, nil
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}

	raw, err := s.client.Get(ctx, keySession+HashToken(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("session lookup failed", zap.Error(err))
			s.metrics.RecordStoreError(BackendRedis, err)
		}
		s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpResolve, false)
		return "", false
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.UserID == "" {
		s.log.Warn("session record unreadable", zap.Error(err))
		s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpResolve, false)
		return "", false
	}
	if Expired(rec.CreatedAt, s.clock.Now(), s.ttl) {
		s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpResolve, false)
		return "", false
	}

	s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpResolve, true)
	return rec.UserID, true
}

func (s *RedisStore) Destroy(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	n, err := s.client.Del(ctx, keySession+HashToken(token)).Result()
	if err != nil {
		s.log.Warn("session delete failed", zap.Error(err))
		s.metrics.RecordStoreError(BackendRedis, err)
		n = 0
	}
	s.metrics.RecordSessionOp(BackendRedis, metrics.SessionOpDestroy, n > 0)
	return n > 0
}
