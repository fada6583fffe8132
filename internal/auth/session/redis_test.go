package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisStore(t *testing.T, clk clock.Clock, ttl time.Duration, m *metrics.AuthMetrics) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, clk, ttl, zap.NewNop(), m), srv
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, srv := newRedisStore(t, nil, time.Minute, nil)
	ctx := context.Background()

	token, err := store.Create(ctx, "21")
	require.NoError(t, err)

	assert.True(t, srv.Exists(keySession+HashToken(token)))
	assert.False(t, srv.Exists(keySession+token), "raw tokens are never used as keys")

	userID, ok := store.Resolve(ctx, token)
	require.True(t, ok)
	assert.Equal(t, "21", userID)

	assert.True(t, store.Destroy(ctx, token))
	assert.False(t, store.Destroy(ctx, token))
	_, ok = store.Resolve(ctx, token)
	assert.False(t, ok)

	_, ok = store.Resolve(ctx, "")
	assert.False(t, ok)
	assert.False(t, store.Destroy(ctx, ""))
}

func TestRedisStoreRejectsBlankUser(t *testing.T) {
	store, srv := newRedisStore(t, nil, 0, nil)

	_, err := store.Create(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidUserID)
	assert.Empty(t, srv.Keys())
}

func TestRedisStoreExpiryBoundary(t *testing.T) {
	clk := clock.NewFakeClock(epoch)
	store, _ := newRedisStore(t, clk, time.Minute, nil)
	ctx := context.Background()

	token, err := store.Create(ctx, "22")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, ok := store.Resolve(ctx, token)
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok = store.Resolve(ctx, token)
	assert.False(t, ok)
}

func TestRedisStoreKeyTTL(t *testing.T) {
	store, srv := newRedisStore(t, nil, time.Minute, nil)
	ctx := context.Background()

	token, err := store.Create(ctx, "23")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, srv.TTL(keySession+HashToken(token)))

	srv.FastForward(time.Minute + time.Second)
	_, ok := store.Resolve(ctx, token)
	assert.False(t, ok)
}

func TestRedisStoreNonPositiveDurationNeverExpires(t *testing.T) {
	clk := clock.NewFakeClock(epoch)
	store, srv := newRedisStore(t, clk, -5*time.Second, nil)
	ctx := context.Background()

	token, err := store.Create(ctx, "24")
	require.NoError(t, err)
	assert.Zero(t, srv.TTL(keySession+HashToken(token)))

	clk.Advance(1000 * time.Hour)
	srv.FastForward(1000 * time.Hour)
	userID, ok := store.Resolve(ctx, token)
	assert.True(t, ok)
	assert.Equal(t, "24", userID)
}

func TestRedisStoreUnreadableRecordIsMissing(t *testing.T) {
	store, srv := newRedisStore(t, nil, 0, nil)

	require.NoError(t, srv.Set(keySession+HashToken("tok"), "not json"))
	_, ok := store.Resolve(context.Background(), "tok")
	assert.False(t, ok)
}

func TestRedisStoreFailureIsMissing(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewAuthMetrics(registry, metrics.Config{ServiceName: "authgate", Environment: "test"})
	store, srv := newRedisStore(t, nil, 0, m)
	ctx := context.Background()

	token, err := store.Create(ctx, "25")
	require.NoError(t, err)

	srv.SetError("ERR store unavailable")
	_, ok := store.Resolve(ctx, token)
	assert.False(t, ok)
	assert.False(t, store.Destroy(ctx, token))
	_, err = store.Create(ctx, "25")
	assert.Error(t, err)

	count, err := testutil.GatherAndCount(registry, "authgate_session_store_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	srv.SetError("")
	userID, ok := store.Resolve(ctx, token)
	assert.True(t, ok)
	assert.Equal(t, "25", userID)
}

func TestRedisStoreUnreachableIsMissing(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, nil, 0, zap.NewNop(), nil)
	ctx := context.Background()

	_, ok := store.Resolve(ctx, "token")
	assert.False(t, ok)
	assert.False(t, store.Destroy(ctx, "token"))
	_, err := store.Create(ctx, "26")
	assert.Error(t, err)
}
