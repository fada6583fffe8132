package session

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/config"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("auth.session",
	fx.Provide(NewManager),
	fx.Provide(NewStore),
)

type StoreParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Cfg         config.Config
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	SessionRepo authdomain.SessionRepository
	Metrics     *metrics.AuthMetrics `optional:"true"`
}

// NewStore builds the single session store selected by SESSION_STORE.
func NewStore(p StoreParams) (Store, error) {
	ttl := p.Cfg.Auth.SessionDuration
	switch p.Cfg.Auth.SessionStore {
	case config.StoreMemory, "":
		return NewMemoryStore(p.Clock, ttl, p.Metrics), nil
	case config.StoreDB:
		return NewDBStore(p.SessionRepo, p.GenID, p.Clock, ttl, p.Log, p.Metrics), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     p.Cfg.Redis.Addr,
			Password: p.Cfg.Redis.Password,
			DB:       p.Cfg.Redis.DB,
		})
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return NewRedisStore(client, p.Clock, ttl, p.Log, p.Metrics), nil
	default:
		return nil, fmt.Errorf("unsupported session store %q", p.Cfg.Auth.SessionStore)
	}
}
