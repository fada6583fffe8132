package auth

import (
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/auth/gate"
	"github.com/smallbiznis/authgate/internal/auth/password"
	"github.com/smallbiznis/authgate/internal/auth/repository"
	"github.com/smallbiznis/authgate/internal/auth/reset"
	"github.com/smallbiznis/authgate/internal/auth/service"
	"github.com/smallbiznis/authgate/internal/auth/session"
	"github.com/smallbiznis/authgate/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(provideHasher),
	fx.Provide(reset.NewManager),
	fx.Provide(service.New),
	session.Module,
	gate.Module,
)

func provideHasher(cfg config.Config) (domain.PasswordHasher, error) {
	return password.NewHasher(cfg.Auth.PasswordHashAlgo)
}
