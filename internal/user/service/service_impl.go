package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Repo   authdomain.Repository
	Hasher authdomain.PasswordHasher
	GenID  *snowflake.Node
	Clock  clock.Clock
}

type Service struct {
	log    *zap.Logger
	repo   authdomain.Repository
	hasher authdomain.PasswordHasher
	genID  *snowflake.Node
	clock  clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:    p.Log.Named("user.service"),
		repo:   p.Repo,
		hasher: p.Hasher,
		genID:  p.GenID,
		clock:  clk,
	}
}

func (s *Service) List(ctx context.Context) ([]authdomain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*authdomain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*authdomain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, authdomain.ErrEmailRequired
	}
	if req.Password == "" {
		return nil, authdomain.ErrPasswordRequired
	}

	now := s.clock.Now()
	user := &authdomain.User{
		ID:        s.genID.Generate(),
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.SetPassword(&req.Password, s.hasher); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*authdomain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// parseID maps malformed ids to not found, as no user can carry them.
func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, authdomain.ErrUserNotFound
	}
	return id, nil
}

var _ domain.Service = (*Service)(nil)
