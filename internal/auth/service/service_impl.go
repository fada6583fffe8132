package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/auth/password"
	"github.com/smallbiznis/authgate/internal/auth/reset"
	"github.com/smallbiznis/authgate/internal/auth/session"
	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	endpointServiceLogin = "service"
	stageIssue           = "issue"
	stageConsume         = "consume"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Hasher  domain.PasswordHasher
	Store   session.Store
	Resets  *reset.Manager
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	hasher  domain.PasswordHasher
	verify  domain.PasswordVerifier
	store   session.Store
	resets  *reset.Manager
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:     p.Log.Named("auth.service"),
		repo:    p.Repo,
		hasher:  p.Hasher,
		verify:  password.Verify,
		store:   p.Store,
		resets:  p.Resets,
		genID:   p.GenID,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) RegisterUser(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}
	if req.Password == "" {
		return nil, domain.ErrPasswordRequired
	}

	if _, err := s.repo.FindOne(ctx, domain.User{Email: email}); err == nil {
		s.metrics.RecordRegistration(ctx, false)
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
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
		s.metrics.RecordRegistration(ctx, false)
		return nil, err
	}

	s.metrics.RecordRegistration(ctx, true)
	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, pwd string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		return nil, err
	}
	if !user.IsValidPassword(pwd, s.verify) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// ValidLogin reports whether email and pwd identify a user. Every failure,
// a lookup error included, is false.
func (s *Service) ValidLogin(ctx context.Context, email, pwd string) bool {
	_, err := s.Authenticate(ctx, email, pwd)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) && !errors.Is(err, domain.ErrInvalidCredentials) && !errors.Is(err, domain.ErrEmailRequired) {
		s.log.Warn("login check failed", zap.Error(err))
	}
	s.metrics.RecordLoginAttempt(ctx, endpointServiceLogin, err == nil)
	return err == nil
}

func (s *Service) CreateSession(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", domain.ErrUserNotFound
	}
	user, err := s.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		return "", err
	}
	return s.store.Create(ctx, user.ID.String())
}

func (s *Service) UserFromSession(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrInvalidSession
	}
	userID, ok := s.store.Resolve(ctx, token)
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	id, err := snowflake.ParseString(userID)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidSession
	}
	return user, err
}

func (s *Service) DestroySession(ctx context.Context, token string) error {
	if !s.store.Destroy(ctx, token) {
		return domain.ErrInvalidSession
	}
	return nil
}

func (s *Service) ResetPasswordToken(ctx context.Context, email string) (string, error) {
	token, err := s.resets.Issue(ctx, email)
	s.metrics.RecordPasswordReset(ctx, stageIssue, err == nil)
	return token, err
}

func (s *Service) UpdatePassword(ctx context.Context, resetToken, pwd string) error {
	err := s.resets.Consume(ctx, resetToken, pwd)
	s.metrics.RecordPasswordReset(ctx, stageConsume, err == nil)
	return err
}

var _ domain.Service = (*Service)(nil)
