package session

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"go.uber.org/zap"
)

// DBStore persists sessions through the session repository so they
// survive restarts. Expiration is evaluated against the stored created_at.
type DBStore struct {
	repo    authdomain.SessionRepository
	genID   *snowflake.Node
	ttl     time.Duration
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.AuthMetrics
}

func NewDBStore(repo authdomain.SessionRepository, genID *snowflake.Node, clk clock.Clock, ttl time.Duration, log *zap.Logger, m *metrics.AuthMetrics) *DBStore {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DBStore{
		repo:    repo,
		genID:   genID,
		ttl:     ttl,
		clock:   clk,
		log:     log.Named("auth.session.db"),
		metrics: m,
	}
}

func (s *DBStore) Create(ctx context.Context, userID string) (string, error) {
	if !validUserID(userID) {
		s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpCreate, false)
		return "", ErrInvalidUserID
	}
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	row := &authdomain.UserSession{
		ID:               s.genID.Generate(),
		UserID:           userID,
		SessionTokenHash: HashToken(token),
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repo.CreateSession(ctx, row); err != nil {
		s.metrics.RecordStoreError(BackendDB, err)
		s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpCreate, false)
		return "", err
	}

	s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpCreate, true)
	return token, nil
}

func (s *DBStore) Resolve(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}

	row, err := s.repo.GetSessionByTokenHash(ctx, HashToken(token))
	if err != nil {
		if !errors.Is(err, authdomain.ErrSessionNotFound) {
			s.log.Warn("session lookup failed", zap.Error(err))
			s.metrics.RecordStoreError(BackendDB, err)
		}
		s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpResolve, false)
		return "", false
	}

	if Expired(row.CreatedAt, s.clock.Now(), s.ttl) {
		s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpResolve, false)
		return "", false
	}

	s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpResolve, true)
	return row.UserID, true
}

func (s *DBStore) Destroy(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	deleted, err := s.repo.DeleteSessionByTokenHash(ctx, HashToken(token))
	if err != nil {
		s.log.Warn("session delete failed", zap.Error(err))
		s.metrics.RecordStoreError(BackendDB, err)
		deleted = false
	}
	s.metrics.RecordSessionOp(BackendDB, metrics.SessionOpDestroy, deleted)
	return deleted
}
