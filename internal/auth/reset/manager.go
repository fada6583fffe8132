// Package reset issues and consumes single-use password reset tokens.
package reset

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	OpIssue   = "issue"
	OpConsume = "consume"
)

type Manager struct {
	repo    domain.Repository
	hasher  domain.PasswordHasher
	log     *zap.Logger
	metrics *metrics.AuthMetrics
}

func NewManager(repo domain.Repository, hasher domain.PasswordHasher, log *zap.Logger, m *metrics.AuthMetrics) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		repo:    repo,
		hasher:  hasher,
		log:     log.Named("auth.reset"),
		metrics: m,
	}
}

// Issue stores a fresh reset token on the user owning email, replacing any
// token issued before.
func (m *Manager) Issue(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		m.metrics.RecordResetToken(OpIssue, false)
		return "", domain.ErrUserNotFound
	}

	user, err := m.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		m.metrics.RecordResetToken(OpIssue, false)
		return "", err
	}

	token := uuid.NewString()
	if err := m.repo.UpdateFields(ctx, user.ID, map[string]any{"reset_token": token}); err != nil {
		m.metrics.RecordResetToken(OpIssue, false)
		return "", err
	}

	m.log.Debug("reset token issued", zap.String("user_id", user.ID.String()))
	m.metrics.RecordResetToken(OpIssue, true)
	return token, nil
}

// Consume replaces the password of the user holding token and invalidates
// the token. A token can be consumed at most once. A blank password is
// rejected before the token is looked up, so the token stays usable.
func (m *Manager) Consume(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		m.metrics.RecordResetToken(OpConsume, false)
		return domain.ErrPasswordRequired
	}
	if strings.TrimSpace(token) == "" {
		m.metrics.RecordResetToken(OpConsume, false)
		return domain.ErrResetTokenNotFound
	}

	user, err := m.repo.FindOne(ctx, domain.User{ResetToken: &token})
	if err != nil {
		m.metrics.RecordResetToken(OpConsume, false)
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrResetTokenNotFound
		}
		return err
	}

	digest, err := m.hasher.Hash(newPassword)
	if err != nil {
		m.metrics.RecordResetToken(OpConsume, false)
		return err
	}

	if err := m.repo.ConsumeResetToken(ctx, user.ID, token, digest); err != nil {
		m.metrics.RecordResetToken(OpConsume, false)
		return err
	}

	m.log.Debug("reset token consumed", zap.String("user_id", user.ID.String()))
	m.metrics.RecordResetToken(OpConsume, true)
	return nil
}
