package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *User) error
	FindOne(ctx context.Context, user User) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	// ConsumeResetToken writes digest and clears the reset token only while
	// the user still holds token.
	ConsumeResetToken(ctx context.Context, id snowflake.ID, token, digest string) error
	Delete(ctx context.Context, id snowflake.ID) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *UserSession) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*UserSession, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) (bool, error)
}
