package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (domain.Repository, domain.SessionRepository) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.UserSession{}))
	return New(conn)
}

func strPtr(s string) *string { return &s }

func TestCreateAndFind(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	user := &domain.User{ID: snowflake.ID(10), Email: "bob@example.com", FirstName: strPtr("Bob")}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindOne(ctx, domain.User{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Bob", *found.FirstName)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", byID.Email)

	_, err = repo.FindOne(ctx, domain.User{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.FindByID(ctx, snowflake.ID(99))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: snowflake.ID(1), Email: "dup@example.com"}))
	err := repo.Create(ctx, &domain.User{ID: snowflake.ID(2), Email: "dup@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUpdateListDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: snowflake.ID(1), Email: "a@example.com"}))
	require.NoError(t, repo.Create(ctx, &domain.User{ID: snowflake.ID(2), Email: "b@example.com"}))

	require.NoError(t, repo.UpdateFields(ctx, snowflake.ID(1), map[string]any{"last_name": "Ant"}))
	assert.ErrorIs(t, repo.UpdateFields(ctx, snowflake.ID(3), map[string]any{"last_name": "x"}), domain.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ant", *users[0].LastName)

	require.NoError(t, repo.Delete(ctx, snowflake.ID(2)))
	assert.ErrorIs(t, repo.Delete(ctx, snowflake.ID(2)), domain.ErrUserNotFound)
}

func TestConsumeResetTokenIsConditional(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: snowflake.ID(1), Email: "a@example.com", ResetToken: strPtr("tok")}))

	assert.ErrorIs(t, repo.ConsumeResetToken(ctx, snowflake.ID(1), "other", "digest"), domain.ErrResetTokenNotFound)
	require.NoError(t, repo.ConsumeResetToken(ctx, snowflake.ID(1), "tok", "digest"))
	assert.ErrorIs(t, repo.ConsumeResetToken(ctx, snowflake.ID(1), "tok", "digest2"), domain.ErrResetTokenNotFound)

	user, err := repo.FindByID(ctx, snowflake.ID(1))
	require.NoError(t, err)
	assert.Nil(t, user.ResetToken)
	require.NotNil(t, user.PasswordHash)
	assert.Equal(t, "digest", *user.PasswordHash)
}

func TestSessionRows(t *testing.T) {
	_, sessions := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, sessions.CreateSession(ctx, &domain.UserSession{ID: snowflake.ID(5), UserID: "1", SessionTokenHash: "h1"}))

	row, err := sessions.GetSessionByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "1", row.UserID)

	_, err = sessions.GetSessionByTokenHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	deleted, err := sessions.DeleteSessionByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = sessions.DeleteSessionByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestFindOneEmptyFilterMatchesNothing(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: snowflake.ID(1), Email: "a@example.com"}))

	_, err := repo.FindOne(ctx, domain.User{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.FindOne(ctx, domain.User{Email: ""})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
