package reset

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/auth/password"
	"github.com/smallbiznis/authgate/internal/auth/repository"
	"github.com/smallbiznis/authgate/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Manager, domain.Repository) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}))

	repo, _ := repository.New(conn)
	hasher, err := password.NewHasher(password.AlgorithmBcrypt)
	require.NoError(t, err)

	user := &domain.User{ID: snowflake.ID(1), Email: "bob@example.com"}
	require.NoError(t, user.SetPassword(ptr("old"), hasher))
	require.NoError(t, repo.Create(context.Background(), user))

	return NewManager(repo, hasher, nil, nil), repo
}

func ptr(s string) *string { return &s }

func TestIssueUnknownEmail(t *testing.T) {
	m, _ := setup(t)

	_, err := m.Issue(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = m.Issue(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIssueOverwritesPreviousToken(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	first, err := m.Issue(ctx, "bob@example.com")
	require.NoError(t, err)
	second, err := m.Issue(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, m.Consume(ctx, first, "new"), domain.ErrResetTokenNotFound)
	assert.NoError(t, m.Consume(ctx, second, "new"))
}

func TestConsumeIsSingleUse(t *testing.T) {
	m, repo := setup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, "bob@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Consume(ctx, token, "fresh"))
	assert.ErrorIs(t, m.Consume(ctx, token, "again"), domain.ErrResetTokenNotFound)

	user, err := repo.FindByID(ctx, snowflake.ID(1))
	require.NoError(t, err)
	assert.Nil(t, user.ResetToken)
	assert.True(t, user.IsValidPassword("fresh", password.Verify))
	assert.False(t, user.IsValidPassword("old", password.Verify))
	assert.False(t, user.IsValidPassword("again", password.Verify))
}

func TestConsumeBlankToken(t *testing.T) {
	m, _ := setup(t)
	assert.ErrorIs(t, m.Consume(context.Background(), "", "x"), domain.ErrResetTokenNotFound)
	assert.ErrorIs(t, m.Consume(context.Background(), "not-a-token", "x"), domain.ErrResetTokenNotFound)
}

func TestConsumeBlankPasswordKeepsToken(t *testing.T) {
	m, repo := setup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, "bob@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Consume(ctx, token, ""), domain.ErrPasswordRequired)

	user, err := repo.FindByID(ctx, snowflake.ID(1))
	require.NoError(t, err)
	require.NotNil(t, user.ResetToken)
	assert.Equal(t, token, *user.ResetToken)
	assert.True(t, user.IsValidPassword("old", password.Verify))
	assert.False(t, user.IsValidPassword("", password.Verify))

	assert.NoError(t, m.Consume(ctx, token, "fresh"))
}

func TestConcurrentConsumeSucceedsOnce(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, "bob@example.com")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Consume(ctx, token, "p") == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}
