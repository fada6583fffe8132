package userdump

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/config"
	"github.com/smallbiznis/authgate/internal/observability/logger"
	"github.com/smallbiznis/authgate/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFormatRow(t *testing.T) {
	got := FormatRow(
		[]string{"id", "email", "first_name"},
		[]sql.NullString{{String: "1", Valid: true}, {String: "a@b.c", Valid: true}, {}},
	)
	assert.Equal(t, "id=1; email=a@b.c; first_name=None;", got)
}

func TestPIIFields(t *testing.T) {
	fields := PIIFields([]string{"Email", "ssn", " "})
	assert.Equal(t, []string{"email", "ssn", "password_hash", "first_name", "last_name", "reset_token"}, fields)
}

func TestDumpRedactsUsers(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}))

	first := "Ada"
	digest := "$2a$10$abcdefghijklmnopqrstuu"
	require.NoError(t, conn.Create(&authdomain.User{ID: snowflake.ID(7), Email: "ada@example.com", FirstName: &first, PasswordHash: &digest}).Error)
	require.NoError(t, conn.Create(&authdomain.User{ID: snowflake.ID(8), Email: "bob@example.com"}).Error)

	var buf bytes.Buffer
	log := logger.NewWriterLogger(&buf, LoggerName, zapcore.InfoLevel, PIIFields(config.DefaultPIIFields))

	count, err := Dump(context.Background(), conn, "", log)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "user_data"))
	assert.Contains(t, out, "id=7;")
	assert.Contains(t, out, "email=***;")
	assert.Contains(t, out, "first_name=***;")
	assert.Contains(t, out, "password_hash=***;")
	assert.NotContains(t, out, "ada@example.com")
	assert.NotContains(t, out, "Ada")
	assert.NotContains(t, out, digest)
}

func TestDumpRejectsTableExpressions(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}))

	var buf bytes.Buffer
	log := logger.NewWriterLogger(&buf, LoggerName, zapcore.InfoLevel, nil)

	for _, table := range []string{"users; DROP TABLE users", "users u", "1users", "users--", `"users"`} {
		_, err := Dump(context.Background(), conn, table, log)
		assert.ErrorIs(t, err, ErrInvalidTable, table)
	}
	assert.True(t, conn.Migrator().HasTable(&authdomain.User{}))
	assert.Empty(t, buf.String())

	count, err := Dump(context.Background(), conn, " users ", log)
	require.NoError(t, err)
	assert.Zero(t, count)
}
