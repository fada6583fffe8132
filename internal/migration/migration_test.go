package migration

import (
	"io/fs"
	"testing"

	authdomain "github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, base := range []string{"000001_users", "000002_user_sessions"} {
		assert.True(t, names[base+".up.sql"], base)
		assert.True(t, names[base+".down.sql"], base)
	}
}

func TestAutoMigrate(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(conn))
	assert.True(t, conn.Migrator().HasTable(&authdomain.User{}))
	assert.True(t, conn.Migrator().HasTable(&authdomain.UserSession{}))
	assert.True(t, conn.Migrator().HasIndex(&authdomain.User{}, "Email"))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}
