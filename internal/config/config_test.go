package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"":      0,
		"abc":   0,
		"60":    60 * time.Second,
		" 5 ":   5 * time.Second,
		"-10":   -10 * time.Second,
		"1.5":   0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseSessionDuration(raw), raw)
	}
}

func TestLoadAuthSettings(t *testing.T) {
	t.Setenv("AUTH_SCHEME", "basic_auth")
	t.Setenv("SESSION_NAME", "_my_session_id")
	t.Setenv("SESSION_DURATION", "120")
	t.Setenv("SESSION_STORE", "session_db_auth")
	t.Setenv("AUTH_EXCLUDED_PATHS", "/api/v1/status/, /api/v1/stat*")
	t.Setenv("PII_FIELDS", "email, ssn")

	cfg := Load()
	assert.Equal(t, SchemeBasic, cfg.Auth.Scheme)
	assert.Equal(t, "_my_session_id", cfg.Auth.SessionName)
	assert.Equal(t, 2*time.Minute, cfg.Auth.SessionDuration)
	assert.Equal(t, StoreDB, cfg.Auth.SessionStore)
	assert.Equal(t, []string{"/api/v1/status/", "/api/v1/stat*"}, cfg.Auth.ExcludedPaths)
	assert.Equal(t, []string{"email", "ssn"}, cfg.Logger.PIIFields)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SCHEME", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("PII_FIELDS", "")
	t.Setenv("SESSION_DURATION", "")

	cfg := Load()
	assert.Equal(t, SchemeSession, cfg.Auth.Scheme)
	assert.Equal(t, StoreMemory, cfg.Auth.SessionStore)
	assert.Zero(t, cfg.Auth.SessionDuration)
	assert.Equal(t, DefaultPIIFields, cfg.Logger.PIIFields)
}

func TestPolicyHolderDefaults(t *testing.T) {
	holder, err := NewPolicyHolder(Config{Auth: AuthConfig{PolicyPath: filepath.Join(t.TempDir(), "missing.yml")}}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessPolicy().Exemptions[GroupAPI], holder.Exemptions(GroupAPI))
}

func TestPolicyHolderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	content := "policy:\n  exemptions:\n    api:\n      - /api/v1/status/\n      - /api/v1/stats\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewPolicyHolder(Config{Auth: AuthConfig{PolicyPath: path}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/v1/status/", "/api/v1/stats"}, holder.Exemptions(GroupAPI))

	list := holder.Exemptions(GroupAPI)
	list[0] = "mutated"
	assert.Equal(t, "/api/v1/status/", holder.Exemptions(GroupAPI)[0])
}

func TestPolicyHolderRejectsBlankEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	content := "policy:\n  exemptions:\n    api:\n      - \"  \"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := NewPolicyHolder(Config{Auth: AuthConfig{PolicyPath: path}}, nil)
	assert.Error(t, err)
}

func TestPolicyHolderEnvOverride(t *testing.T) {
	holder, err := NewPolicyHolder(Config{Auth: AuthConfig{
		PolicyPath:    filepath.Join(t.TempDir(), "missing.yml"),
		ExcludedPaths: []string{"/api/v1/stat*"},
	}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/v1/stat*"}, holder.Exemptions(GroupAPI))
}
