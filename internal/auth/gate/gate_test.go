package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/authgate/internal/auth/basic"
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/auth/password"
	"github.com/smallbiznis/authgate/internal/auth/session"
	"github.com/smallbiznis/authgate/internal/config"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	domain.Repository
	users []*domain.User
	err   error
}

func (f *fakeRepo) FindOne(_ context.Context, filter domain.User) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if filter.Email != "" && u.Email == filter.Email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, id snowflake.ID) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func newUser(t *testing.T) *domain.User {
	t.Helper()
	hasher, err := password.NewHasher(password.AlgorithmBcrypt)
	require.NoError(t, err)

	pwd := "H0lbertonSchool98!"
	user := &domain.User{ID: snowflake.ID(100), Email: "bob@hbtn.io"}
	require.NoError(t, user.SetPassword(&pwd, hasher))
	return user
}

func policy() *config.PolicyHolder {
	return config.NewStaticPolicyHolder(config.AccessPolicy{
		Exemptions: map[string][]string{
			config.GroupAPI: {"/api/v1/status/", "/api/v1/stat*"},
		},
	})
}

func request(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestDecideBasic(t *testing.T) {
	user := newUser(t)
	repo := &fakeRepo{users: []*domain.User{user}}
	g := NewGate(Config{Scheme: config.SchemeBasic}, policy(), repo, nil, nil, nil, nil)

	tests := []struct {
		name    string
		path    string
		header  string
		outcome Outcome
		present bool
	}{
		{name: "exempt path", path: "/api/v1/status", outcome: OutcomePublic},
		{name: "wildcard exemption", path: "/api/v1/stats", outcome: OutcomePublic},
		{name: "no header", path: "/api/v1/users", outcome: OutcomeUnauthenticated},
		{name: "wrong scheme", path: "/api/v1/users", header: "Bearer abc", outcome: OutcomeUnauthenticated},
		{name: "malformed payload", path: "/api/v1/users", header: "Basic !!!", outcome: OutcomeUnauthenticated},
		{name: "wrong password", path: "/api/v1/users", header: basic.Header("bob@hbtn.io", "nope"), outcome: OutcomeUnauthenticated, present: true},
		{name: "unknown user", path: "/api/v1/users", header: basic.Header("eve@hbtn.io", "x"), outcome: OutcomeUnauthenticated, present: true},
		{name: "empty email", path: "/api/v1/users", header: basic.Header("", "x"), outcome: OutcomeUnauthenticated, present: true},
		{name: "valid", path: "/api/v1/users", header: basic.Header("bob@hbtn.io", "H0lbertonSchool98!"), outcome: OutcomeAuthenticated, present: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(tt.path)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			d := g.Decide(req)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.present, d.CredentialsPresent)
			if tt.outcome == OutcomeAuthenticated {
				assert.Same(t, user, d.User)
			} else {
				assert.Nil(t, d.User)
			}
		})
	}
}

func TestDecideSession(t *testing.T) {
	user := newUser(t)
	repo := &fakeRepo{users: []*domain.User{user}}
	store := session.NewMemoryStore(nil, 0, nil)
	sessions := session.NewNamedManager("_my_session_id", false, 0)
	g := NewGate(Config{Scheme: config.SchemeSession}, policy(), repo, sessions, store, nil, nil)

	token, err := store.Create(context.Background(), user.ID.String())
	require.NoError(t, err)
	orphan, err := store.Create(context.Background(), "999")
	require.NoError(t, err)

	req := request("/api/v1/users/me")
	d := g.Decide(req)
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)
	assert.False(t, d.CredentialsPresent)

	req = request("/api/v1/users/me")
	req.AddCookie(&http.Cookie{Name: "_my_session_id", Value: "forged"})
	d = g.Decide(req)
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)
	assert.True(t, d.CredentialsPresent)

	req = request("/api/v1/users/me")
	req.AddCookie(&http.Cookie{Name: "_my_session_id", Value: orphan})
	d = g.Decide(req)
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)

	req = request("/api/v1/users/me")
	req.AddCookie(&http.Cookie{Name: "_my_session_id", Value: token})
	d = g.Decide(req)
	assert.Equal(t, OutcomeAuthenticated, d.Outcome)
	assert.Same(t, user, d.User)

	store.Destroy(context.Background(), token)
	d = g.Decide(req)
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)
	assert.True(t, d.CredentialsPresent)
}

func TestDecideWithoutExemptionsRequiresAuth(t *testing.T) {
	g := NewGate(Config{Scheme: config.SchemeBasic}, config.NewStaticPolicyHolder(config.AccessPolicy{}), &fakeRepo{}, nil, nil, nil, nil)

	d := g.Decide(request("/api/v1/status"))
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)

	g = NewGate(Config{Scheme: config.SchemeBasic}, nil, &fakeRepo{}, nil, nil, nil, nil)
	d = g.Decide(request("/api/v1/status"))
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)
}

func TestDecideRepositoryErrorIsNoIdentity(t *testing.T) {
	g := NewGate(Config{Scheme: config.SchemeBasic}, policy(), &fakeRepo{err: errors.New("connection reset")}, nil, nil, nil, nil)

	req := request("/api/v1/users")
	req.Header.Set("Authorization", basic.Header("bob@hbtn.io", "pw"))
	d := g.Decide(req)
	assert.Equal(t, OutcomeUnauthenticated, d.Outcome)
	assert.True(t, d.CredentialsPresent)
}

func TestDecideRecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewAuthMetrics(registry, metrics.Config{})
	g := NewGate(Config{Scheme: config.SchemeBasic}, policy(), &fakeRepo{}, nil, nil, nil, m)

	g.Decide(request("/api/v1/status"))
	g.Decide(request("/api/v1/users"))
	g.Decide(request("/api/v1/users"))

	count, err := testutil.GatherAndCount(registry, "authgate_gate_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
