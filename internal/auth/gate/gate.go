// Package gate decides, per request, whether a path is public and, when it
// is not, which user the request carries credentials for.
package gate

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authgate/internal/auth/authctx"
	"github.com/smallbiznis/authgate/internal/auth/basic"
	"github.com/smallbiznis/authgate/internal/auth/domain"
	"github.com/smallbiznis/authgate/internal/auth/password"
	"github.com/smallbiznis/authgate/internal/auth/pathmatch"
	"github.com/smallbiznis/authgate/internal/auth/session"
	"github.com/smallbiznis/authgate/internal/config"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const tracerName = "authgate/gate"

type (
	Decision = authctx.Decision
	Outcome  = authctx.Outcome
)

const (
	OutcomePublic          = authctx.OutcomePublic
	OutcomeAuthenticated   = authctx.OutcomeAuthenticated
	OutcomeUnauthenticated = authctx.OutcomeUnauthenticated
)

// Config selects the credential scheme and the exemption group.
type Config struct {
	Scheme string
	Group  string
}

type Params struct {
	fx.In

	Cfg      config.Config
	Policy   *config.PolicyHolder
	Repo     domain.Repository
	Sessions *session.Manager
	Store    session.Store
	Log      *zap.Logger
	Metrics  *metrics.AuthMetrics `optional:"true"`
}

type Gate struct {
	cfg      Config
	policy   *config.PolicyHolder
	repo     domain.Repository
	sessions *session.Manager
	store    session.Store
	verify   domain.PasswordVerifier
	log      *zap.Logger
	metrics  *metrics.AuthMetrics
	tracer   trace.Tracer
}

func New(p Params) *Gate {
	return NewGate(Config{Scheme: p.Cfg.Auth.Scheme, Group: config.GroupAPI}, p.Policy, p.Repo, p.Sessions, p.Store, p.Log, p.Metrics)
}

func NewGate(cfg Config, policy *config.PolicyHolder, repo domain.Repository, sessions *session.Manager, store session.Store, log *zap.Logger, m *metrics.AuthMetrics) *Gate {
	if cfg.Scheme == "" {
		cfg.Scheme = config.SchemeBasic
	}
	if cfg.Group == "" {
		cfg.Group = config.GroupAPI
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		cfg:      cfg,
		policy:   policy,
		repo:     repo,
		sessions: sessions,
		store:    store,
		verify:   password.Verify,
		log:      log.Named("auth.gate"),
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
	}
}

func (g *Gate) Scheme() string {
	return g.cfg.Scheme
}

// Decide classifies r. It never fails: lookup errors are logged and the
// request is treated as carrying no identity.
func (g *Gate) Decide(r *http.Request) Decision {
	ctx, span := g.tracer.Start(r.Context(), "auth.gate.decide",
		trace.WithAttributes(attribute.String("auth.scheme", g.cfg.Scheme)))
	defer span.End()

	d := g.decide(ctx, r)

	span.SetAttributes(
		attribute.String("auth.outcome", string(d.Outcome)),
		attribute.Bool("auth.credentials_present", d.CredentialsPresent),
	)
	g.metrics.RecordGateDecision(g.cfg.Scheme, string(d.Outcome))
	return d
}

func (g *Gate) decide(ctx context.Context, r *http.Request) Decision {
	var exemptions []string
	if g.policy != nil {
		exemptions = g.policy.Exemptions(g.cfg.Group)
	}
	if !pathmatch.RequiresAuth(r.URL.Path, exemptions) {
		return Decision{Outcome: OutcomePublic}
	}

	var (
		user    *domain.User
		present bool
	)
	switch g.cfg.Scheme {
	case config.SchemeSession:
		user, present = g.fromSession(ctx, r)
	default:
		user, present = g.fromBasic(ctx, r)
	}

	if user == nil {
		return Decision{Outcome: OutcomeUnauthenticated, CredentialsPresent: present}
	}
	return Decision{Outcome: OutcomeAuthenticated, User: user, CredentialsPresent: true}
}

func (g *Gate) fromBasic(ctx context.Context, r *http.Request) (*domain.User, bool) {
	creds, ok := basic.FromRequest(r)
	if !ok {
		return nil, false
	}
	if creds.Email == "" {
		return nil, true
	}

	user, err := g.repo.FindOne(ctx, domain.User{Email: creds.Email})
	if err != nil {
		g.logLookupError(err)
		return nil, true
	}
	if !user.IsValidPassword(creds.Password, g.verify) {
		return nil, true
	}
	return user, true
}

func (g *Gate) fromSession(ctx context.Context, r *http.Request) (*domain.User, bool) {
	token, ok := g.sessions.Token(r)
	if !ok {
		return nil, false
	}
	if g.store == nil {
		return nil, true
	}

	userID, ok := g.store.Resolve(ctx, token)
	if !ok {
		return nil, true
	}
	id, err := snowflake.ParseString(userID)
	if err != nil {
		g.log.Warn("session references malformed user id")
		return nil, true
	}

	user, err := g.repo.FindByID(ctx, id)
	if err != nil {
		g.logLookupError(err)
		return nil, true
	}
	return user, true
}

func (g *Gate) logLookupError(err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		return
	}
	g.log.Warn("user lookup failed", zap.Error(err))
}
