// Package authctx carries the authorization decision of a request on its context.
package authctx

import (
	"context"

	"github.com/smallbiznis/authgate/internal/auth/domain"
)

type Outcome string

const (
	OutcomePublic          Outcome = "public"
	OutcomeAuthenticated   Outcome = "authenticated"
	OutcomeUnauthenticated Outcome = "unauthenticated"
)

// Decision is the result of gating a single request.
type Decision struct {
	Outcome            Outcome
	User               *domain.User
	CredentialsPresent bool
}

type decisionKey struct{}

func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

func DecisionFromContext(ctx context.Context) (Decision, bool) {
	if ctx == nil {
		return Decision{}, false
	}
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// CurrentUser returns the authenticated user of the request, if any.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	d, ok := DecisionFromContext(ctx)
	if !ok || d.Outcome != OutcomeAuthenticated || d.User == nil {
		return nil, false
	}
	return d.User, true
}
