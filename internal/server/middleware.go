package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/authgate/internal/auth/authctx"
	"github.com/smallbiznis/authgate/internal/auth/gate"
)

const (
	contextAuthOutcomeKey = "auth_outcome"
	contextUserIDKey      = "user_id"
)

// AuthGate runs the gate on every request of the group. Requests without
// credentials get 401, requests whose credentials resolve to nobody get 403.
func AuthGate(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Decide(c.Request)

		c.Set(contextAuthOutcomeKey, string(d.Outcome))
		if d.User != nil {
			c.Set(contextUserIDKey, d.User.ID.String())
		}
		c.Request = c.Request.WithContext(authctx.WithDecision(c.Request.Context(), d))

		if d.Outcome == authctx.OutcomeUnauthenticated {
			if d.CredentialsPresent {
				AbortWithError(c, ErrForbidden)
			} else {
				AbortWithError(c, ErrUnauthorized)
			}
			return
		}
		c.Next()
	}
}
