package orderserver

import (
	"errors"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/platform/auth"
)

const actorContextKey = "orders.actor"

// Authenticator turns bearer tokens into domain actors.
type Authenticator struct {
	verifier *auth.Verifier
}

func NewAuthenticator(verifier *auth.Verifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Require rejects requests without a valid token, or whose role is not in roles.
func (a *Authenticator) Require(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a == nil || a.verifier == nil {
			orderResponder.Unauthorized(c, "authentication is not configured")
			return
		}
		claims, err := a.verifier.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			detail := "invalid bearer token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				detail = err.Error()
			case errors.Is(err, auth.ErrExpiredToken):
				detail = err.Error()
			}
			c.Header("WWW-Authenticate", `Bearer realm="orders"`)
			orderResponder.Unauthorized(c, detail)
			return
		}
		actor := domain.Actor{Role: domain.Role(claims.Role), ID: claims.Principal()}
		if err := actor.Validate(); err != nil {
			orderResponder.Unauthorized(c, "token does not carry a known principal")
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
			orderResponder.Forbidden(c, "route not available for role "+string(actor.Role))
			return
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func actorFromContext(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
