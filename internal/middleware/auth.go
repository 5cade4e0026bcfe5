// Package middleware holds the gin middleware chain: bearer-token
// authentication and request rate limiting.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/auth"
	"github.com/deskflow-io/deskflow/internal/scope"
)

const identityKey = "identity"

// Auth validates the Authorization bearer token and stores the resolved
// identity in the request context. Requests without a valid token never
// reach a handler.
func Auth(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Error(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			apierrors.Error(c, apierrors.CodeInvalidToken)
			c.Abort()
			return
		}

		claims, err := jwt.Validate(token)
		if err != nil {
			apierrors.Error(c, apierrors.CodeInvalidToken)
			c.Abort()
			return
		}

		userID, orgID, role, clientID := claims.Identity()
		c.Set(identityKey, scope.Identity{
			UserID:         userID,
			OrganizationID: orgID,
			Role:           role,
			ClientID:       clientID,
		})
		c.Next()
	}
}

// GetIdentity returns the authenticated caller's identity. The zero identity
// resolves to a scope that matches nothing, so a handler reached without the
// Auth middleware still cannot leak rows.
func GetIdentity(c *gin.Context) scope.Identity {
	if v, exists := c.Get(identityKey); exists {
		if id, ok := v.(scope.Identity); ok {
			return id
		}
	}
	return scope.Identity{}
}

// GetScope resolves the caller's identity into a visibility scope.
func GetScope(c *gin.Context) scope.Scope {
	return scope.Resolve(GetIdentity(c))
}
