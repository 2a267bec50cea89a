package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/healthconnect-api/internal/models"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
	"github.com/noah-isme/healthconnect-api/pkg/response"
)

// RequireRoles lets through callers whose token carries one of roles.
// Ownership checks happen later, against the stored appointment.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}
		if !claims.Role.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid role"))
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
