package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type permissionAuthorizer interface {
	Authorize(ctx context.Context, userID int64, req service.Requirement) (bool, error)
}

// Authorize admits callers whose role is in the allow-list and records each decision
// under the role stage.
func Authorize(metrics decisionRecorder, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			record(metrics, "role", false)
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		_, ok := allowed[claims.Role]
		record(metrics, "role", ok)
		if !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "role is not allowed to access this resource"))
			return
		}
		c.Next()
	}
}

// RequirePermission admits callers whose role grants code.
func RequirePermission(authorizer permissionAuthorizer, code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		ok, err := authorizer.Authorize(c.Request.Context(), claims.UserID, service.Requirement{Permission: code})
		if err != nil {
			response.Abort(c, err)
			return
		}
		if !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+code))
			return
		}
		c.Next()
	}
}
