package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing the session claims.
	ContextUserKey = "currentUser"
	// ContextUserIDKey holds the caller's numeric id.
	ContextUserIDKey = "userId"
	// ContextUserRoleKey holds the caller's role name.
	ContextUserRoleKey = "userRole"
	// SessionCookie is the cookie carrying the access token.
	SessionCookie = "token"
)

type accessValidator interface {
	ValidateAccess(token string) (*models.SessionClaims, error)
}

type decisionRecorder interface {
	RecordAuthorization(stage string, allowed bool)
}

// TokenFromRequest returns the bearer token of the Authorization header, falling back to the
// session cookie. The header wins when both are present.
func TokenFromRequest(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", appErrors.Clone(appErrors.ErrUnauthorized, "authentication token is required")
}

// Authenticate admits requests carrying a valid access token and exposes its claims.
func Authenticate(tokens accessValidator, metrics decisionRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := TokenFromRequest(c)
		if err == nil {
			var claims *models.SessionClaims
			if claims, err = tokens.ValidateAccess(token); err == nil {
				record(metrics, "authenticate", true)
				c.Set(ContextUserKey, claims)
				c.Set(ContextUserIDKey, claims.UserID)
				c.Set(ContextUserRoleKey, string(claims.Role))
				c.Next()
				return
			}
		}
		record(metrics, "authenticate", false)
		response.Abort(c, err)
	}
}

// ClaimsFromContext returns the claims attached by Authenticate.
func ClaimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.SessionClaims)
	return claims
}

// CallerID returns the authenticated caller's id. It matches logger.Actor.
func CallerID(c *gin.Context) (int64, bool) {
	id, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := id.(int64)
	return userID, ok
}

func record(metrics decisionRecorder, stage string, allowed bool) {
	if metrics != nil {
		metrics.RecordAuthorization(stage, allowed)
	}
}
