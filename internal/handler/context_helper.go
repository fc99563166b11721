package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/middleware/requestid"
	"github.com/noah-isme/classroom-api/pkg/response"
)

// requestMeta describes the caller for audit entries.
func requestMeta(c *gin.Context) models.RequestMeta {
	meta := models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent"), RequestID: requestid.Value(c)}
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		meta.ActorID = claims.UserID
		meta.ActorRole = claims.Role
	}
	return meta
}

func actorID(c *gin.Context) int64 {
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// idParam parses a positive numeric path parameter. It writes a 400 and returns false otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into dst. It writes a 400 and returns false on malformed input.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
