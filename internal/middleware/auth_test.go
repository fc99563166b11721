package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
)

func newTokens(now time.Time) *service.TokenService {
	return service.NewTokenService(service.TokenConfig{Secret: "test-secret", ExpiresIn: time.Hour}).
		WithClock(func() time.Time { return now })
}

func teacherUser() *models.User {
	return &models.User{ID: 7, Username: "jane", Role: &models.Role{ID: 2, Name: string(models.RoleTeacher)}}
}

func protectedRouter(tokens *service.TokenService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(tokens, nil)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID, "role": c.GetString(ContextUserRoleKey)})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthenticateAcceptsBearerHeader(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Token)
	protectedRouter(tokens).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"Teacher"}`, w.Body.String())
}

func TestAuthenticateHeaderTakesPrecedenceOverCookie(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer tampered")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: pair.Token})
	protectedRouter(tokens).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateFallsBackToCookie(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: pair.Token})
	protectedRouter(tokens).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateRejectsMissingAndExpiredTokens(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	pair, err := newTokens(issued).Issue(teacherUser())
	require.NoError(t, err)
	tokens := newTokens(time.Now())

	w := httptest.NewRecorder()
	protectedRouter(tokens).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Token)
	protectedRouter(tokens).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	protectedRouter(tokens).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizeChecksRoleAllowList(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	cases := []struct {
		name   string
		roles  []models.UserRole
		status int
	}{
		{"member", []models.UserRole{models.RoleAdmin, models.RoleTeacher}, http.StatusOK},
		{"not member", []models.UserRole{models.RoleAdmin}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+pair.Token)
			protectedRouter(tokens, Authorize(nil, tc.roles...)).ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

type gateDecision struct {
	stage   string
	allowed bool
}

type decisionLog struct {
	decisions []gateDecision
}

func (d *decisionLog) RecordAuthorization(stage string, allowed bool) {
	d.decisions = append(d.decisions, gateDecision{stage: stage, allowed: allowed})
}

func TestAuthorizeRecordsRoleDecision(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	cases := []struct {
		name   string
		roles  []models.UserRole
		status int
		want   gateDecision
	}{
		{"member", []models.UserRole{models.RoleTeacher}, http.StatusOK, gateDecision{"role", true}},
		{"not member", []models.UserRole{models.RoleAdmin}, http.StatusForbidden, gateDecision{"role", false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := &decisionLog{}
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET("/protected", Authenticate(tokens, log), Authorize(log, tc.roles...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+pair.Token)
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, []gateDecision{{"authenticate", true}, tc.want}, log.decisions)
		})
	}
}

func TestAuthorizeWithoutClaimsRecordsDenial(t *testing.T) {
	log := &decisionLog{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", Authorize(log, models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, []gateDecision{{"role", false}}, log.decisions)
}

type stubAuthorizer struct {
	allowed bool
	err     error
	got     service.Requirement
	userID  int64
}

func (s *stubAuthorizer) Authorize(_ context.Context, userID int64, req service.Requirement) (bool, error) {
	s.userID, s.got = userID, req
	return s.allowed, s.err
}

func TestRequirePermission(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := newTokens(now)
	pair, err := tokens.Issue(teacherUser())
	require.NoError(t, err)

	cases := []struct {
		name   string
		authz  *stubAuthorizer
		status int
	}{
		{"granted", &stubAuthorizer{allowed: true}, http.StatusOK},
		{"denied", &stubAuthorizer{}, http.StatusForbidden},
		{"resolver failure", &stubAuthorizer{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+pair.Token)
			protectedRouter(tokens, RequirePermission(tc.authz, models.PermissionAddStudents)).ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, int64(7), tc.authz.userID)
			assert.Equal(t, models.PermissionAddStudents, tc.authz.got.Permission)
			assert.Empty(t, tc.authz.got.Role)
		})
	}
}
