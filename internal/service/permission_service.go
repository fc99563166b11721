package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type grantRepository interface {
	FindGrant(ctx context.Context, userID int64) (*models.RoleGrant, error)
}

type grantCache interface {
	Load(ctx context.Context, userID int64) (*models.RoleGrant, bool)
	Save(ctx context.Context, grant *models.RoleGrant)
	Forget(ctx context.Context, userIDs ...int64)
	Flush(ctx context.Context)
}

// Requirement names what an identity must hold. Empty fields are vacuously satisfied.
type Requirement struct {
	Role       models.UserRole
	Permission string
}

// PermissionService decides whether an identity satisfies a role and permission requirement.
type PermissionService struct {
	repo    grantRepository
	cache   grantCache
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPermissionService constructs a PermissionService. cache may be nil.
func NewPermissionService(repo grantRepository, cache grantCache, metrics *MetricsService, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Grant returns the role and effective permission codes of the identity.
func (s *PermissionService) Grant(ctx context.Context, userID int64) (*models.RoleGrant, error) {
	if s.cache != nil {
		if grant, ok := s.cache.Load(ctx, userID); ok {
			return grant, nil
		}
	}

	grant, err := s.repo.FindGrant(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve permissions")
	}
	if s.cache != nil {
		s.cache.Save(ctx, grant)
	}
	return grant, nil
}

// Authorize reports whether the identity holds the required role and permission. It returns
// a not found error when the identity does not resolve.
func (s *PermissionService) Authorize(ctx context.Context, userID int64, req Requirement) (bool, error) {
	grant, err := s.Grant(ctx, userID)
	if err != nil {
		return false, err
	}
	allowed := Evaluate(grant, req)
	s.metrics.RecordAuthorization("permission", allowed)
	if !allowed {
		s.logger.Debug("permission denied", zap.Int64("user_id", userID), zap.String("role", string(req.Role)), zap.String("permission", req.Permission))
	}
	return allowed, nil
}

// Evaluate is the pure decision: role equality AND permission membership.
func Evaluate(grant *models.RoleGrant, req Requirement) bool {
	if grant == nil {
		return false
	}
	roleOK := req.Role == "" || grant.RoleName == req.Role
	permOK := req.Permission == "" || grant.Has(req.Permission)
	return roleOK && permOK
}

// Invalidate drops every cached grant. Changes to the role/permission matrix call it.
func (s *PermissionService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Flush(ctx)
	}
}

// InvalidateUser drops the cached grants of individual users after their role changed or
// their account was removed.
func (s *PermissionService) InvalidateUser(ctx context.Context, userIDs ...int64) {
	if s.cache != nil {
		s.cache.Forget(ctx, userIDs...)
	}
}
