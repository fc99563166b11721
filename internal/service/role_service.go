package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type roleRepository interface {
	ListActive(ctx context.Context) ([]models.Role, error)
	FindByID(ctx context.Context, id int64) (*models.Role, error)
	FindPermissionByID(ctx context.Context, id int64) (*models.Permission, error)
	AllowedPermissions(ctx context.Context, roleID int64) ([]models.Permission, error)
	SetPermission(ctx context.Context, roleID, permissionID int64, allowed bool) error
}

type roleUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateRole(ctx context.Context, id, roleID int64, updatedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RoleService manages role assignment and the role/permission matrix.
type RoleService struct {
	roles     roleRepository
	users     roleUserRepository
	grants    grantInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles roleRepository, users roleUserRepository, grants grantInvalidator, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RoleService{roles: roles, users: users, grants: grants, validator: validate, logger: logger}
}

// ListActive returns the roles that can be assigned.
func (s *RoleService) ListActive(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

// Assign moves the user to another role. Unknown users or roles are rejected as bad requests.
func (s *RoleService) Assign(ctx context.Context, req models.AssignRoleRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "userId and roleId are required")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	role, err := s.roles.FindByID(ctx, req.RoleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	previous := user.RoleID
	if err := s.users.UpdateRole(ctx, user.ID, role.ID, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign role")
	}
	user.RoleID = &role.ID
	user.Role = role
	s.grants.InvalidateUser(ctx, user.ID)

	recordAudit(ctx, s.users, s.logger, meta, auditEntry{
		Action:     models.AuditActionRoleAssign,
		Resource:   "users",
		ResourceID: user.ID,
		Old:        map[string]interface{}{"role_id": previous},
		New:        map[string]interface{}{"role_id": role.ID, "role": role.Name},
	})
	return user, nil
}

// Permissions returns a role with its effective permissions attached.
func (s *RoleService) Permissions(ctx context.Context, roleID int64) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	perms, err := s.roles.AllowedPermissions(ctx, roleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role permissions")
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	role.Permissions = perms
	return role, nil
}

// SetPermission grants (allowed) or revokes a permission on a role and drops cached grants.
func (s *RoleService) SetPermission(ctx context.Context, req models.RolePermissionRequest, allowed bool, meta models.RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "roleId and permissionId are required")
	}
	if _, err := s.roles.FindByID(ctx, req.RoleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	perm, err := s.roles.FindPermissionByID(ctx, req.PermissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission")
	}

	if err := s.roles.SetPermission(ctx, req.RoleID, req.PermissionID, allowed); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role permission")
	}
	s.grants.Invalidate(ctx)

	action := models.AuditActionPermissionGrant
	if !allowed {
		action = models.AuditActionPermissionRevoke
	}
	recordAudit(ctx, s.users, s.logger, meta, auditEntry{
		Action:     action,
		Resource:   "roles",
		ResourceID: req.RoleID,
		New:        map[string]interface{}{"permission": perm.Code, "is_allowed": allowed},
	})
	return nil
}
