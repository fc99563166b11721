package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-api/internal/models"
)

// RoleRepository reads roles and maintains the role/permission matrix.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs a RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListActive returns every active role ordered by id.
func (r *RoleRepository) ListActive(ctx context.Context) ([]models.Role, error) {
	const stmt = `SELECT id, name, description, is_active, created_at FROM roles WHERE is_active = TRUE ORDER BY id`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, stmt); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// FindByID returns a role by identifier.
func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*models.Role, error) {
	const stmt = `SELECT id, name, description, is_active, created_at FROM roles WHERE id = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

// FindPermissionByID returns a permission by identifier.
func (r *RoleRepository) FindPermissionByID(ctx context.Context, id int64) (*models.Permission, error) {
	const stmt = `SELECT id, code, description, is_active, created_at FROM permissions WHERE id = $1`
	var perm models.Permission
	if err := r.db.GetContext(ctx, &perm, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	return &perm, nil
}

// AllowedPermissions returns the permissions a role holds with is_allowed set.
func (r *RoleRepository) AllowedPermissions(ctx context.Context, roleID int64) ([]models.Permission, error) {
	const stmt = `SELECT p.id, p.code, p.description, p.is_active, p.created_at
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1 AND rp.is_allowed = TRUE
ORDER BY p.code`
	var perms []models.Permission
	if err := r.db.SelectContext(ctx, &perms, stmt, roleID); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return perms, nil
}

// FindGrant resolves the role name and allowed permission codes of a user. It returns
// sql.ErrNoRows when the user does not exist. A user without a role gets an empty grant.
func (r *RoleRepository) FindGrant(ctx context.Context, userID int64) (*models.RoleGrant, error) {
	const identityStmt = `SELECT u.id, u.role_id, r.name FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE u.id = $1`
	var identity struct {
		ID       int64          `db:"id"`
		RoleID   sql.NullInt64  `db:"role_id"`
		RoleName sql.NullString `db:"name"`
	}
	if err := r.db.GetContext(ctx, &identity, identityStmt, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find grant identity: %w", err)
	}

	grant := &models.RoleGrant{UserID: identity.ID, RoleName: models.UserRole(identity.RoleName.String), Permissions: []string{}}
	if !identity.RoleID.Valid {
		return grant, nil
	}

	const codesStmt = `SELECT p.code FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id WHERE rp.role_id = $1 AND rp.is_allowed = TRUE ORDER BY p.code`
	if err := r.db.SelectContext(ctx, &grant.Permissions, codesStmt, identity.RoleID.Int64); err != nil {
		return nil, fmt.Errorf("find grant permissions: %w", err)
	}
	return grant, nil
}

// SetPermission grants or revokes a permission on a role, creating the matrix row when absent.
func (r *RoleRepository) SetPermission(ctx context.Context, roleID, permissionID int64, allowed bool) error {
	const stmt = `INSERT INTO role_permissions (role_id, permission_id, is_allowed) VALUES ($1, $2, $3)
ON CONFLICT (role_id, permission_id) DO UPDATE SET is_allowed = EXCLUDED.is_allowed`
	if _, err := r.db.ExecContext(ctx, stmt, roleID, permissionID, allowed); err != nil {
		return fmt.Errorf("set role permission: %w", err)
	}
	return nil
}
