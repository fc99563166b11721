package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/query"
)

// UserQuerySchema lists the user fields clients may filter, select and sort on.
var UserQuerySchema = query.Schema{
	Columns: map[string]string{
		"id":         "u.id",
		"username":   "u.username",
		"firstname":  "u.firstname",
		"lastname":   "u.lastname",
		"email":      "u.email",
		"phone":      "u.phone",
		"is_active":  "u.is_active",
		"role_id":    "u.role_id",
		"login_ip":   "u.login_ip",
		"last_login": "u.last_login",
		"created_at": "u.created_at",
		"updated_at": "u.updated_at",
		"role":       "r.name",
	},
	Projections: map[string]string{
		"role": "r.name AS role_name",
	},
	DefaultSelect: []string{"id", "username", "firstname", "lastname", "email", "phone", "is_active", "role_id", "login_ip", "last_login", "created_at", "updated_at"},
	DefaultSort:   []query.SortField{{Field: "created_at", Column: "u.created_at", Desc: true}},
}

const (
	userColumns    = `u.id, u.username, u.firstname, u.lastname, u.email, u.phone, u.password, u.is_active, u.role_id, u.login_ip, u.last_login, u.created_at, u.updated_at`
	roleRefColumns = `r.id AS role_ref_id, r.name AS role_ref_name, r.description AS role_ref_description, r.is_active AS role_ref_is_active`
	userFrom       = ` FROM users u LEFT JOIN roles r ON r.id = u.role_id`
)

// userRow scans a user together with its optional role.
type userRow struct {
	models.User
	RoleRefID          sql.NullInt64  `db:"role_ref_id"`
	RoleRefName        sql.NullString `db:"role_ref_name"`
	RoleRefDescription sql.NullString `db:"role_ref_description"`
	RoleRefIsActive    sql.NullBool   `db:"role_ref_is_active"`
	RoleName           sql.NullString `db:"role_name"`
}

func (row userRow) toModel() models.User {
	user := row.User
	if row.RoleRefID.Valid {
		role := &models.Role{ID: row.RoleRefID.Int64, Name: row.RoleRefName.String, IsActive: row.RoleRefIsActive.Bool}
		if row.RoleRefDescription.Valid {
			desc := row.RoleRefDescription.String
			role.Description = &desc
		}
		user.Role = role
	}
	return user
}

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) findOne(ctx context.Context, op, where string, args ...interface{}) (*models.User, error) {
	stmt := `SELECT ` + userColumns + `, ` + roleRefColumns + userFrom + ` WHERE ` + where + ` LIMIT 1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := row.toModel()
	return &user, nil
}

// FindByID returns a user by identifier with its role attached.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "find user by id", "u.id = $1", id)
}

// FindByUsername returns a user by username with its role attached.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "find user by username", "u.username = $1", username)
}

// FindConflicting returns any user other than excludeID holding the username or the email.
func (r *UserRepository) FindConflicting(ctx context.Context, username, email string, excludeID int64) (*models.User, error) {
	return r.findOne(ctx, "find conflicting user", "(u.username = $1 OR u.email = $2) AND u.id <> $3", username, email, excludeID)
}

func userProjection(columns []string) string {
	if len(columns) == 0 {
		return userColumns
	}
	hasID := false
	for _, c := range columns {
		if c == "u.id" {
			hasID = true
			break
		}
	}
	if !hasID {
		columns = append([]string{"u.id"}, columns...)
	}
	return strings.Join(columns, ", ")
}

// List returns one page of users matching the compiled request.
func (r *UserRepository) List(ctx context.Context, req *query.Request) ([]models.User, error) {
	where, args := req.Predicate.Where(1)
	stmt := fmt.Sprintf("SELECT %s, %s%s%s%s LIMIT %d OFFSET %d",
		userProjection(req.Select), roleRefColumns, userFrom, where, query.OrderBy(req.Sort), req.Limit, req.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, len(rows))
	for i, row := range rows {
		users[i] = row.toModel()
	}
	return users, nil
}

// Count returns how many users match the predicate.
func (r *UserRepository) Count(ctx context.Context, pred query.Predicate) (int, error) {
	where, args := pred.Where(1)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+userFrom+where, args...); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// ListByRole returns every user holding the role, ordered by name.
func (r *UserRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	stmt := `SELECT ` + userColumns + `, ` + roleRefColumns + userFrom + ` WHERE r.name = $1 ORDER BY u.lastname, u.firstname`
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, stmt, string(role)); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	users := make([]models.User, len(rows))
	for i, row := range rows {
		users[i] = row.toModel()
	}
	return users, nil
}

// Create inserts a new user and fills in its generated identifier.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO users (username, firstname, lastname, email, phone, password, is_active, role_id, created_at)
VALUES (:username, :firstname, :lastname, :email, :phone, :password, :is_active, :role_id, :created_at) RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, stmt, user)
	if err != nil {
		return translateUnique("create user", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&user.ID); err != nil {
			return fmt.Errorf("scan user id: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return translateUnique("create user", err)
	}
	return nil
}

// Update writes the mutable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.UpdatedAt = &now
	const stmt = `UPDATE users SET username = :username, firstname = :firstname, lastname = :lastname, email = :email,
phone = :phone, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, stmt, user)
	if err != nil {
		return translateUnique("update user", err)
	}
	return requireAffected("update user", res)
}

// UpdateLastLogin records the time and origin of a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, ip string, ts time.Time) error {
	const stmt = `UPDATE users SET last_login = $2, login_ip = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, stmt, id, ts, ip); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const stmt = `UPDATE users SET password = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected("update password", res)
}

// UpdateRole points the user at another role.
func (r *UserRepository) UpdateRole(ctx context.Context, id, roleID int64, updatedAt time.Time) error {
	const stmt = `UPDATE users SET role_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, id, roleID, updatedAt)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return requireAffected("update user role", res)
}

// Delete removes the user and every teacher/student link it takes part in atomically.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_students WHERE teacher_id = $1 OR student_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete teacher students: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireAffected("delete user", res); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user tx: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
