package models

import "time"

// UserRole is the name of a role as stored in roles.name.
type UserRole string

const (
	RoleAdmin   UserRole = "Admin"
	RoleTeacher UserRole = "Teacher"
	RoleStudent UserRole = "Student"
)

// Permission codes seeded for the built-in roles.
const (
	PermissionFullSystem   = "full_system"
	PermissionAddStudents  = "add_students"
	PermissionGenerateQuiz = "generate_quiz"
	PermissionAllocateQuiz = "allocate_quiz"
	PermissionViewLessons  = "view_lessons"
)

// User represents an application identity stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Firstname    string     `db:"firstname" json:"firstname"`
	Lastname     string     `db:"lastname" json:"lastname"`
	Email        string     `db:"email" json:"email"`
	Phone        *string    `db:"phone" json:"phone"`
	PasswordHash string     `db:"password" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	RoleID       *int64     `db:"role_id" json:"role_id"`
	LoginIP      *string    `db:"login_ip" json:"login_ip"`
	LastLogin    *time.Time `db:"last_login" json:"last_login"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at"`

	Role     *Role    `db:"-" json:"role,omitempty"`
	Lessons  []Lesson `db:"-" json:"lessons,omitempty"`
	Students []User   `db:"-" json:"students,omitempty"`
	Teachers []User   `db:"-" json:"teachers,omitempty"`
	Quizzes  []Quiz   `db:"-" json:"quizzes,omitempty"`
}

// RoleName returns the attached role name, or an empty role when none is loaded.
func (u *User) RoleName() UserRole {
	if u == nil || u.Role == nil {
		return ""
	}
	return UserRole(u.Role.Name)
}

// UserSummary is the trimmed identity embedded as a creator reference.
type UserSummary struct {
	ID        int64  `db:"id" json:"id"`
	Firstname string `db:"firstname" json:"firstname"`
	Lastname  string `db:"lastname" json:"lastname"`
	Email     string `db:"email" json:"email"`
}

// Role is a named permission bundle.
type Role struct {
	ID          int64        `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description *string      `db:"description" json:"description,omitempty"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	Permissions []Permission `db:"-" json:"permissions,omitempty"`
}

// Permission is an atomic capability granted to roles.
type Permission struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RoleGrant is the resolved authorization data of one identity.
type RoleGrant struct {
	UserID      int64    `json:"user_id"`
	RoleName    UserRole `json:"role"`
	Permissions []string `json:"permissions"`
}

// Has reports whether code is in the granted permission set.
func (g *RoleGrant) Has(code string) bool {
	for _, p := range g.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// CreateUserRequest is the payload for registering a user.
type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required,max=100"`
	Firstname string  `json:"firstname" validate:"required,max=100"`
	Lastname  string  `json:"lastname" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=15"`
	Password  string  `json:"password" validate:"required,min=6"`
	RoleID    *int64  `json:"role_id"`
}

// UpdateUserRequest carries optional profile changes. Empty values keep the stored ones.
type UpdateUserRequest struct {
	Username  string  `json:"username" validate:"omitempty,max=100"`
	Firstname string  `json:"firstname" validate:"omitempty,max=100"`
	Lastname  string  `json:"lastname" validate:"omitempty,max=100"`
	Email     string  `json:"email" validate:"omitempty,email,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=15"`
	IsActive  *bool   `json:"is_active"`
}

// ChangePasswordRequest replaces the stored secret of a user.
type ChangePasswordRequest struct {
	UserID      int64  `json:"userId" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// AssignRoleRequest reassigns the role of a user.
type AssignRoleRequest struct {
	UserID int64 `json:"userId" validate:"required"`
	RoleID int64 `json:"roleId" validate:"required"`
}

// RolePermissionRequest grants or revokes one permission on a role.
type RolePermissionRequest struct {
	RoleID       int64 `json:"roleId" validate:"required"`
	PermissionID int64 `json:"permissionId" validate:"required"`
}

// TeacherStudentRequest links or unlinks a student and a teacher.
type TeacherStudentRequest struct {
	TeacherID int64 `json:"teacherId" validate:"required"`
	StudentID int64 `json:"studentId" validate:"required"`
}
