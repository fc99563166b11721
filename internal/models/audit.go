package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audited actions.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionRefresh          = "TOKEN_REFRESH"
	AuditActionUserCreate       = "USER_CREATE"
	AuditActionUserUpdate       = "USER_UPDATE"
	AuditActionUserDelete       = "USER_DELETE"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionRoleAssign       = "ROLE_ASSIGN"
	AuditActionPermissionGrant  = "PERMISSION_GRANT"
	AuditActionPermissionRevoke = "PERMISSION_REVOKE"
)

// AuditLog is one row of the append-only audit trail. UserID is the acting identity, nil for
// anonymous calls such as a failed refresh.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	UserID     *int64         `db:"user_id" json:"userId,omitempty"`
	Action     string         `db:"action" json:"action"`
	Resource   string         `db:"resource" json:"resource"`
	ResourceID *string        `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  types.JSONText `db:"old_values" json:"oldValues,omitempty"`
	NewValues  types.JSONText `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string         `db:"ip_address" json:"ipAddress"`
	UserAgent  string         `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// RequestMeta describes who issued a mutation and from where.
type RequestMeta struct {
	ActorID   int64
	ActorRole UserRole
	IP        string
	UserAgent string
	RequestID string
}
