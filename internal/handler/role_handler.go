package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type roleService interface {
	ListActive(ctx context.Context) ([]models.Role, error)
	Assign(ctx context.Context, req models.AssignRoleRequest, meta models.RequestMeta) (*models.User, error)
	Permissions(ctx context.Context, roleID int64) (*models.Role, error)
	SetPermission(ctx context.Context, req models.RolePermissionRequest, allowed bool, meta models.RequestMeta) error
}

// RoleHandler exposes role and permission administration.
type RoleHandler struct {
	service roleService
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(svc roleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// List godoc
// @Summary List active roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /core/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"roles": roles})
}

// Assign godoc
// @Summary Assign role to user
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AssignRoleRequest true "Assignment"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /core/user-role [post]
func (h *RoleHandler) Assign(c *gin.Context) {
	var req models.AssignRoleRequest
	if !bindJSON(c, &req, "invalid role assignment payload") {
		return
	}
	user, err := h.service.Assign(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user, "message": "Role successfully assigned."})
}

// Permissions godoc
// @Summary Effective permissions of a role
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /core/roles/{id}/permissions [get]
func (h *RoleHandler) Permissions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	role, err := h.service.Permissions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	codes := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		codes[i] = p.Code
	}
	response.OK(c, gin.H{"role": role, "permissions": codes})
}

func (h *RoleHandler) setPermission(c *gin.Context, allowed bool, message string) {
	var req models.RolePermissionRequest
	if !bindJSON(c, &req, "invalid role permission payload") {
		return
	}
	if err := h.service.SetPermission(c.Request.Context(), req, allowed, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, message)
}

// Grant godoc
// @Summary Grant permission to role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RolePermissionRequest true "Role and permission"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /core/role-permissions [post]
func (h *RoleHandler) Grant(c *gin.Context) {
	h.setPermission(c, true, "Permission granted.")
}

// Revoke godoc
// @Summary Revoke permission from role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RolePermissionRequest true "Role and permission"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /core/role-permissions [delete]
func (h *RoleHandler) Revoke(c *gin.Context) {
	h.setPermission(c, false, "Permission revoked.")
}
