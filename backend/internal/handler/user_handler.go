/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 22:38:26
 * @FilePath: \inventory-app\backend\internal\handler\user_handler.go
 * @LastEditTime: 2025-10-26 17:20:45
 */
package handler

import (
	"errors"
	"net/http"

	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"
	usersvc "inventory-app/backend/internal/service/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 负责用户管理相关的 HTTP 入口。
type UserHandler struct {
	service *usersvc.Service
	logger  *zap.SugaredLogger
}

// NewUserHandler 构造用户 handler。
func NewUserHandler(service *usersvc.Service) *UserHandler {
	baseLogger := appLogger.S().With("component", "user.handler")
	return &UserHandler{service: service, logger: baseLogger}
}

// GetMe 返回当前登录用户资料。
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		h.scope("get_me").Warnw("missing user id")
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "missing user id", nil)
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "get_me", err)
		return
	}
	response.Success(c, http.StatusOK, u, nil)
}

// List 返回全部用户。
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	response.Success(c, http.StatusOK, users, nil)
}

// Get 按主键返回用户。
func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	response.Success(c, http.StatusOK, u, nil)
}

func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.service.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, "get_by_username", err)
		return
	}
	response.Success(c, http.StatusOK, u, nil)
}

func (h *UserHandler) GetByStaffID(c *gin.Context) {
	u, err := h.service.GetByStaffID(c.Request.Context(), c.Param("staffId"))
	if err != nil {
		h.fail(c, "get_by_staff_id", err)
		return
	}
	response.Success(c, http.StatusOK, u, nil)
}

func (h *UserHandler) GetByAdminID(c *gin.Context) {
	u, err := h.service.GetByAdminID(c.Request.Context(), c.Param("adminId"))
	if err != nil {
		h.fail(c, "get_by_admin_id", err)
		return
	}
	response.Success(c, http.StatusOK, u, nil)
}

// Create 新建用户，仅限管理员。
func (h *UserHandler) Create(c *gin.Context) {
	var req usersvc.CreateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	u, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	h.scope("create").Infow("user created", "user_id", u.ID, "role", u.Role)
	response.Created(c, u, nil)
}

// Update 修改用户名或密码，管理员或本人可操作。
func (h *UserHandler) Update(c *gin.Context) {
	log := h.scope("update")
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	callerID, _ := extractUserID(c)
	if !isAdmin(c) && callerID != id {
		log.Warnw("update other user denied", "caller_id", callerID, "target_id", id)
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "cannot modify another user", nil)
		return
	}

	var req usersvc.UpdateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	u, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	response.Success(c, http.StatusOK, u, nil)
}

// Delete 删除用户，仅限管理员。
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	response.NoContent(c)
}

type privilegeRequest struct {
	Privileges []string `json:"privileges" binding:"required"`
}

// ChangePrivileges 由管理员翻转员工的权限列表。
func (h *UserHandler) ChangePrivileges(c *gin.Context) {
	var req privilegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	adminID := c.Param("adminId")
	staffID := c.Param("staffId")
	u, err := h.service.ChangeStaffPrivileges(c.Request.Context(), adminID, staffID, req.Privileges)
	if err != nil {
		h.fail(c, "change_privileges", err)
		return
	}
	h.scope("change_privileges").Infow("privileges changed", "admin_id", adminID, "staff_id", staffID)
	response.Success(c, http.StatusOK, u, nil)
}

func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	log := h.scope(op)
	switch {
	case errors.Is(err, usersvc.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, err.Error(), nil)
	case errors.Is(err, usersvc.ErrUsernameTaken):
		response.Fail(c, http.StatusConflict, response.ErrConflict, err.Error(), gin.H{"field": "userName"})
	case errors.Is(err, usersvc.ErrInvalidInput):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, err.Error(), nil)
	case errors.Is(err, usersvc.ErrInvalidPrivilege):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPrivilege, err.Error(), nil)
	case errors.Is(err, usersvc.ErrPrivilegeChangeRejected):
		log.Warnw("privilege change rejected", "error", err)
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, err.Error(), nil)
	default:
		log.Errorw("user request failed", "error", err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "user request failed", nil)
	}
}

func (h *UserHandler) scope(operation string) *zap.SugaredLogger {
	if h.logger == nil {
		h.logger = appLogger.S().With("component", "user.handler")
	}
	return h.logger.With("operation", operation)
}
