package middleware

import (
	"context"
	"net/http"

	domain "inventory-app/backend/internal/domain/user"
	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"

	"github.com/gin-gonic/gin"
)

// UserLookup 按 ID 读取用户，*user.Service 满足该接口。
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*domain.User, error)
}

// PrivilegeGuard 按员工权限拦截请求，管理员直接放行。
type PrivilegeGuard struct {
	users UserLookup
}

// NewPrivilegeGuard 构造权限守卫。
func NewPrivilegeGuard(users UserLookup) *PrivilegeGuard {
	return &PrivilegeGuard{users: users}
}

// Require 返回要求指定权限的中间件。
// 员工权限每次从数据库读取，管理员修改后立即生效。
func (g *PrivilegeGuard) Require(p domain.Privilege) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAdmin(c) {
			c.Next()
			return
		}
		userID, ok := CurrentUserID(c)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized", nil)
			c.Abort()
			return
		}
		u, err := g.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			appLogger.S().Warnw("privilege lookup failed", "user_id", userID, "error", err)
			response.Fail(c, http.StatusForbidden, response.ErrForbidden, "user not available", nil)
			c.Abort()
			return
		}
		if !u.Can(p) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden, "missing privilege "+string(p), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 仅允许管理员访问。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden, "admin privilege required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
