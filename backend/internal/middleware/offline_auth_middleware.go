package middleware

import (
	domain "inventory-app/backend/internal/domain/user"

	"github.com/gin-gonic/gin"
)

// OfflineAuthMiddleware 在本地模式下注入固定管理员，绕过 JWT 校验流程。
type OfflineAuthMiddleware struct {
	userID   uint
	username string
}

// NewOfflineAuthMiddleware 构造用于离线模式的鉴权中间件。
func NewOfflineAuthMiddleware(userID uint, username string) *OfflineAuthMiddleware {
	return &OfflineAuthMiddleware{userID: userID, username: username}
}

// Handle 将固定用户写入上下文，使后续 Handler 可以读取 userID/isAdmin。
func (m *OfflineAuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		setIdentity(c, m.userID, m.username, domain.RoleAdmin)
		c.Next()
	}
}
