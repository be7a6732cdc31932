/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 20:41:15
 * @FilePath: \inventory-app\backend\internal\middleware\auth_middleware.go
 * @LastEditTime: 2025-10-25 21:16:40
 */
package middleware

import (
	"net/http"
	"strings"

	domain "inventory-app/backend/internal/domain/user"
	response "inventory-app/backend/internal/infra/common"
	"inventory-app/backend/internal/infra/token"

	"github.com/gin-gonic/gin"
)

// 上下文键，Handler 通过这些键读取当前用户。
const (
	ContextUserID   = "userID"
	ContextIsAdmin  = "isAdmin"
	ContextRole     = "role"
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// Authenticator 是路由层可挂载的身份中间件：在线模式为 JWT 校验，本地模式为固定管理员。
type Authenticator interface {
	Handle() gin.HandlerFunc
}

// AccessTokenParser 解析访问令牌，*token.JWTManager 满足该接口。
type AccessTokenParser interface {
	ParseAccessToken(raw string) (*token.Claims, error)
}

// AuthMiddleware 校验 Bearer Token，并把用户身份写入上下文。
type AuthMiddleware struct {
	parser AccessTokenParser
}

// NewAuthMiddleware 创建鉴权中间件实例。
func NewAuthMiddleware(parser AccessTokenParser) *AuthMiddleware {
	return &AuthMiddleware{parser: parser}
}

// Handle 返回 Gin 中间件，令牌缺失或无效时返回 401。
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "missing authorization header", nil)
			c.Abort()
			return
		}

		claims, err := m.parser.ParseAccessToken(raw)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token", nil)
			c.Abort()
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token subject", nil)
			c.Abort()
			return
		}

		setIdentity(c, userID, claims.Username, claims.Role)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// BearerToken 从 Authorization 头中取出令牌。
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}

func setIdentity(c *gin.Context, userID uint, username string, role domain.Role) {
	c.Set(ContextUserID, userID)
	c.Set(ContextUsername, username)
	c.Set(ContextRole, role)
	c.Set(ContextIsAdmin, role == domain.RoleAdmin)
}

// CurrentUserID 读取上下文中的用户 ID。
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// IsAdmin 判断当前请求是否来自管理员。
func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(ContextIsAdmin)
	if !ok {
		return false
	}
	admin, _ := v.(bool)
	return admin
}

// CurrentRole 读取上下文中的角色。
func CurrentRole(c *gin.Context) domain.Role {
	v, _ := c.Get(ContextRole)
	role, _ := v.(domain.Role)
	return role
}
