/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 20:42:09
 * @FilePath: \inventory-app\backend\internal\handler\auth_handler.go
 * @LastEditTime: 2025-10-25 21:40:02
 */
package handler

import (
	"errors"
	"net/http"

	response "inventory-app/backend/internal/infra/common"
	"inventory-app/backend/internal/middleware"
	"inventory-app/backend/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责对接 Gin，处理鉴权相关的 HTTP 请求。
type AuthHandler struct {
	service *auth.Service
	parser  middleware.AccessTokenParser
}

// NewAuthHandler 构造鉴权 handler；parser 用于 /session 的可选令牌解析。
func NewAuthHandler(service *auth.Service, parser middleware.AccessTokenParser) *AuthHandler {
	return &AuthHandler{service: service, parser: parser}
}

type loginRequest struct {
	Username string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type sessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"userName"`
	Role     string `json:"role"`
}

// Login 校验用户名与密码并返回令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}

	user, tokens, err := h.service.Login(c.Request.Context(), auth.LoginParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidLogin) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials, "invalid username or password", nil)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "login failed", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	}, nil)
}

// Refresh 用刷新令牌换取新的令牌对。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		failRefresh(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tokens": tokens}, nil)
}

// Logout 撤销刷新令牌。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		failRefresh(c, err)
		return
	}
	response.NoContent(c)
}

// Session 返回当前会话；令牌缺失或无效时 authenticated=false，不返回错误码。
func (h *AuthHandler) Session(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok && h.parser != nil {
		if raw, found := middleware.BearerToken(c); found {
			if claims, err := h.parser.ParseAccessToken(raw); err == nil {
				userID, err = claims.UserID()
				ok = err == nil
			}
		}
	}
	if !ok {
		response.Success(c, http.StatusOK, gin.H{"authenticated": false}, nil)
		return
	}

	user, err := h.service.Session(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			response.Success(c, http.StatusOK, gin.H{"authenticated": false}, nil)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "load session failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"authenticated": true,
		"user":          sessionUser{ID: user.ID, Username: user.Username, Role: string(user.Role)},
	}, nil)
}

func failRefresh(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrRefreshTokenRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrRefreshTokenInvalid),
		errors.Is(err, auth.ErrRefreshTokenExpired),
		errors.Is(err, auth.ErrRefreshTokenRevoked):
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, err.Error(), nil)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "token request failed", nil)
	}
}
