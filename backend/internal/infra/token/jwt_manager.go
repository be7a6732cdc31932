/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 20:40:41
 * @FilePath: \inventory-app\backend\internal\infra\token\jwt_manager.go
 * @LastEditTime: 2025-10-22 11:02:37
 */
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "inventory-app/backend/internal/domain/user"
	"inventory-app/backend/internal/service/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	issuer           = "inventory-app"
)

var (
	ErrWrongTokenType = errors.New("unexpected token type")
	ErrInvalidSubject = errors.New("invalid token subject")
)

// Claims 是访问令牌与刷新令牌共用的载荷。
type Claims struct {
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	IsAdmin   bool        `json:"is_admin"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID 从 sub 中解析用户主键。
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidSubject
	}
	return uint(id), nil
}

// JWTManager 使用 HS256 签发访问令牌与刷新令牌。
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager 创建 JWT 管理器，TTL 非正数时分别回退为 15 分钟与 7 天。
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// GenerateTokens 为用户签发一对令牌，刷新令牌带有唯一 jti。
func (m *JWTManager) GenerateTokens(_ context.Context, user *domain.User) (auth.TokenPair, error) {
	issuedAt := m.now()

	access, accessExp, err := m.sign(user, tokenTypeAccess, "", issuedAt, m.accessTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshID := uuid.NewString()
	refresh, refreshExp, err := m.sign(user, tokenTypeRefresh, refreshID, issuedAt, m.refreshTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return auth.TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		ExpiresIn:             int64(m.accessTTL.Seconds()),
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenID:        refreshID,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func (m *JWTManager) sign(user *domain.User, tokenType, tokenID string, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := issuedAt.Add(ttl)
	claims := Claims{
		Username:  user.Username,
		Role:      user.Role,
		IsAdmin:   user.IsAdmin(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) parse(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseAccessToken 校验访问令牌并返回载荷。
func (m *JWTManager) ParseAccessToken(raw string) (*Claims, error) {
	return m.parse(raw, tokenTypeAccess)
}

// ParseRefreshToken 校验刷新令牌，返回用户 ID、jti 与过期时间。
func (m *JWTManager) ParseRefreshToken(raw string) (auth.RefreshTokenClaims, error) {
	claims, err := m.parse(raw, tokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.RefreshTokenClaims{}, auth.ErrRefreshTokenExpired
		}
		return auth.RefreshTokenClaims{}, err
	}
	if claims.ID == "" {
		return auth.RefreshTokenClaims{}, errors.New("missing refresh token id")
	}
	userID, _ := claims.UserID()
	return auth.RefreshTokenClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
