/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 20:40:06
 * @FilePath: \inventory-app\backend\internal\service\auth\service.go
 * @LastEditTime: 2025-10-22 14:26:51
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "inventory-app/backend/internal/domain/user"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidLogin         = errors.New("invalid username or password")
	ErrRefreshTokenInvalid  = errors.New("refresh token is invalid")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrSessionNotFound      = errors.New("session user not found")
)

// TokenPair 表示一次登录或续期签发的令牌组合。
// RefreshTokenID/RefreshTokenExpiresAt 仅在服务端用于登记刷新令牌。
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	ExpiresIn             int64     `json:"expires_in"` // seconds
	AccessTokenExpiresAt  time.Time `json:"-"`
	RefreshTokenID        string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}

// RefreshTokenClaims 是解析刷新令牌得到的关键信息。
type RefreshTokenClaims struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager 抽象令牌签发与刷新令牌解析。
type TokenManager interface {
	GenerateTokens(ctx context.Context, user *domain.User) (TokenPair, error)
	ParseRefreshToken(token string) (RefreshTokenClaims, error)
}

// RefreshTokenStore 保存刷新令牌指纹，实现单次使用与登出。
type RefreshTokenStore interface {
	Save(ctx context.Context, userID uint, tokenID string, expiresAt time.Time) error
	Delete(ctx context.Context, userID uint, tokenID string) error
	Exists(ctx context.Context, userID uint, tokenID string) (bool, error)
	RevokeAll(ctx context.Context, userID uint) error
}

// UserStore 是鉴权流程需要的用户读写能力。
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, userID uint, at time.Time) error
}

// Service 处理登录、续期、登出与会话查询。
type Service struct {
	users        UserStore
	tokenManager TokenManager
	refreshStore RefreshTokenStore
	logger       *zap.SugaredLogger
	now          func() time.Time
}

// NewService 创建鉴权服务。
func NewService(users UserStore, tm TokenManager, store RefreshTokenStore) *Service {
	return &Service{
		users:        users,
		tokenManager: tm,
		refreshStore: store,
		logger:       appLogger.S().With("component", "auth.service"),
		now:          time.Now,
	}
}

func (s *Service) scope(operation string) *zap.SugaredLogger {
	return s.logger.With("operation", operation)
}

// LoginParams 封装登录参数。
type LoginParams struct {
	Username string
	Password string
}

// Login 校验用户名与密码，记录登录时间并签发新的 TokenPair。
func (s *Service) Login(ctx context.Context, params LoginParams) (*domain.User, TokenPair, error) {
	username := strings.TrimSpace(params.Username)
	log := s.scope("login").With("username", username)

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("unknown username")
			return nil, TokenPair{}, ErrInvalidLogin
		}
		log.Errorw("load user failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !security.CheckPassword(user.PasswordHash, params.Password) {
		log.Warn("password mismatch")
		return nil, TokenPair{}, ErrInvalidLogin
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Errorw("update last login failed", "error", err, "user_id", user.ID)
		return nil, TokenPair{}, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoginAt = &now

	tokens, err := s.issueAndStoreTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	log.Infow("login success", "user_id", user.ID, "role", user.Role)
	return user, tokens, nil
}

// Refresh 用刷新令牌换取新的令牌对，旧令牌立即作废。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	log := s.scope("refresh")

	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		log.Warnw("refresh token rejected", "error", err)
		return TokenPair{}, err
	}

	ok, err := s.refreshStore.Exists(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		log.Errorw("refresh store check failed", "error", err)
		return TokenPair{}, fmt.Errorf("check refresh token: %w", err)
	}
	if !ok {
		log.Warnw("refresh token revoked", "user_id", claims.UserID)
		return TokenPair{}, ErrRefreshTokenRevoked
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, ErrRefreshTokenRevoked
		}
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if err := s.refreshStore.Delete(ctx, claims.UserID, claims.TokenID); err != nil {
		log.Errorw("delete old refresh token failed", "error", err, "token_id", claims.TokenID)
		return TokenPair{}, fmt.Errorf("delete refresh token: %w", err)
	}
	return s.issueAndStoreTokens(ctx, user)
}

// Logout 撤销指定刷新令牌。
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		return err
	}
	if err := s.refreshStore.Delete(ctx, claims.UserID, claims.TokenID); err != nil {
		s.scope("logout").Errorw("delete refresh token failed", "error", err, "token_id", claims.TokenID)
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// RevokeAll 吊销用户全部刷新令牌。
func (s *Service) RevokeAll(ctx context.Context, userID uint) error {
	return s.refreshStore.RevokeAll(ctx, userID)
}

// Session 返回当前登录用户。
func (s *Service) Session(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) parseRefresh(raw string) (RefreshTokenClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return RefreshTokenClaims{}, ErrRefreshTokenRequired
	}
	claims, err := s.tokenManager.ParseRefreshToken(raw)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenExpired) {
			return RefreshTokenClaims{}, ErrRefreshTokenExpired
		}
		return RefreshTokenClaims{}, ErrRefreshTokenInvalid
	}
	if !claims.ExpiresAt.IsZero() && s.now().After(claims.ExpiresAt) {
		return RefreshTokenClaims{}, ErrRefreshTokenExpired
	}
	return claims, nil
}

// issueAndStoreTokens 签发令牌并登记刷新令牌，登记失败时不返回令牌。
func (s *Service) issueAndStoreTokens(ctx context.Context, user *domain.User) (TokenPair, error) {
	tokens, err := s.tokenManager.GenerateTokens(ctx, user)
	if err != nil {
		s.scope("issue_tokens").Errorw("generate tokens failed", "error", err, "user_id", user.ID)
		return TokenPair{}, fmt.Errorf("generate tokens: %w", err)
	}
	if tokens.RefreshTokenID == "" || tokens.RefreshTokenExpiresAt.IsZero() {
		return TokenPair{}, errors.New("refresh token metadata missing")
	}
	if err := s.refreshStore.Save(ctx, user.ID, tokens.RefreshTokenID, tokens.RefreshTokenExpiresAt); err != nil {
		s.scope("issue_tokens").Errorw("save refresh token failed", "error", err, "user_id", user.ID)
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return tokens, nil
}
