/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 22:37:41
 * @FilePath: \inventory-app\backend\internal\service\user\service.go
 * @LastEditTime: 2025-10-26 10:12:05
 */
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "inventory-app/backend/internal/domain/user"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/security"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 表示请求的用户不存在。
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken 表示用户名已被占用。
	ErrUsernameTaken = errors.New("username already exists")
	// ErrPrivilegeChangeRejected 表示权限切换的前置条件不满足（非管理员、目标不是员工或 ID 不匹配）。
	ErrPrivilegeChangeRejected = errors.New("privilege change rejected")
	// ErrInvalidPrivilege 表示请求中包含未知权限名。
	ErrInvalidPrivilege = errors.New("invalid privilege")
	// ErrInvalidInput 包装参数校验失败。
	ErrInvalidInput = errors.New("invalid user input")
)

// Store 是用户服务依赖的仓储能力，*repository.UserRepository 满足该接口。
type Store interface {
	Create(ctx context.Context, u *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByStaffID(ctx context.Context, staffID string) (*domain.User, error)
	FindByAdminID(ctx context.Context, adminID string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	UpdatePrivileges(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id uint) error
}

// TokenRevoker 在删除用户或修改密码后吊销其刷新令牌。
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID uint) error
}

// Service 负责用户的增删改查与员工权限切换。
type Service struct {
	users    Store
	revoker  TokenRevoker
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

// NewService 构造用户服务，revoker 可为空。
func NewService(users Store, revoker TokenRevoker) *Service {
	return &Service{
		users:    users,
		revoker:  revoker,
		validate: validator.New(),
		logger:   appLogger.S().With("component", "service.user"),
	}
}

// CreateParams 描述新建用户的输入。
type CreateParams struct {
	Username string `json:"userName" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required"`
}

// UpdateParams 描述可修改的字段，nil 表示不修改。
type UpdateParams struct {
	Username *string `json:"userName,omitempty" validate:"omitempty,min=3,max=64"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

// Create 新建用户并按角色初始化权限。
func (s *Service) Create(ctx context.Context, params CreateParams) (*domain.User, error) {
	params.Username = strings.TrimSpace(params.Username)
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	role, err := domain.ParseRole(params.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.ensureUsernameFree(ctx, params.Username, 0); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := domain.NewUser(params.Username, hash, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Infow("user created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// List 返回全部用户。
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	return wrapLookup(s.users.FindByID(ctx, id))
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return wrapLookup(s.users.FindByUsername(ctx, strings.TrimSpace(username)))
}

func (s *Service) GetByStaffID(ctx context.Context, staffID string) (*domain.User, error) {
	return wrapLookup(s.users.FindByStaffID(ctx, strings.TrimSpace(staffID)))
}

func (s *Service) GetByAdminID(ctx context.Context, adminID string) (*domain.User, error) {
	return wrapLookup(s.users.FindByAdminID(ctx, strings.TrimSpace(adminID)))
}

// Update 修改用户名或密码；修改密码会吊销该用户全部刷新令牌。
func (s *Service) Update(ctx context.Context, id uint, params UpdateParams) (*domain.User, error) {
	if params.Username != nil {
		trimmed := strings.TrimSpace(*params.Username)
		params.Username = &trimmed
	}
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Username != nil && *params.Username != u.Username {
		if err := s.ensureUsernameFree(ctx, *params.Username, u.ID); err != nil {
			return nil, err
		}
		u.Username = *params.Username
	}
	passwordChanged := false
	if params.Password != nil {
		hash, err := security.HashPassword(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		passwordChanged = true
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if passwordChanged {
		s.revokeSessions(ctx, u.ID)
	}
	return u, nil
}

// Delete 删除用户并吊销其会话。
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.revokeSessions(ctx, id)
	s.logger.Infow("user deleted", "user_id", id)
	return nil
}

// ChangeStaffPrivileges 由 adminID 对应的管理员翻转 staffID 对应员工的权限。
// 每个权限名会被翻转一次，重复出现则重复翻转。
func (s *Service) ChangeStaffPrivileges(ctx context.Context, adminID, staffID string, names []string) (*domain.User, error) {
	privileges := make([]domain.Privilege, 0, len(names))
	for _, name := range names {
		p, err := domain.ParsePrivilege(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrivilege, name)
		}
		privileges = append(privileges, p)
	}

	admin, err := s.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	staff, err := s.GetByStaffID(ctx, staffID)
	if err != nil {
		return nil, err
	}

	if !domain.TogglePrivileges(admin.Role, staff, staffID, privileges) {
		if len(privileges) == 0 {
			return staff, nil
		}
		return nil, ErrPrivilegeChangeRejected
	}
	if err := s.users.UpdatePrivileges(ctx, staff); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update privileges: %w", err)
	}
	s.logger.Infow("staff privileges toggled",
		"admin_id", adminID, "staff_id", staffID, "privileges", privileges)
	return staff, nil
}

func (s *Service) ensureUsernameFree(ctx context.Context, username string, selfID uint) error {
	existing, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrUsernameTaken
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check username: %w", err)
	}
}

func (s *Service) revokeSessions(ctx context.Context, userID uint) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.RevokeAll(ctx, userID); err != nil {
		s.logger.Warnw("revoke refresh tokens failed", "user_id", userID, "error", err)
	}
}

func wrapLookup(u *domain.User, err error) (*domain.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
