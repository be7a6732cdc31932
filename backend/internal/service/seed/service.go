/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-22 09:41:26
 * @FilePath: \inventory-app\backend\internal\service\seed\service.go
 * @LastEditTime: 2025-10-26 15:27:51
 */
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	reportdomain "inventory-app/backend/internal/domain/report"
	userdomain "inventory-app/backend/internal/domain/user"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	seedDays        = 30
	DefaultPassword = "password123"
)

var recipeNames = []string{
	"Spaghetti Carbonara", "Chicken Tikka Masala", "Beef Tacos",
	"Caesar Salad", "Margherita Pizza", "Pad Thai",
	"Grilled Salmon", "Vegetable Stir Fry", "Chicken Curry",
	"Beef Stroganoff", "Mushroom Risotto", "Fish and Chips",
}

var ingredientNames = []string{
	"Tomatoes", "Chicken Breast", "Onions", "Garlic",
	"Pasta", "Rice", "Olive Oil", "Salt", "Pepper",
	"Cheese", "Lettuce", "Carrots", "Potatoes", "Beef",
	"Fish", "Mushrooms", "Bell Peppers", "Spinach",
}

var (
	adminUsernames = []string{"admin1", "admin2", "admin3"}
	staffUsernames = []string{
		"john_doe", "jane_smith", "mike_johnson", "sarah_williams",
		"david_brown", "emily_davis", "james_wilson", "lisa_moore",
		"robert_taylor", "maria_anderson",
	}
)

// ReportWriter 是写入与清空报表事件的能力，*report.Service 满足该接口。
type ReportWriter interface {
	RecordBatch(ctx context.Context, entries []reportdomain.Report) error
	Reset(ctx context.Context) (int64, error)
}

// UserStore 是写入与清空用户的能力，*repository.UserRepository 满足该接口。
type UserStore interface {
	Create(ctx context.Context, u *userdomain.User) error
	FindByUsername(ctx context.Context, username string) (*userdomain.User, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Result 汇总一次种子写入的结果。
type Result struct {
	Reports      int      `json:"reports"`
	Users        int      `json:"users"`
	SkippedUsers []string `json:"skippedUsers,omitempty"`
}

// Service 生成演示数据：近 30 天的报表事件与一组预置账号。
type Service struct {
	reports ReportWriter
	users   UserStore
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option 调整种子服务的可选依赖。
type Option func(*Service)

// WithRand 注入随机源，测试中用于得到确定结果。
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock 注入时间源。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService 构造种子服务。
func NewService(reports ReportWriter, users UserStore, opts ...Option) *Service {
	s := &Service{
		reports: reports,
		users:   users,
		logger:  appLogger.S().With("component", "service.seed"),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedReports 以当前时间为基准，生成过去 30 天的各类报表事件。
func (s *Service) SeedReports(ctx context.Context) (int, error) {
	entries := s.generateReports(s.now())
	if err := s.reports.RecordBatch(ctx, entries); err != nil {
		return 0, fmt.Errorf("seed reports: %w", err)
	}
	s.logger.Infow("seeded reports", "total", len(entries))
	return len(entries), nil
}

func (s *Service) generateReports(now time.Time) []reportdomain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []reportdomain.Report
	pick := func(t reportdomain.Type, names []string, date time.Time) {
		idx := s.rng.Intn(len(names))
		entries = append(entries, reportdomain.Report{
			ReportType: t,
			EntityID:   int64(idx + 1),
			EntityName: names[idx],
			Timestamp:  date.Add(-time.Duration(s.rng.Intn(24))*time.Hour - time.Duration(s.rng.Intn(60))*time.Minute),
			Count:      1,
		})
	}

	for d := 0; d < seedDays; d++ {
		date := now.AddDate(0, 0, -d)

		for i, n := 0, 3+s.rng.Intn(8); i < n; i++ {
			pick(reportdomain.TypeRecipeUsed, recipeNames, date)
		}
		for i, n := 0, 5+s.rng.Intn(16); i < n; i++ {
			pick(reportdomain.TypeIngredientUsed, ingredientNames, date)
		}
		if s.rng.Intn(100) < 30 {
			pick(reportdomain.TypeIngredientReachedLow, ingredientNames, date)
		}
		if s.rng.Intn(100) < 40 {
			for i, n := 0, 1+s.rng.Intn(3); i < n; i++ {
				pick(reportdomain.TypeRecipesCreated, recipeNames, date)
			}
		}
		if s.rng.Intn(100) < 35 {
			for i, n := 0, 1+s.rng.Intn(4); i < n; i++ {
				pick(reportdomain.TypeIngredientsCreated, ingredientNames, date)
			}
		}
	}
	return entries
}

// ClearReports 清空全部报表事件。
func (s *Service) ClearReports(ctx context.Context) (int64, error) {
	removed, err := s.reports.Reset(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear reports: %w", err)
	}
	s.logger.Infow("cleared reports", "removed", removed)
	return removed, nil
}

// SeedUsers 创建 admin1..admin3 与 10 个员工账号，已存在的用户名会被跳过。
func (s *Service) SeedUsers(ctx context.Context) (Result, error) {
	hash, err := security.HashPassword(DefaultPassword)
	if err != nil {
		return Result{}, fmt.Errorf("hash seed password: %w", err)
	}

	var result Result
	create := func(username string, role userdomain.Role) error {
		_, err := s.users.FindByUsername(ctx, username)
		switch {
		case err == nil:
			result.SkippedUsers = append(result.SkippedUsers, username)
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("check user %s: %w", username, err)
		}
		u, err := userdomain.NewUser(username, hash, role)
		if err != nil {
			return err
		}
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", username, err)
		}
		result.Users++
		return nil
	}

	for _, name := range adminUsernames {
		if err := create(name, userdomain.RoleAdmin); err != nil {
			return result, err
		}
	}
	for _, name := range staffUsernames {
		if err := create(name, userdomain.RoleStaff); err != nil {
			return result, err
		}
	}
	s.logger.Infow("seeded users", "created", result.Users, "skipped", len(result.SkippedUsers))
	return result, nil
}

// ClearUsers 删除全部用户。
func (s *Service) ClearUsers(ctx context.Context) (int64, error) {
	removed, err := s.users.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear users: %w", err)
	}
	s.logger.Infow("cleared users", "removed", removed)
	return removed, nil
}

// SeedAll 依次写入用户与报表事件。
func (s *Service) SeedAll(ctx context.Context) (Result, error) {
	result, err := s.SeedUsers(ctx)
	if err != nil {
		return result, err
	}
	n, err := s.SeedReports(ctx)
	if err != nil {
		return result, err
	}
	result.Reports = n
	return result, nil
}
