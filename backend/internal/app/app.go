/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 10:40:17
 * @FilePath: \inventory-app\backend\internal\app\app.go
 * @LastEditTime: 2025-10-27 16:52:44
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inventory-app/backend/internal/config"
	ingredientdomain "inventory-app/backend/internal/domain/ingredient"
	recipedomain "inventory-app/backend/internal/domain/recipe"
	reportdomain "inventory-app/backend/internal/domain/report"
	userdomain "inventory-app/backend/internal/domain/user"
	"inventory-app/backend/internal/infra/client"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/security"
	"inventory-app/backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Resources 持有进程级的外部连接，由 cmd 入口负责 Close。
type Resources struct {
	Config config.RuntimeConfig
	DB     *gorm.DB
	Redis  *redis.Client
}

// InitResources 读取配置并建立数据库/Redis 连接。
// 本地模式使用 SQLite 并确保存在默认管理员；在线模式使用 MySQL，Redis 连接失败时降级为内存实现。
func InitResources(ctx context.Context) (*Resources, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return InitResourcesWithConfig(ctx, cfg)
}

// InitResourcesWithConfig 与 InitResources 相同，但使用调用方给定的配置。
func InitResourcesWithConfig(ctx context.Context, cfg config.RuntimeConfig) (*Resources, error) {
	logger := appLogger.S().With("component", "app")
	gormCfg := &gorm.Config{Logger: client.NewGormLogger()}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.IsLocal() {
		db, err = client.OpenSQLite(cfg.Local.DBPath, gormCfg)
	} else {
		db, err = client.OpenMySQL(cfg.MySQL, gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	resources := &Resources{Config: cfg, DB: db}

	if err := autoMigrate(ctx, db); err != nil {
		_ = resources.Close()
		return nil, err
	}

	if cfg.IsLocal() {
		id, err := ensureLocalAdmin(ctx, db, cfg.Local)
		if err != nil {
			_ = resources.Close()
			return nil, err
		}
		resources.Config.Local.UserID = id
		logger.Infow("local mode ready", "sqlite_path", cfg.Local.DBPath, "local_user_id", id)
		return resources, nil
	}

	if cfg.RedisEnabled() {
		redisClient, err := client.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warnw("redis unavailable, falling back to in-memory stores", "endpoint", cfg.Redis.Endpoint, "error", err)
		} else {
			resources.Redis = redisClient
		}
	}
	logger.Infow("online mode ready", "mysql_host", cfg.MySQL.Host, "database", cfg.MySQL.Database, "redis", resources.Redis != nil)
	return resources, nil
}

func autoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&userdomain.User{},
		&ingredientdomain.Ingredient{},
		&recipedomain.Recipe{},
		&recipedomain.UseHistory{},
		&reportdomain.Report{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ensureLocalAdmin 保证本地模式下存在固定管理员账号，离线中间件以它的身份放行请求。
func ensureLocalAdmin(ctx context.Context, db *gorm.DB, local config.LocalRuntime) (uint, error) {
	users := repository.NewUserRepository(db)
	existing, err := users.FindByUsername(ctx, local.Username)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("lookup local admin: %w", err)
	}

	hash, err := security.HashPassword(local.Password)
	if err != nil {
		return 0, fmt.Errorf("hash local admin password: %w", err)
	}
	admin, err := userdomain.NewUser(local.Username, hash, userdomain.RoleAdmin)
	if err != nil {
		return 0, err
	}
	if err := users.Create(ctx, admin); err != nil {
		return 0, fmt.Errorf("create local admin: %w", err)
	}
	return admin.ID, nil
}

func (r *Resources) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func (r *Resources) DBConn() *gorm.DB {
	if r == nil {
		return nil
	}
	return r.DB
}

func WithShutdown(ctx context.Context, cancel func(), fn func(context.Context) error) {
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
