/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 10:12:31
 * @FilePath: \inventory-app\backend\internal\config\runtime.go
 * @LastEditTime: 2025-10-27 16:40:02
 */
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// ModeLocal 表示当前运行在离线/本地模式，使用 SQLite 且不依赖 Redis。
	ModeLocal = "local"
	// ModeOnline 表示运行在默认的在线模式，使用 MySQL，Redis 可选。
	ModeOnline = "online"

	defaultLocalDBRelPath = "data/inventory-local.db"
)

// RuntimeConfig 汇总进程启动所需的全部配置，统一由环境变量驱动。
type RuntimeConfig struct {
	Mode      string `env:"APP_MODE" env-default:"online"`
	Server    ServerConfig
	Auth      AuthConfig
	Local     LocalRuntime
	MySQL     MySQLConfig
	Redis     RedisConfig
	Report    ReportConfig
	RateLimit RateLimitConfig
}

// ServerConfig 描述 HTTP 服务监听参数。
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// AuthConfig 描述 JWT 签发参数。
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" env-default:"change-me"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" env-default:"168h"`
}

// LocalRuntime 描述本地模式下需要的额外配置。
type LocalRuntime struct {
	DBPath   string `env:"LOCAL_SQLITE_PATH"`
	Username string `env:"LOCAL_USER_USERNAME" env-default:"local-admin"`
	Password string `env:"LOCAL_USER_PASSWORD" env-default:"password123"`
	// UserID 在资源初始化后回填，指向本地默认管理员。
	UserID uint
}

// MySQLConfig 描述在线模式下的数据库连接配置。
type MySQLConfig struct {
	Host     string `env:"MYSQL_HOST"`
	Port     int    `env:"MYSQL_PORT" env-default:"3306"`
	Username string `env:"MYSQL_USERNAME"`
	Password string `env:"MYSQL_PASSWORD"`
	Database string `env:"MYSQL_DATABASE" env-default:"inventory"`
	Params   string `env:"MYSQL_PARAMS" env-default:"charset=utf8mb4&parseTime=true&loc=Local"`
}

// RedisConfig 描述 Redis 连接配置，Endpoint 为空时视为未启用。
type RedisConfig struct {
	Endpoint string `env:"REDIS_ENDPOINT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// ReportConfig 控制报表保留策略。
type ReportConfig struct {
	RetentionDays  int    `env:"REPORT_RETENTION_DAYS" env-default:"365"`
	CleanupCron    string `env:"REPORT_CLEANUP_CRON" env-default:"0 3 * * *"`
	CleanupEnabled bool   `env:"REPORT_CLEANUP_ENABLED" env-default:"true"`
}

// RateLimitConfig 控制 /api 下按 IP 的固定窗口限流。
type RateLimitConfig struct {
	PerMinute int `env:"RATE_LIMIT_PER_MINUTE" env-default:"120"`
}

// Load 读取 .env 文件与环境变量，返回规范化后的运行配置。
func Load() (RuntimeConfig, error) {
	LoadEnvFiles()

	var cfg RuntimeConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("read runtime config: %w", err)
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode != ModeLocal {
		cfg.Mode = ModeOnline
	}

	if strings.TrimSpace(cfg.Local.DBPath) == "" {
		cfg.Local.DBPath = defaultLocalDBRelPath
	}
	cfg.Local.DBPath = normalisePath(cfg.Local.DBPath)

	if cfg.Report.RetentionDays < 0 {
		cfg.Report.RetentionDays = 0
	}
	return cfg, nil
}

// IsLocal 判断是否处于本地模式。
func (c RuntimeConfig) IsLocal() bool {
	return c.Mode == ModeLocal
}

// RedisEnabled 表示是否配置了 Redis。
func (c RuntimeConfig) RedisEnabled() bool {
	return !c.IsLocal() && strings.TrimSpace(c.Redis.Endpoint) != ""
}

// normalisePath 将路径展开为绝对路径，兼容 ~ 前缀与相对路径。
func normalisePath(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}
