/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 10:31:09
 * @FilePath: \inventory-app\backend\internal\infra\logger\logger.go
 * @LastEditTime: 2025-10-22 09:14:27
 */
package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// globalLogger 缓存全局 zap.Logger，避免在业务代码里重复创建实例。
	globalLogger *zap.Logger
	mu           sync.Mutex
)

// Options 描述日志初始化时可配置的参数，均可通过环境变量覆盖。
type Options struct {
	Level      string `env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `env:"LOG_ENCODING" env-default:"json"`
	FilePath   string `env:"LOG_FILE" env-default:"logs/inventory.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" env-default:"20"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAge     int    `env:"LOG_MAX_AGE" env-default:"15"`
	Compress   bool   `env:"LOG_COMPRESS" env-default:"true"`
	// Console 为 false 时只写文件，便于容器外的守护进程场景。
	Console bool `env:"LOG_CONSOLE" env-default:"true"`
}

// Init 初始化全局日志记录器；重复调用直接返回已有实例。
func Init() (*zap.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		return globalLogger, nil
	}

	var opts Options
	if err := cleanenv.ReadEnv(&opts); err != nil {
		return nil, fmt.Errorf("read logger options: %w", err)
	}

	logger, err := Build(opts)
	if err != nil {
		return nil, err
	}
	globalLogger = logger
	return globalLogger, nil
}

// L 返回全局 zap.Logger，如果尚未初始化则尝试自动初始化。
func L() *zap.Logger {
	mu.Lock()
	current := globalLogger
	mu.Unlock()
	if current != nil {
		return current
	}

	logger, err := Init()
	if err != nil {
		panic(fmt.Sprintf("logger init failed: %v", err))
	}
	return logger
}

// S 返回 SugaredLogger，handler/service 中统一用 `Infow/Warnw` 输出键值日志。
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// Replace 替换全局日志实例，测试中常用 zap.NewNop() 屏蔽输出。
func Replace(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = logger
}

// Sync 刷新缓冲区，通常在进程退出前调用。
func Sync() {
	mu.Lock()
	current := globalLogger
	mu.Unlock()
	if current != nil {
		_ = current.Sync()
	}
}

// Build 根据 Options 构建 zap.Logger：文件输出带滚动策略，控制台输出带颜色。
func Build(opts Options) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level := strings.ToLower(strings.TrimSpace(opts.Level)); level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder

	cores := make([]zapcore.Core, 0, 2)

	if path := strings.TrimSpace(opts.FilePath); path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("logger create dir: %w", err)
			}
		}
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    positiveOr(opts.MaxSize, 20),
			MaxBackups: positiveOr(opts.MaxBackups, 5),
			MaxAge:     positiveOr(opts.MaxAge, 15),
			Compress:   opts.Compress,
		}

		var fileEncoder zapcore.Encoder
		if strings.EqualFold(opts.Encoding, "console") {
			fileEncoder = zapcore.NewConsoleEncoder(encoderCfg)
		} else {
			fileEncoder = zapcore.NewJSONEncoder(encoderCfg)
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotating), lvl))
	}

	if opts.Console {
		consoleCfg := encoderCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}

	if len(cores) == 0 {
		return nil, errors.New("logger has no output: set LOG_FILE or LOG_CONSOLE")
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
