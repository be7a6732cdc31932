package client

import (
	"time"

	appLogger "inventory-app/backend/internal/infra/logger"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...any) {
	w.log.Infof(format, args...)
}

// NewGormLogger 将 GORM 日志接入全局 zap，只输出慢查询与错误。
func NewGormLogger() gormlogger.Interface {
	return gormlogger.New(
		zapWriter{log: appLogger.S().With("component", "gorm")},
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
