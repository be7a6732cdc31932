package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/metrics"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultRetentionLockKey = "reports:retention:lock"
	DefaultRetentionLockTTL = time.Minute
)

// RetentionConfig 描述报表保留策略。
type RetentionConfig struct {
	Retention time.Duration // 保留时长，<= 0 表示不清理
	Schedule  string        // 标准五段 cron 表达式
	LockKey   string
	LockTTL   time.Duration
}

// RetentionResult 是一次清理的结果，Skipped 表示未拿到锁或未启用。
type RetentionResult struct {
	Cutoff  time.Time `json:"cutoff"`
	Removed int64     `json:"removed"`
	Skipped bool      `json:"skipped"`
}

// Retention 按 cron 周期清理过期报表；配置了 Redis 时用分布式锁保证单实例执行。
type Retention struct {
	svc       *Service
	locker    *redislock.Client
	cfg       RetentionConfig
	scheduler *cron.Cron
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewRetention 创建清理任务，redisClient 可为空。
func NewRetention(svc *Service, redisClient *redis.Client, cfg RetentionConfig) (*Retention, error) {
	if svc == nil {
		return nil, errors.New("report service is required")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 3 * * *"
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultRetentionLockKey
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultRetentionLockTTL
	}

	r := &Retention{
		svc:    svc,
		cfg:    cfg,
		logger: appLogger.S().With("component", "report.retention"),
		now:    svc.now,
	}
	if redisClient != nil {
		r.locker = redislock.New(redisClient)
	}
	return r, nil
}

// Start 注册 cron 任务并启动调度，ctx 结束时自动停止。
func (r *Retention) Start(ctx context.Context) error {
	if r.scheduler != nil {
		return nil
	}
	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc(r.cfg.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Errorw("scheduled cleanup failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register cleanup job: %w", err)
	}
	r.scheduler.Start()
	r.logger.Infow("report retention scheduled", "schedule", r.cfg.Schedule, "retention", r.cfg.Retention)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop 停止调度并等待正在执行的任务结束。
func (r *Retention) Stop() {
	if r.scheduler == nil {
		return
	}
	<-r.scheduler.Stop().Done()
}

// RunOnce 以当前时间减去保留时长为截止点执行一次清理。
func (r *Retention) RunOnce(ctx context.Context) (RetentionResult, error) {
	if r.cfg.Retention <= 0 {
		metrics.RecordRetention("skipped", 0)
		return RetentionResult{Skipped: true}, nil
	}
	return r.PurgeBefore(ctx, r.now().Add(-r.cfg.Retention))
}

// PurgeBefore 删除截止点之前的事件。拿不到锁说明其他实例正在清理，直接跳过。
func (r *Retention) PurgeBefore(ctx context.Context, cutoff time.Time) (RetentionResult, error) {
	result := RetentionResult{Cutoff: cutoff}

	if r.locker != nil {
		lock, err := r.locker.Obtain(ctx, r.cfg.LockKey, r.cfg.LockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			r.logger.Infow("cleanup lock held elsewhere, skipping", "key", r.cfg.LockKey)
			metrics.RecordRetention("skipped", 0)
			result.Skipped = true
			return result, nil
		}
		if err != nil {
			metrics.RecordRetention("error", 0)
			return result, fmt.Errorf("obtain cleanup lock: %w", err)
		}
		defer func() {
			if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
				r.logger.Warnw("release cleanup lock failed", "error", releaseErr)
			}
		}()
	}

	removed, err := r.svc.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		metrics.RecordRetention("error", 0)
		return result, err
	}
	result.Removed = removed
	metrics.RecordRetention("ok", removed)
	return result, nil
}
