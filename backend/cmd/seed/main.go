package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inventory-app/backend/internal/app"
	"inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/repository"
	reportsvc "inventory-app/backend/internal/service/report"
	seedsvc "inventory-app/backend/internal/service/seed"

	"go.uber.org/zap"
)

var (
	seedUsers   = flag.Bool("users", false, "写入默认管理员与员工账号")
	seedReports = flag.Bool("reports", false, "写入最近 30 天的演示报表事件")
	clearFirst  = flag.Bool("clear", false, "写入前先清空对应数据")
)

// main 针对当前配置的数据库生成演示数据，未指定 -users/-reports 时两者都执行。
func main() {
	flag.Parse()
	if !*seedUsers && !*seedReports {
		*seedUsers, *seedReports = true, true
	}

	zapLogger, err := logger.Init()
	if err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	resources, err := app.InitResources(ctx)
	if err != nil {
		stop()
		sugar.Fatalw("initialise resources failed", "error", err)
	}
	defer func() {
		if closeErr := resources.Close(); closeErr != nil {
			sugar.Warnw("close resources failed", "error", closeErr)
		}
	}()

	db := resources.DBConn()
	svc := seedsvc.NewService(
		reportsvc.NewService(repository.NewReportRepository(db)),
		repository.NewUserRepository(db),
	)

	app.WithShutdown(ctx, stop, func(ctx context.Context) error {
		return run(ctx, svc, sugar)
	})
}

func run(ctx context.Context, svc *seedsvc.Service, sugar *zap.SugaredLogger) error {
	if *clearFirst {
		if *seedReports {
			removed, err := svc.ClearReports(ctx)
			if err != nil {
				return fmt.Errorf("clear reports: %w", err)
			}
			sugar.Infow("reports cleared", "removed", removed)
		}
		if *seedUsers {
			removed, err := svc.ClearUsers(ctx)
			if err != nil {
				return fmt.Errorf("clear users: %w", err)
			}
			sugar.Infow("users cleared", "removed", removed)
		}
	}

	if *seedUsers {
		result, err := svc.SeedUsers(ctx)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		sugar.Infow("users seeded", "created", result.Users, "skipped", result.SkippedUsers)
	}
	if *seedReports {
		n, err := svc.SeedReports(ctx)
		if err != nil {
			return fmt.Errorf("seed reports: %w", err)
		}
		sugar.Infow("reports seeded", "count", n)
	}
	return nil
}
