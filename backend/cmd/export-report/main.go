package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"inventory-app/backend/internal/app"
	reportdomain "inventory-app/backend/internal/domain/report"
	"inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/repository"
	reportsvc "inventory-app/backend/internal/service/report"
)

var (
	reportType = flag.String("type", string(reportdomain.TypeRecipeUsed), "报表类型")
	startDate  = flag.String("start", "", "起始日期 2006-01-02，默认 30 天前")
	endDate    = flag.String("end", "", "结束日期 2006-01-02，默认今天")
	groupBy    = flag.String("group-by", reportsvc.GroupByDay, "day/week/month")
	format     = flag.String("format", "xlsx", "xlsx 或 csv")
	outputPath = flag.String("output", "", "输出文件路径，默认写到当前目录")
)

// main 将指定类型与区间的时间序列导出为文件，便于离线分析。
func main() {
	flag.Parse()

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
		sugar.Fatalw("init resources failed", "error", err)
	}
	defer func() {
		if cerr := resources.Close(); cerr != nil {
			sugar.Warnw("close resources failed", "error", cerr)
		}
	}()

	svc := reportsvc.NewService(repository.NewReportRepository(resources.DBConn()))
	app.WithShutdown(ctx, stop, func(ctx context.Context) error {
		path, err := export(ctx, svc, time.Now())
		if err != nil {
			return err
		}
		sugar.Infow("report exported", "path", path)
		return nil
	})
}

func export(ctx context.Context, svc *reportsvc.Service, now time.Time) (string, error) {
	t, err := reportdomain.ParseType(*reportType)
	if err != nil {
		return "", fmt.Errorf("type %q: %w", *reportType, err)
	}
	end := now
	if raw := strings.TrimSpace(*endDate); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return "", fmt.Errorf("end: %w", err)
		}
		end = day.Add(24*time.Hour - time.Nanosecond)
	}
	start := end.AddDate(0, 0, -30)
	if raw := strings.TrimSpace(*startDate); raw != "" {
		if start, err = time.ParseInLocation("2006-01-02", raw, time.Local); err != nil {
			return "", fmt.Errorf("start: %w", err)
		}
	}

	ext := strings.ToLower(strings.TrimSpace(*format))
	if ext != "xlsx" && ext != "csv" {
		return "", fmt.Errorf("format must be xlsx or csv, got %q", *format)
	}
	path := strings.TrimSpace(*outputPath)
	if path == "" {
		path = fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(t.String()), start.Format("20060102"), end.Format("20060102"), ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if ext == "csv" {
		err = svc.ExportChartCSV(ctx, f, t, start, end, *groupBy)
	} else {
		err = svc.ExportChartXLSX(ctx, f, t, start, end, *groupBy)
	}
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}
