/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 11:20:08
 * @FilePath: \inventory-app\backend\cmd\server\main.go
 * @LastEditTime: 2025-10-27 17:15:49
 */
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-app/backend/internal/app"
	"inventory-app/backend/internal/bootstrap"
	"inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/metrics"
)

func main() {
	zapLogger, err := logger.Init()
	if err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar()

	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.InitResources(ctx)
	if err != nil {
		sugar.Fatalw("init resources failed", "error", err)
	}
	defer func() {
		if cerr := resources.Close(); cerr != nil {
			sugar.Warnw("close resources failed", "error", cerr)
		}
	}()

	application, err := bootstrap.BuildApplication(ctx, sugar, resources)
	if err != nil {
		sugar.Fatalw("build application failed", "error", err)
	}

	if application.Retention != nil {
		if err := application.Retention.Start(ctx); err != nil {
			sugar.Fatalw("start report retention failed", "error", err)
		}
		defer application.Retention.Stop()
	}

	cfg := resources.Config
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorw("http server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown failed", "error", err)
	}
}
