/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 10:05:33
 * @FilePath: \inventory-app\backend\internal\bootstrap\bootstrap.go
 * @LastEditTime: 2025-10-27 17:08:21
 */
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inventory-app/backend/internal/app"
	ingredientdomain "inventory-app/backend/internal/domain/ingredient"
	"inventory-app/backend/internal/handler"
	"inventory-app/backend/internal/infra/ratelimit"
	"inventory-app/backend/internal/infra/token"
	"inventory-app/backend/internal/middleware"
	"inventory-app/backend/internal/repository"
	"inventory-app/backend/internal/server"
	authsvc "inventory-app/backend/internal/service/auth"
	ingredientsvc "inventory-app/backend/internal/service/ingredient"
	recipesvc "inventory-app/backend/internal/service/recipe"
	reportsvc "inventory-app/backend/internal/service/report"
	seedsvc "inventory-app/backend/internal/service/seed"
	usersvc "inventory-app/backend/internal/service/user"

	"go.uber.org/zap"
)

const (
	refreshTokenPrefix       = "inventory:refresh"
	rateLimitPrefix          = "inventory:ratelimit"
	defaultRequestsPerMinute = 120
)

// Application 汇总装配完成的服务与路由，cmd/server 据此启动 HTTP 服务与定时清理。
type Application struct {
	Resources *app.Resources
	AuthSvc   *authsvc.Service
	UserSvc   *usersvc.Service
	ReportSvc *reportsvc.Service
	SeedSvc   *seedsvc.Service
	Retention *reportsvc.Retention
	Router    http.Handler
}

func BuildApplication(ctx context.Context, logger *zap.SugaredLogger, resources *app.Resources) (*Application, error) {
	cfg := resources.Config
	db := resources.DBConn()

	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)

	tokens := token.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	var refreshStore authsvc.RefreshTokenStore
	if resources.Redis != nil {
		refreshStore = token.NewRedisRefreshTokenStore(resources.Redis, refreshTokenPrefix)
	} else {
		refreshStore = token.NewMemoryRefreshTokenStore()
		logger.Infow("using in-memory refresh token store; tokens won't persist across restarts")
	}

	authService := authsvc.NewService(userRepo, tokens, refreshStore)
	userService := usersvc.NewService(userRepo, authService)

	reportService := reportsvc.NewService(reportRepo)
	ingredientService := ingredientsvc.NewService(db, repository.NewIngredientRepository(db), ingredientdomain.NewUnitCache(), reportService)
	recipeService := recipesvc.NewService(db, repository.NewRecipeRepository(db), ingredientService, reportService)
	seedService := seedsvc.NewService(reportService, userRepo)

	var retention *reportsvc.Retention
	if cfg.Report.CleanupEnabled {
		var err error
		retention, err = reportsvc.NewRetention(reportService, resources.Redis, reportsvc.RetentionConfig{
			Retention: time.Duration(cfg.Report.RetentionDays) * 24 * time.Hour,
			Schedule:  cfg.Report.CleanupCron,
		})
		if err != nil {
			return nil, fmt.Errorf("build report retention: %w", err)
		}
	}

	var limiter ratelimit.Limiter
	if resources.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(resources.Redis, rateLimitPrefix)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}
	perMinute := cfg.RateLimit.PerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}

	opts := server.RouterOptions{
		AuthHandler:       handler.NewAuthHandler(authService, tokens),
		UserHandler:       handler.NewUserHandler(userService),
		IngredientHandler: handler.NewIngredientHandler(ingredientService),
		RecipeHandler:     handler.NewRecipeHandler(recipeService),
		ReportHandler:     handler.NewReportHandler(reportService, retention),
		SeedHandler:       handler.NewSeedHandler(seedService),
		PrivilegeGuard:    middleware.NewPrivilegeGuard(userService),
		RateLimit:         middleware.NewRateLimitMiddleware(limiter, ratelimit.PerMinute(perMinute)),
	}
	if cfg.IsLocal() {
		offline := middleware.NewOfflineAuthMiddleware(cfg.Local.UserID, cfg.Local.Username)
		opts.AuthMW = offline
		opts.SessionMW = offline
		logger.Infow("offline auth enabled", "user_id", cfg.Local.UserID)
	} else {
		opts.AuthMW = middleware.NewAuthMiddleware(tokens)
	}

	return &Application{
		Resources: resources,
		AuthSvc:   authService,
		UserSvc:   userService,
		ReportSvc: reportService,
		SeedSvc:   seedService,
		Retention: retention,
		Router:    server.NewRouter(opts),
	}, nil
}
