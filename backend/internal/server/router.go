/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 09:12:40
 * @FilePath: \inventory-app\backend\internal\server\router.go
 * @LastEditTime: 2025-10-26 17:30:05
 */
package server

import (
	"fmt"
	"strings"
	"time"

	domain "inventory-app/backend/internal/domain/user"
	"inventory-app/backend/internal/handler"
	"inventory-app/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	IngredientHandler *handler.IngredientHandler
	RecipeHandler     *handler.RecipeHandler
	ReportHandler     *handler.ReportHandler
	SeedHandler       *handler.SeedHandler
	AuthMW            middleware.Authenticator
	// SessionMW 可选，本地模式下注入固定管理员，使 /auth/session 返回已登录。
	SessionMW      middleware.Authenticator
	PrivilegeGuard *middleware.PrivilegeGuard
	RateLimit      *middleware.RateLimitMiddleware
	AllowedOrigins []string
}

// NewRouter 构建应用的 Gin Engine，汇总所有 REST 接口与公共中间件配置。
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc:  originMatcher(opts.AllowedOrigins),
	}))
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: gin.LogFormatter(func(params gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s\" %d %s\n",
				params.ClientIP,
				params.TimeStamp.Format(time.RFC3339),
				params.Method,
				params.Path,
				params.StatusCode,
				params.Latency,
			)
		}),
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if opts.RateLimit != nil {
		api.Use(opts.RateLimit.Handle())
	}

	if opts.AuthHandler != nil {
		authGroup := api.Group("/auth")
		authGroup.POST("/login", opts.AuthHandler.Login)
		authGroup.POST("/refresh", opts.AuthHandler.Refresh)
		authGroup.POST("/logout", opts.AuthHandler.Logout)
		if opts.SessionMW != nil {
			authGroup.GET("/session", opts.SessionMW.Handle(), opts.AuthHandler.Session)
		} else {
			authGroup.GET("/session", opts.AuthHandler.Session)
		}
	}

	// 以下分组都需要登录。
	secured := api.Group("")
	if opts.AuthMW != nil {
		secured.Use(opts.AuthMW.Handle())
	}

	if opts.UserHandler != nil {
		users := secured.Group("/users")
		users.GET("/me", opts.UserHandler.GetMe)
		users.GET("", opts.UserHandler.List)
		users.GET("/:id", opts.UserHandler.Get)
		users.GET("/name/:username", opts.UserHandler.GetByUsername)
		users.GET("/staff/:staffId", opts.UserHandler.GetByStaffID)
		users.GET("/admin/:adminId", opts.UserHandler.GetByAdminID)
		users.POST("", middleware.RequireAdmin(), opts.UserHandler.Create)
		// 管理员或本人，由 handler 判断。
		users.PUT("/:id", opts.UserHandler.Update)
		users.DELETE("/:id", middleware.RequireAdmin(), opts.UserHandler.Delete)
		users.PUT("/privilege/:adminId/:staffId", middleware.RequireAdmin(), opts.UserHandler.ChangePrivileges)
	}

	if opts.IngredientHandler != nil {
		ingredients := secured.Group("/ingredients")
		h := opts.IngredientHandler
		ingredients.GET("", require(opts.PrivilegeGuard, domain.PrivilegeReadIngredient), h.List)
		ingredients.GET("/:id", require(opts.PrivilegeGuard, domain.PrivilegeReadIngredient), h.Get)
		ingredients.GET("/name/:name", require(opts.PrivilegeGuard, domain.PrivilegeReadIngredient), h.GetByName)
		ingredients.POST("", require(opts.PrivilegeGuard, domain.PrivilegeCreateIngredient), h.Create)
		ingredients.PUT("/:id", require(opts.PrivilegeGuard, domain.PrivilegeUpdateIngredient), h.Update)
		ingredients.POST("/:id/consume", require(opts.PrivilegeGuard, domain.PrivilegeUpdateIngredient), h.Consume)
		ingredients.DELETE("/:id", require(opts.PrivilegeGuard, domain.PrivilegeDeleteIngredient), h.Delete)
	}

	if opts.RecipeHandler != nil {
		recipes := secured.Group("/recipes")
		h := opts.RecipeHandler
		recipes.GET("", require(opts.PrivilegeGuard, domain.PrivilegeReadRecipe), h.List)
		recipes.GET("/:id", require(opts.PrivilegeGuard, domain.PrivilegeReadRecipe), h.Get)
		recipes.GET("/name/:name", require(opts.PrivilegeGuard, domain.PrivilegeReadRecipe), h.GetByName)
		recipes.POST("", require(opts.PrivilegeGuard, domain.PrivilegeCreateRecipe), h.Create)
		recipes.PUT("/:id", require(opts.PrivilegeGuard, domain.PrivilegeUpdateRecipe), h.Update)
		// 制作菜谱会扣减库存，需要读菜谱与改原料两种权限。
		recipes.POST("/:id/use",
			require(opts.PrivilegeGuard, domain.PrivilegeReadRecipe),
			require(opts.PrivilegeGuard, domain.PrivilegeUpdateIngredient),
			h.Use)
		recipes.DELETE("/:id", require(opts.PrivilegeGuard, domain.PrivilegeDeleteRecipe), h.Delete)
	}

	if opts.ReportHandler != nil {
		reports := secured.Group("/reports")
		h := opts.ReportHandler
		reports.POST("", h.Create)
		reports.GET("", h.List)
		reports.GET("/type/:type", h.ListByType)
		reports.GET("/range", h.ListByRange)
		reports.GET("/summary", h.Summary)
		reports.GET("/chart", h.Chart)
		reports.GET("/top", h.Top)
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/compare", h.Compare)
		reports.GET("/export", h.Export)
		reports.DELETE("/cleanup", middleware.RequireAdmin(), h.Cleanup)
	}

	if opts.SeedHandler != nil {
		seed := secured.Group("/seed")
		seed.Use(middleware.RequireAdmin())
		seed.POST("/reports", opts.SeedHandler.SeedReports)
		seed.DELETE("/reports/clear", opts.SeedHandler.ClearReports)
		seed.POST("/users", opts.SeedHandler.SeedUsers)
		seed.DELETE("/users/clear", opts.SeedHandler.ClearUsers)
		seed.POST("/all", opts.SeedHandler.SeedAll)
	}

	return r
}

func require(guard *middleware.PrivilegeGuard, p domain.Privilege) gin.HandlerFunc {
	if guard == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return guard.Require(p)
}

// originMatcher 放行本机开发端口与显式配置的来源。
func originMatcher(allowed []string) func(string) bool {
	return func(origin string) bool {
		if origin == "" {
			return false
		}
		if origin == "null" {
			return true
		}
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
			return true
		}
		for _, candidate := range allowed {
			if strings.EqualFold(strings.TrimSpace(candidate), origin) {
				return true
			}
		}
		return false
	}
}
