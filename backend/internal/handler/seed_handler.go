package handler

import (
	"net/http"

	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"
	seedsvc "inventory-app/backend/internal/service/seed"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SeedHandler 暴露演示数据的生成与清理接口，路由层限制为管理员。
type SeedHandler struct {
	service *seedsvc.Service
	logger  *zap.SugaredLogger
}

// NewSeedHandler 构造种子数据 handler。
func NewSeedHandler(service *seedsvc.Service) *SeedHandler {
	return &SeedHandler{service: service, logger: appLogger.S().With("component", "seed.handler")}
}

func (h *SeedHandler) SeedReports(c *gin.Context) {
	n, err := h.service.SeedReports(c.Request.Context())
	if err != nil {
		h.internal(c, "seed_reports", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reports": n}, nil)
}

func (h *SeedHandler) ClearReports(c *gin.Context) {
	removed, err := h.service.ClearReports(c.Request.Context())
	if err != nil {
		h.internal(c, "clear_reports", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

func (h *SeedHandler) SeedUsers(c *gin.Context) {
	result, err := h.service.SeedUsers(c.Request.Context())
	if err != nil {
		h.internal(c, "seed_users", err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}

func (h *SeedHandler) ClearUsers(c *gin.Context) {
	removed, err := h.service.ClearUsers(c.Request.Context())
	if err != nil {
		h.internal(c, "clear_users", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

func (h *SeedHandler) SeedAll(c *gin.Context) {
	result, err := h.service.SeedAll(c.Request.Context())
	if err != nil {
		h.internal(c, "seed_all", err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}

func (h *SeedHandler) internal(c *gin.Context, op string, err error) {
	h.logger.Errorw("seed request failed", "operation", op, "error", err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "seed request failed", nil)
}
