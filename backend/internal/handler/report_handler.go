/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 17:40:12
 * @FilePath: \inventory-app\backend\internal\handler\report_handler.go
 * @LastEditTime: 2025-10-26 16:58:30
 */
package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "inventory-app/backend/internal/domain/report"
	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"
	reportsvc "inventory-app/backend/internal/service/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHandler 暴露报表查询、导出与清理接口。
type ReportHandler struct {
	service   *reportsvc.Service
	retention *reportsvc.Retention
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewReportHandler 构造报表 handler，retention 可为空（此时清理接口直接按 before 删除）。
func NewReportHandler(service *reportsvc.Service, retention *reportsvc.Retention) *ReportHandler {
	return &ReportHandler{
		service:   service,
		retention: retention,
		logger:    appLogger.S().With("component", "report.handler"),
		now:       time.Now,
	}
}

type createReportRequest struct {
	ReportType string `json:"reportType" binding:"required"`
	EntityID   int64  `json:"entityId"`
	EntityName string `json:"entityName" binding:"max=255"`
}

// Create 手动写入一条报表事件。
func (h *ReportHandler) Create(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	reportType, err := domain.ParseType(req.ReportType)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReportType, "unknown report type", nil)
		return
	}
	entry, err := h.service.Record(c.Request.Context(), reportType, req.EntityID, strings.TrimSpace(req.EntityName))
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	response.Created(c, entry, nil)
}

// List 返回全部报表事件。
func (h *ReportHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// ListByType 返回指定类型的事件。
func (h *ReportHandler) ListByType(c *gin.Context) {
	reportType, ok := h.pathType(c)
	if !ok {
		return
	}
	items, err := h.service.ListByType(c.Request.Context(), reportType)
	if err != nil {
		h.fail(c, "list_by_type", err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// ListByRange 返回时间区间内的事件，start/end 必填。
func (h *ReportHandler) ListByRange(c *gin.Context) {
	start, end, err := requireRange(c, "start", "end")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	items, err := h.service.ListByRange(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, "list_by_range", err)
		return
	}
	response.Success(c, http.StatusOK, items, rangeMeta(start, end))
}

// Summary 返回区间内各类型的事件数。
func (h *ReportHandler) Summary(c *gin.Context) {
	start, end, ok := h.window(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, "summary", err)
		return
	}
	response.Success(c, http.StatusOK, summary, rangeMeta(start, end))
}

// Chart 返回按 day/week/month 分组的稠密时间序列。
func (h *ReportHandler) Chart(c *gin.Context) {
	reportType, ok := h.queryType(c)
	if !ok {
		return
	}
	start, end, ok := h.window(c)
	if !ok {
		return
	}
	groupBy := c.DefaultQuery("groupBy", reportsvc.GroupByDay)
	points, err := h.service.ChartData(c.Request.Context(), reportType, start, end, groupBy)
	if err != nil {
		h.fail(c, "chart", err)
		return
	}
	response.Success(c, http.StatusOK, points, gin.H{
		"start":   start.Format(time.RFC3339),
		"end":     end.Format(time.RFC3339),
		"groupBy": reportsvc.NormalizeGrouping(groupBy),
	})
}

// Top 返回使用量最高的实体。
func (h *ReportHandler) Top(c *gin.Context) {
	reportType, ok := h.queryType(c)
	if !ok {
		return
	}
	start, end, ok := h.window(c)
	if !ok {
		return
	}
	limit := defaultTopLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	top, err := h.service.TopEntities(c.Request.Context(), reportType, start, end, limit)
	if err != nil {
		h.fail(c, "top", err)
		return
	}
	response.Success(c, http.StatusOK, top, rangeMeta(start, end))
}

// Dashboard 返回看板聚合数据。
func (h *ReportHandler) Dashboard(c *gin.Context) {
	start, end, ok := h.window(c)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, "dashboard", err)
		return
	}
	response.Success(c, http.StatusOK, dashboard, rangeMeta(start, end))
}

// Compare 对比两个时间段的事件数。
func (h *ReportHandler) Compare(c *gin.Context) {
	reportType, ok := h.queryType(c)
	if !ok {
		return
	}
	currentStart, currentEnd, err := requireRange(c, "currentStart", "currentEnd")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	previousStart, previousEnd, err := requireRange(c, "previousStart", "previousEnd")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	result, err := h.service.Compare(c.Request.Context(), reportType, currentStart, currentEnd, previousStart, previousEnd)
	if err != nil {
		h.fail(c, "compare", err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}

// Export 以 xlsx 或 csv 导出时间序列。
func (h *ReportHandler) Export(c *gin.Context) {
	reportType, ok := h.queryType(c)
	if !ok {
		return
	}
	start, end, ok := h.window(c)
	if !ok {
		return
	}
	groupBy := c.DefaultQuery("groupBy", reportsvc.GroupByDay)
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "xlsx")))

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "xlsx":
		err = h.service.ExportChartXLSX(c.Request.Context(), &buf, reportType, start, end, groupBy)
		contentType = xlsxContentType
	case "csv":
		err = h.service.ExportChartCSV(c.Request.Context(), &buf, reportType, start, end, groupBy)
		contentType = "text/csv; charset=utf-8"
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "format must be xlsx or csv", nil)
		return
	}
	if err != nil {
		h.fail(c, "export", err)
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.%s",
		strings.ToLower(reportType.String()), start.Format("20060102"), end.Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// Cleanup 删除 before 之前的事件；未传 before 时按保留策略计算截止时间。仅限管理员。
func (h *ReportHandler) Cleanup(c *gin.Context) {
	if !isAdmin(c) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "admin privilege required", nil)
		return
	}
	ctx := c.Request.Context()

	raw := strings.TrimSpace(c.Query("before"))
	if raw == "" {
		if h.retention == nil {
			response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "before is required", nil)
			return
		}
		result, err := h.retention.RunOnce(ctx)
		if err != nil {
			h.fail(c, "cleanup", err)
			return
		}
		response.Success(c, http.StatusOK, result, nil)
		return
	}

	cutoff, err := parseTime(raw, false)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "before: "+err.Error(), nil)
		return
	}
	if h.retention != nil {
		result, err := h.retention.PurgeBefore(ctx, cutoff)
		if err != nil {
			h.fail(c, "cleanup", err)
			return
		}
		response.Success(c, http.StatusOK, result, nil)
		return
	}
	removed, err := h.service.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		h.fail(c, "cleanup", err)
		return
	}
	response.Success(c, http.StatusOK, reportsvc.RetentionResult{Cutoff: cutoff, Removed: removed}, nil)
}

func (h *ReportHandler) window(c *gin.Context) (time.Time, time.Time, bool) {
	start, end, err := resolveRange(c, "start", "end", h.now())
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// queryType 读取 type 参数，兼容 reportType。
func (h *ReportHandler) queryType(c *gin.Context) (domain.Type, bool) {
	raw := c.Query("type")
	if raw == "" {
		raw = c.Query("reportType")
	}
	return h.parseType(c, raw)
}

func (h *ReportHandler) pathType(c *gin.Context) (domain.Type, bool) {
	return h.parseType(c, c.Param("type"))
}

func (h *ReportHandler) parseType(c *gin.Context, raw string) (domain.Type, bool) {
	if strings.TrimSpace(raw) == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReportType, "report type is required", nil)
		return "", false
	}
	reportType, err := domain.ParseType(raw)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReportType, "unknown report type", gin.H{"allowed": domain.AllTypes()})
		return "", false
	}
	return reportType, true
}

func (h *ReportHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, reportsvc.ErrInvalidReportType):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReportType, err.Error(), nil)
	case errors.Is(err, reportsvc.ErrMissingRange):
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
	case errors.Is(err, reportsvc.ErrReportNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, err.Error(), nil)
	default:
		h.logger.Errorw("report request failed", "operation", op, "error", err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "report request failed", nil)
	}
}

func rangeMeta(start, end time.Time) response.MetaRange {
	return response.MetaRange{Start: start.Format(time.RFC3339), End: end.Format(time.RFC3339)}
}
