package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory-app/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// defaultReportWindow 是报表接口未传 start/end 时回溯的时长。
const defaultReportWindow = 30 * 24 * time.Hour

var errMissingParam = errors.New("missing parameter")

// 支持的时间格式，依次尝试。
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// parseTime 解析查询参数中的时间；仅日期时 endOfDay 决定取当天 00:00 还是 23:59:59.999999999。
// 不带时区的时间按服务器本地时区解释。
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errMissingParam
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	if d, err := time.ParseInLocation(time.DateOnly, raw, time.Local); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return d, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", raw)
}

// resolveRange 读取 start/end，缺省时分别回退到 now-30d 与 now。
func resolveRange(c *gin.Context, startKey, endKey string, now time.Time) (time.Time, time.Time, error) {
	start, end := now.Add(-defaultReportWindow), now
	if raw := c.Query(startKey); raw != "" {
		t, err := parseTime(raw, false)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", startKey, err)
		}
		start = t
	}
	if raw := c.Query(endKey); raw != "" {
		t, err := parseTime(raw, true)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", endKey, err)
		}
		end = t
	}
	return start, end, nil
}

// requireRange 读取必填的 start/end。
func requireRange(c *gin.Context, startKey, endKey string) (time.Time, time.Time, error) {
	start, err := parseTime(c.Query(startKey), false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", startKey, err)
	}
	end, err := parseTime(c.Query(endKey), true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", endKey, err)
	}
	return start, end, nil
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

func extractUserID(c *gin.Context) (uint, bool) {
	return middleware.CurrentUserID(c)
}

func isAdmin(c *gin.Context) bool {
	return middleware.IsAdmin(c)
}
