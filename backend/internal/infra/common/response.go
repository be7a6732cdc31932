/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 11:02:44
 * @FilePath: \inventory-app\backend\internal\infra\common\response.go
 * @LastEditTime: 2025-10-24 18:20:13
 */
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorCode 表示统一的错误码，便于前端识别失败原因。
type ErrorCode string

const (
	ErrBadRequest         ErrorCode = "BAD_REQUEST"
	ErrValidation         ErrorCode = "VALIDATION_FAILED"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrConflict           ErrorCode = "CONFLICT"
	ErrTooManyRequests    ErrorCode = "TOO_MANY_REQUESTS"
	ErrInternal           ErrorCode = "INTERNAL_ERROR"
	ErrInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrInvalidReportType  ErrorCode = "INVALID_REPORT_TYPE"
	ErrInvalidPrivilege   ErrorCode = "INVALID_PRIVILEGE"
	ErrInsufficientStock  ErrorCode = "INSUFFICIENT_STOCK"
)

// Error 描述错误响应的统一结构。
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Response 是所有接口返回的公共结构。
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// MetaRange 描述查询所使用的时间窗口，报表接口会放到 Meta 中。
type MetaRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FieldError 描述单个字段的校验失败原因。
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Success 以统一格式返回成功结果。
func Success(c *gin.Context, status int, data any, meta any) {
	if status == 0 {
		status = http.StatusOK
	}
	resp := Response{Success: true, Data: data}
	if meta != nil {
		resp.Meta = meta
	}
	c.JSON(status, resp)
}

// Created 返回 201 Created 的成功响应。
func Created(c *gin.Context, data any, meta any) {
	Success(c, http.StatusCreated, data, meta)
}

// NoContent 返回 204 响应且无 body。
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail 以统一格式返回错误结果。
func Fail(c *gin.Context, status int, code ErrorCode, message string, details any) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	resp := Response{
		Success: false,
		Error:   &Error{Code: code, Message: message},
	}
	if details != nil {
		resp.Error.Details = details
	}
	c.JSON(status, resp)
}

// FailBinding 处理 ShouldBind 的失败：validator 错误展开为字段列表，其余按 400 返回。
func FailBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Fail(c, http.StatusBadRequest, ErrValidation, "request validation failed", ValidationDetails(verrs))
		return
	}
	Fail(c, http.StatusBadRequest, ErrBadRequest, err.Error(), nil)
}

// ValidationDetails 将 validator 错误转换为可序列化的字段描述。
func ValidationDetails(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
