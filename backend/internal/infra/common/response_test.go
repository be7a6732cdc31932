package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	return c, rec
}

func TestSuccessEnvelope(t *testing.T) {
	c, rec := newContext()
	Success(c, 0, gin.H{"count": 3}, MetaRange{Start: "a", End: "b"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if _, ok := body["meta"]; !ok {
		t.Fatalf("expected meta in body")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("unexpected error field")
	}
}

func TestFailEnvelope(t *testing.T) {
	c, rec := newContext()
	Fail(c, http.StatusNotFound, ErrNotFound, "missing", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == nil || body.Error.Code != ErrNotFound {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestFailBindingExpandsValidationErrors(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	err := validator.New().Struct(payload{})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	c, rec := newContext()
	FailBinding(c, err)

	var body struct {
		Error struct {
			Code    ErrorCode    `json:"code"`
			Details []FieldError `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != ErrValidation {
		t.Fatalf("expected validation code, got %s", body.Error.Code)
	}
	if len(body.Error.Details) != 1 || body.Error.Details[0].Field != "Name" || body.Error.Details[0].Rule != "required" {
		t.Fatalf("unexpected details %+v", body.Error.Details)
	}
}

func TestFailBindingPlainError(t *testing.T) {
	c, rec := newContext()
	FailBinding(c, errors.New("EOF"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
