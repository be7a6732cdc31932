package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ingredientdomain "inventory-app/backend/internal/domain/ingredient"
	recipedomain "inventory-app/backend/internal/domain/recipe"
	reportdomain "inventory-app/backend/internal/domain/report"
	response "inventory-app/backend/internal/infra/common"
	"inventory-app/backend/internal/middleware"
	"inventory-app/backend/internal/repository"
	ingredientsvc "inventory-app/backend/internal/service/ingredient"
	recipesvc "inventory-app/backend/internal/service/recipe"
	reportsvc "inventory-app/backend/internal/service/report"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	router  *gin.Engine
	reports *reportsvc.Service
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&reportdomain.Report{}, &ingredientdomain.Ingredient{},
		&recipedomain.Recipe{}, &recipedomain.UseHistory{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newTestEnv 以管理员身份挂载报表、原料、菜谱路由；staff 为 true 时改为员工身份。
func newTestEnv(t *testing.T, staff bool) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	reports := reportsvc.NewService(repository.NewReportRepository(db))
	ingredients := ingredientsvc.NewService(db, repository.NewIngredientRepository(db), ingredientdomain.NewUnitCache(), reports)
	recipes := recipesvc.NewService(db, repository.NewRecipeRepository(db), ingredients, reports)

	router := gin.New()
	if staff {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserID, uint(2))
			c.Set(middleware.ContextIsAdmin, false)
			c.Next()
		})
	} else {
		router.Use(middleware.NewOfflineAuthMiddleware(1, "admin").Handle())
	}

	reportHandler := NewReportHandler(reports, nil)
	reportHandler.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }
	r := router.Group("/api/reports")
	r.POST("", reportHandler.Create)
	r.GET("", reportHandler.List)
	r.GET("/type/:type", reportHandler.ListByType)
	r.GET("/range", reportHandler.ListByRange)
	r.GET("/summary", reportHandler.Summary)
	r.GET("/chart", reportHandler.Chart)
	r.GET("/top", reportHandler.Top)
	r.GET("/export", reportHandler.Export)
	r.DELETE("/cleanup", reportHandler.Cleanup)

	ingredientHandler := NewIngredientHandler(ingredients)
	i := router.Group("/api/ingredients")
	i.POST("", ingredientHandler.Create)
	i.GET("/:id", ingredientHandler.Get)
	i.POST("/:id/consume", ingredientHandler.Consume)

	recipeHandler := NewRecipeHandler(recipes)
	rc := router.Group("/api/recipes")
	rc.POST("", recipeHandler.Create)
	rc.POST("/:id/use", recipeHandler.Use)

	return testEnv{router: router, reports: reports}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) response.Response {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *response.Error `json:"error"`
		Meta    json.RawMessage `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, rec.Body.String())
	}
	if data != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return response.Response{Success: envelope.Success, Error: envelope.Error}
}

func TestReportCreateAndListByType(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/reports", map[string]any{
		"reportType": "recipe-used", "entityId": 7, "entityName": "Pasta Carbonara",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/reports/type/RECIPE_USED", nil)
	var items []reportdomain.Report
	decode(t, rec, &items)
	if rec.Code != http.StatusOK || len(items) != 1 || items[0].EntityName != "Pasta Carbonara" {
		t.Fatalf("unexpected list: code=%d items=%+v", rec.Code, items)
	}
}

func TestReportRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/reports", map[string]any{"reportType": "RECIPE_DELETED"})
	resp := decode(t, rec, nil)
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != response.ErrInvalidReportType {
		t.Fatalf("expected INVALID_REPORT_TYPE, got %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/reports/chart?type=NOPE", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for chart with unknown type, got %d", rec.Code)
	}
}

func TestReportRangeRequiresBounds(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/reports/range?start=2024-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without end, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/reports/range?start=not-a-date&end=2024-03-02", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad start, got %d", rec.Code)
	}
}

func TestReportChartReturnsDenseSeries(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	err := env.reports.RecordBatch(ctx, []reportdomain.Report{
		{ReportType: reportdomain.TypeIngredientUsed, EntityName: "Flour", Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Count: 1},
		{ReportType: reportdomain.TypeIngredientUsed, EntityName: "Flour", Timestamp: time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC), Count: 1},
	})
	if err != nil {
		t.Fatalf("seed reports: %v", err)
	}

	rec := env.do(t, http.MethodGet,
		"/api/reports/chart?type=INGREDIENT_USED&start=2024-03-01T00:00:00Z&end=2024-03-03T23:59:59Z&groupBy=day", nil)
	var points []reportsvc.ChartPoint
	decode(t, rec, &points)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 daily buckets, got %d (%+v)", len(points), points)
	}
	if points[1].Count != 0 {
		t.Fatalf("expected empty middle bucket, got %+v", points[1])
	}
}

func TestReportExportCSV(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet,
		"/api/reports/export?type=RECIPE_USED&format=csv&start=2024-03-01T00:00:00Z&end=2024-03-02T00:00:00Z", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "recipe_used_20240301_20240302.csv") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	rec = env.do(t, http.MethodGet, "/api/reports/export?type=RECIPE_USED&format=pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format, got %d", rec.Code)
	}
}

func TestReportCleanupRequiresAdmin(t *testing.T) {
	staff := newTestEnv(t, true)
	rec := staff.do(t, http.MethodDelete, "/api/reports/cleanup?before=2024-01-01", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}
}

func TestReportCleanupDeletesOlderRows(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	err := env.reports.RecordBatch(ctx, []reportdomain.Report{
		{ReportType: reportdomain.TypeRecipeUsed, EntityName: "Old", Timestamp: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Count: 1},
		{ReportType: reportdomain.TypeRecipeUsed, EntityName: "New", Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Count: 1},
	})
	if err != nil {
		t.Fatalf("seed reports: %v", err)
	}

	rec := env.do(t, http.MethodDelete, "/api/reports/cleanup?before=2024-01-01T00:00:00Z", nil)
	var result reportsvc.RetentionResult
	decode(t, rec, &result)
	if rec.Code != http.StatusOK || result.Removed != 1 {
		t.Fatalf("expected one removed row, got %d %+v", rec.Code, result)
	}

	rec = env.do(t, http.MethodDelete, "/api/reports/cleanup", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without before and retention, got %d", rec.Code)
	}
}

func ingredientBody(name string, qty, alert float64) map[string]any {
	return map[string]any{
		"productName": name,
		"quantityDetails": map[string]any{
			"currentQuantity": qty, "maxQuantityLimit": 100, "alertLowQuantity": alert,
		},
		"unitDetails": map[string]any{"pricePerUnit": "2.50", "unitOfMeasurement": "kg"},
	}
}

func TestIngredientCreateDuplicateAndConsume(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/ingredients", ingredientBody("Flour", 10, 3))
	var created ingredientdomain.Ingredient
	decode(t, rec, &created)
	if rec.Code != http.StatusCreated || created.ID == 0 {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/ingredients", ingredientBody("Flour", 1, 0))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", rec.Code)
	}

	path := fmt.Sprintf("/api/ingredients/%d/consume", created.ID)
	rec = env.do(t, http.MethodPost, path, map[string]any{"amount": 50})
	resp := decode(t, rec, nil)
	if rec.Code != http.StatusConflict || resp.Error == nil || resp.Error.Code != response.ErrInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, path, map[string]any{"amount": 8})
	var consumed ingredientdomain.Ingredient
	decode(t, rec, &consumed)
	if rec.Code != http.StatusOK || consumed.Quantity.CurrentQuantity != 2 {
		t.Fatalf("unexpected consume result %d %+v", rec.Code, consumed.Quantity)
	}

	rec = env.do(t, http.MethodGet, "/api/ingredients/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/ingredients/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRecipeUseRecordsReports(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/ingredients", ingredientBody("Eggs", 5, 1))
	var eggs ingredientdomain.Ingredient
	decode(t, rec, &eggs)

	rec = env.do(t, http.MethodPost, "/api/recipes", map[string]any{
		"recipeName":       "Omelette",
		"recipeComponents": []map[string]any{{"ingredientId": eggs.ID, "quantity": 2}},
	})
	var omelette recipedomain.Recipe
	decode(t, rec, &omelette)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/recipes", map[string]any{
		"recipeName":       "Ghost Soup",
		"recipeComponents": []map[string]any{{"ingredientId": 999, "quantity": 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown ingredient, got %d", rec.Code)
	}

	usePath := fmt.Sprintf("/api/recipes/%d/use", omelette.ID)
	for i := 0; i < 2; i++ {
		if rec = env.do(t, http.MethodPost, usePath, nil); rec.Code != http.StatusOK {
			t.Fatalf("use %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	if rec = env.do(t, http.MethodPost, usePath, nil); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 once stock runs out, got %d", rec.Code)
	}

	used, err := env.reports.ListByType(context.Background(), reportdomain.TypeRecipeUsed)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(used) != 2 {
		t.Fatalf("expected 2 RECIPE_USED reports, got %d", len(used))
	}
}
