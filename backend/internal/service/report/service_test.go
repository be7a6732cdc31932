package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	domain "inventory-app/backend/internal/domain/report"
	"inventory-app/backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *repository.ReportRepository) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Report{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	repo := repository.NewReportRepository(db)
	return NewService(repo, opts...), repo
}

func event(reportType domain.Type, id int64, name string, ts time.Time, count int64) domain.Report {
	return domain.Report{ReportType: reportType, EntityID: id, EntityName: name, Timestamp: ts, Count: count}
}

func day(d, h int) time.Time {
	return time.Date(2024, 1, d, h, 0, 0, 0, time.UTC)
}

func TestSummaryCoversEveryType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Summary(ctx, day(1, 0), day(31, 0))
	require.NoError(t, err)
	assert.Len(t, empty, len(domain.AllTypes()))
	for _, reportType := range domain.AllTypes() {
		assert.Zero(t, empty[reportType])
	}

	require.NoError(t, svc.RecordBatch(ctx, []domain.Report{
		event(domain.TypeRecipeUsed, 1, "Pasta", day(2, 9), 1),
		event(domain.TypeRecipeUsed, 1, "Pasta", day(3, 9), 3),
		event(domain.TypeIngredientsCreated, 9, "Basil", day(4, 9), 1),
	}))

	summary, err := svc.Summary(ctx, day(1, 0), day(31, 0))
	require.NoError(t, err)
	assert.Len(t, summary, 5)
	assert.EqualValues(t, 2, summary[domain.TypeRecipeUsed], "summary counts events, not the count field")
	assert.EqualValues(t, 1, summary[domain.TypeIngredientsCreated])
	assert.EqualValues(t, 0, summary[domain.TypeIngredientReachedLow])
}

func TestTopEntitiesBoundAndOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordBatch(ctx, []domain.Report{
		event(domain.TypeIngredientUsed, 1, "Salt", day(2, 9), 4),
		event(domain.TypeIngredientUsed, 2, "Egg", day(2, 10), 1),
		event(domain.TypeIngredientUsed, 2, "Egg", day(3, 10), 1),
		event(domain.TypeIngredientUsed, 3, "Milk", day(3, 11), 2),
		event(domain.TypeRecipeUsed, 5, "Soup", day(3, 11), 50),
	}))

	top, err := svc.TopEntities(ctx, domain.TypeIngredientUsed, day(1, 0), day(31, 0), 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, EntityUsage{Name: "Salt", ID: 1, Count: 4}, top[0])
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Count, top[i].Count)
	}

	limited, err := svc.TopEntities(ctx, domain.TypeIngredientUsed, day(1, 0), day(31, 0), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := svc.TopEntities(ctx, domain.TypeIngredientUsed, day(1, 0), day(31, 0), -3)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.TopEntities(ctx, domain.Type("BOGUS"), day(1, 0), day(31, 0), 3)
	assert.ErrorIs(t, err, ErrInvalidReportType)
}

func TestChartDataDenseSeries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordBatch(ctx, []domain.Report{
		event(domain.TypeRecipeUsed, 1, "Pasta", day(2, 9), 1),
		event(domain.TypeRecipeUsed, 1, "Pasta", day(2, 18), 1),
		event(domain.TypeRecipeUsed, 2, "Soup", day(5, 12), 7),
		event(domain.TypeIngredientUsed, 1, "Salt", day(3, 12), 1),
	}))

	points, err := svc.ChartData(ctx, domain.TypeRecipeUsed, day(1, 0), day(7, 0), "DAY")
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, ChartPoint{Date: "2024-01-01", Count: 0}, points[0])
	assert.Equal(t, ChartPoint{Date: "2024-01-02", Count: 2}, points[1])
	assert.Equal(t, ChartPoint{Date: "2024-01-05", Count: 1}, points[4])

	weekly, err := svc.ChartData(ctx, domain.TypeRecipeUsed, day(1, 0), day(14, 0), "week")
	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{{Date: "2024-W01", Count: 3}, {Date: "2024-W02", Count: 0}}, weekly)

	fallback, err := svc.ChartData(ctx, domain.TypeRecipeUsed, day(1, 0), day(3, 0), "hourly")
	require.NoError(t, err)
	assert.Len(t, fallback, 3)

	empty, err := svc.ChartData(ctx, domain.TypeRecipesCreated, day(1, 0), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "month")
	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{{"2024-01", 0}, {"2024-02", 0}, {"2024-03", 0}}, empty)

	_, err = svc.ChartData(ctx, domain.TypeRecipeUsed, time.Time{}, day(3, 0), "day")
	assert.ErrorIs(t, err, ErrMissingRange)
}

func TestCompare(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	batch := make([]domain.Report, 0, 5)
	for i := 0; i < 3; i++ {
		batch = append(batch, event(domain.TypeRecipeUsed, 1, "Pasta", day(10+i, 9), 1))
	}
	for i := 0; i < 2; i++ {
		batch = append(batch, event(domain.TypeRecipeUsed, 1, "Pasta", day(2+i, 9), 1))
	}
	require.NoError(t, svc.RecordBatch(ctx, batch))

	cmp, err := svc.Compare(ctx, domain.TypeRecipeUsed, day(8, 0), day(14, 23), day(1, 0), day(7, 23))
	require.NoError(t, err)
	assert.Equal(t, Comparison{Current: 3, Previous: 2, PercentChange: 50}, cmp)

	cmp, err = svc.Compare(ctx, domain.TypeRecipeUsed, day(8, 0), day(14, 23), day(20, 0), day(27, 23))
	require.NoError(t, err)
	assert.Equal(t, 100.0, cmp.PercentChange)

	cmp, err = svc.Compare(ctx, domain.TypeIngredientUsed, day(8, 0), day(14, 23), day(1, 0), day(7, 23))
	require.NoError(t, err)
	assert.Equal(t, Comparison{}, cmp)
}

func TestDashboardComposesPrimitives(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	batch := []domain.Report{
		event(domain.TypeIngredientReachedLow, 3, "Milk", day(2, 9), 1),
		event(domain.TypeIngredientReachedLow, 4, "Egg", day(2, 10), 1),
		event(domain.TypeRecipesCreated, 8, "Curry", day(3, 9), 1),
		event(domain.TypeIngredientsCreated, 9, "Basil", day(3, 9), 1),
	}
	for i := 0; i < 7; i++ {
		batch = append(batch, event(domain.TypeRecipeUsed, int64(i), fmt.Sprintf("Recipe %d", i), day(4, 9), int64(i+1)))
	}
	require.NoError(t, svc.RecordBatch(ctx, batch))

	dash, err := svc.Dashboard(ctx, day(1, 0), day(31, 0))
	require.NoError(t, err)
	assert.Len(t, dash.Summary, 5)
	assert.Len(t, dash.TopRecipes, 5)
	assert.Equal(t, "Recipe 6", dash.TopRecipes[0].Name)
	assert.Empty(t, dash.TopIngredients)
	assert.EqualValues(t, 2, dash.LowStockCount)
	assert.EqualValues(t, 1, dash.RecipesCreatedCount)
	assert.EqualValues(t, 1, dash.IngredientsCreatedCount)
}

func TestDeleteOlderThanHonoursCutoff(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cutoff := day(15, 0)
	require.NoError(t, svc.RecordBatch(ctx, []domain.Report{
		event(domain.TypeRecipeUsed, 1, "old", day(1, 0), 1),
		event(domain.TypeRecipeUsed, 1, "edge", cutoff, 1),
		event(domain.TypeRecipeUsed, 1, "new", day(20, 0), 1),
		event(domain.TypeRecipeUsed, 1, "ancient", time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC), 1),
	}))

	removed, err := svc.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	left, err := repo.FindAll(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(left))
	for _, entry := range left {
		names = append(names, entry.EntityName)
	}
	assert.ElementsMatch(t, []string{"edge", "new", "ancient"}, names)
}

func TestRecordUsesClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	entry, err := svc.Record(ctx, domain.TypeRecipesCreated, 3, "Curry")
	require.NoError(t, err)
	assert.True(t, entry.Timestamp.Equal(fixed))
	assert.EqualValues(t, 1, entry.Count)

	_, err = svc.Record(ctx, domain.Type("NOPE"), 1, "x")
	assert.ErrorIs(t, err, ErrInvalidReportType)

	fetched, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Curry", fetched.EntityName)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrReportNotFound)
}
