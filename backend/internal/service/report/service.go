/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 16:03:41
 * @FilePath: \inventory-app\backend\internal\service\report\service.go
 * @LastEditTime: 2025-10-25 09:36:12
 */
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "inventory-app/backend/internal/domain/report"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/metrics"
	"inventory-app/backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrMissingRange      = errors.New("start and end must both be provided")
)

const dashboardTopLimit = 5

// RetentionFloor 是清理区间的下界，早于该时间的事件不会被清理。
var RetentionFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Store 是聚合器依赖的持久化查询能力，*repository.ReportRepository 满足该接口。
type Store interface {
	Create(ctx context.Context, entry *domain.Report) error
	CreateBatch(ctx context.Context, entries []domain.Report) error
	FindAll(ctx context.Context) ([]domain.Report, error)
	FindByID(ctx context.Context, id uint) (*domain.Report, error)
	FindByType(ctx context.Context, reportType domain.Type) ([]domain.Report, error)
	FindByRange(ctx context.Context, start, end time.Time) ([]domain.Report, error)
	FindByTypeAndRange(ctx context.Context, reportType domain.Type, start, end time.Time) ([]domain.Report, error)
	CountByTypeGrouped(ctx context.Context, start, end time.Time) ([]repository.TypeCount, error)
	CountByTypeAndRange(ctx context.Context, reportType domain.Type, start, end time.Time) (int64, error)
	SumByEntity(ctx context.Context, reportType domain.Type, start, end time.Time, limit int) ([]repository.EntitySum, error)
	DistinctEntityNames(ctx context.Context, reportType domain.Type) ([]string, error)
	DeleteBetween(ctx context.Context, floor, cutoff time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// EntityUsage 是 Top-N 排行中的一项。
type EntityUsage struct {
	Name  string `json:"name"`
	ID    int64  `json:"id"`
	Count int64  `json:"count"`
}

// ChartPoint 是时间序列中的一个分组。
type ChartPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Comparison 是两个时间段的对比结果。
type Comparison struct {
	Current       int64   `json:"current"`
	Previous      int64   `json:"previous"`
	PercentChange float64 `json:"percentChange"`
}

// Dashboard 汇总看板所需的全部指标。
type Dashboard struct {
	Summary                 map[domain.Type]int64 `json:"summary"`
	TopRecipes              []EntityUsage         `json:"topRecipes"`
	TopIngredients          []EntityUsage         `json:"topIngredients"`
	LowStockCount           int64                 `json:"lowStockCount"`
	RecipesCreatedCount     int64                 `json:"recipesCreatedCount"`
	IngredientsCreatedCount int64                 `json:"ingredientsCreatedCount"`
}

// Service 负责报表事件的记录与聚合查询。
// 所有区间由调用方给出，服务内部不做默认值填充。
type Service struct {
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

// Option 调整 Service 的可选行为。
type Option func(*Service)

// WithClock 替换当前时间来源，便于测试。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService 创建报表服务。
func NewService(store Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		logger: appLogger.S().With("component", "report.service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) scope(operation string) *zap.SugaredLogger {
	return s.logger.With("operation", operation)
}

// track 记录一次聚合查询的耗时与结果，用法：defer track("op")(&err)。
func track(operation string) func(*error) {
	started := time.Now()
	return func(err *error) {
		metrics.ObserveReportQuery(operation, *err, time.Since(started))
	}
}

func requireRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrMissingRange
	}
	return nil
}

// Record 记录一条当前时间的事件。
func (s *Service) Record(ctx context.Context, reportType domain.Type, entityID int64, entityName string) (*domain.Report, error) {
	if !reportType.Valid() {
		return nil, ErrInvalidReportType
	}
	entry := domain.New(reportType, entityID, entityName)
	entry.Timestamp = s.now()
	if err := s.store.Create(ctx, &entry); err != nil {
		s.scope("record").Errorw("create report failed", "type", reportType, "entity", entityName, "error", err)
		return nil, fmt.Errorf("create report: %w", err)
	}
	metrics.RecordReport(reportType.String(), 1)
	return &entry, nil
}

// RecordBatch 批量写入事件，任一类型非法时整体拒绝。
func (s *Service) RecordBatch(ctx context.Context, entries []domain.Report) error {
	if len(entries) == 0 {
		return nil
	}
	perType := make(map[domain.Type]int, len(domain.AllTypes()))
	for i := range entries {
		if !entries[i].ReportType.Valid() {
			return ErrInvalidReportType
		}
		perType[entries[i].ReportType]++
	}
	if err := s.store.CreateBatch(ctx, entries); err != nil {
		s.scope("record_batch").Errorw("create reports failed", "size", len(entries), "error", err)
		return fmt.Errorf("create reports: %w", err)
	}
	for reportType, n := range perType {
		metrics.RecordReport(reportType.String(), n)
	}
	return nil
}

// Get 根据主键读取事件。
func (s *Service) Get(ctx context.Context, id uint) (*domain.Report, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return entry, nil
}

// List 返回全部事件。
func (s *Service) List(ctx context.Context) ([]domain.Report, error) {
	return s.store.FindAll(ctx)
}

// ListByType 返回指定类型的事件。
func (s *Service) ListByType(ctx context.Context, reportType domain.Type) ([]domain.Report, error) {
	if !reportType.Valid() {
		return nil, ErrInvalidReportType
	}
	return s.store.FindByType(ctx, reportType)
}

// ListByRange 返回区间内的事件。
func (s *Service) ListByRange(ctx context.Context, start, end time.Time) ([]domain.Report, error) {
	if err := requireRange(start, end); err != nil {
		return nil, err
	}
	return s.store.FindByRange(ctx, start, end)
}

// EntityNames 返回指定类型下出现过的实体名称。
func (s *Service) EntityNames(ctx context.Context, reportType domain.Type) ([]string, error) {
	if !reportType.Valid() {
		return nil, ErrInvalidReportType
	}
	return s.store.DistinctEntityNames(ctx, reportType)
}

// Summary 统计区间内每种类型的事件数，没有事件的类型也以 0 出现。
func (s *Service) Summary(ctx context.Context, start, end time.Time) (summary map[domain.Type]int64, err error) {
	defer track("summary")(&err)
	if err = requireRange(start, end); err != nil {
		return nil, err
	}

	rows, err := s.store.CountByTypeGrouped(ctx, start, end)
	if err != nil {
		return nil, err
	}
	summary = make(map[domain.Type]int64, len(domain.AllTypes()))
	for _, t := range domain.AllTypes() {
		summary[t] = 0
	}
	for _, row := range rows {
		if row.ReportType.Valid() {
			summary[row.ReportType] = row.Total
		}
	}
	return summary, nil
}

// TopEntities 返回区间内按 count 累计值排名前 limit 的实体，limit < 0 视为 0。
func (s *Service) TopEntities(ctx context.Context, reportType domain.Type, start, end time.Time, limit int) (top []EntityUsage, err error) {
	defer track("top")(&err)
	if !reportType.Valid() {
		return nil, ErrInvalidReportType
	}
	if err = requireRange(start, end); err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}

	rows, err := s.store.SumByEntity(ctx, reportType, start, end, limit)
	if err != nil {
		return nil, err
	}
	top = make([]EntityUsage, 0, len(rows))
	for _, row := range rows {
		top = append(top, EntityUsage{Name: row.Name, ID: row.ID, Count: row.Count})
	}
	return top, nil
}

// ChartData 返回按天/周/月分组的稠密序列，缺失的分组补 0。
// 分组标签按 start 所在时区计算。
func (s *Service) ChartData(ctx context.Context, reportType domain.Type, start, end time.Time, groupBy string) (points []ChartPoint, err error) {
	defer track("chart")(&err)
	if !reportType.Valid() {
		return nil, ErrInvalidReportType
	}
	if err = requireRange(start, end); err != nil {
		return nil, err
	}

	grouping := NormalizeGrouping(groupBy)
	entries, err := s.store.FindByTypeAndRange(ctx, reportType, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, entry := range entries {
		counts[BucketKey(entry.Timestamp.In(start.Location()), grouping)]++
	}

	labels := BucketLabels(start, end, grouping)
	points = make([]ChartPoint, 0, len(labels))
	for _, label := range labels {
		points = append(points, ChartPoint{Date: label, Count: counts[label]})
	}
	return points, nil
}

// Compare 对比两个时间段内指定类型的事件数。
func (s *Service) Compare(ctx context.Context, reportType domain.Type, currentStart, currentEnd, previousStart, previousEnd time.Time) (result Comparison, err error) {
	defer track("compare")(&err)
	if !reportType.Valid() {
		return Comparison{}, ErrInvalidReportType
	}
	if err = requireRange(currentStart, currentEnd); err != nil {
		return Comparison{}, err
	}
	if err = requireRange(previousStart, previousEnd); err != nil {
		return Comparison{}, err
	}

	current, err := s.store.CountByTypeAndRange(ctx, reportType, currentStart, currentEnd)
	if err != nil {
		return Comparison{}, err
	}
	previous, err := s.store.CountByTypeAndRange(ctx, reportType, previousStart, previousEnd)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Current:       current,
		Previous:      previous,
		PercentChange: PercentChange(current, previous),
	}, nil
}

// Dashboard 组合汇总、Top5 排行与三类计数。
func (s *Service) Dashboard(ctx context.Context, start, end time.Time) (*Dashboard, error) {
	summary, err := s.Summary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	topRecipes, err := s.TopEntities(ctx, domain.TypeRecipeUsed, start, end, dashboardTopLimit)
	if err != nil {
		return nil, err
	}
	topIngredients, err := s.TopEntities(ctx, domain.TypeIngredientUsed, start, end, dashboardTopLimit)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Type]int64, 3)
	for _, t := range []domain.Type{domain.TypeIngredientReachedLow, domain.TypeRecipesCreated, domain.TypeIngredientsCreated} {
		n, err := s.store.CountByTypeAndRange(ctx, t, start, end)
		if err != nil {
			return nil, err
		}
		counts[t] = n
	}

	return &Dashboard{
		Summary:                 summary,
		TopRecipes:              topRecipes,
		TopIngredients:          topIngredients,
		LowStockCount:           counts[domain.TypeIngredientReachedLow],
		RecipesCreatedCount:     counts[domain.TypeRecipesCreated],
		IngredientsCreatedCount: counts[domain.TypeIngredientsCreated],
	}, nil
}

// DeleteOlderThan 删除 [RetentionFloor, cutoff) 内的事件，返回删除条数。
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, ErrMissingRange
	}
	removed, err := s.store.DeleteBetween(ctx, RetentionFloor, cutoff)
	if err != nil {
		s.scope("cleanup").Errorw("delete reports failed", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("delete reports: %w", err)
	}
	s.scope("cleanup").Infow("reports purged", "cutoff", cutoff, "removed", removed)
	return removed, nil
}

// Reset 清空全部事件，供演示数据重建使用。
func (s *Service) Reset(ctx context.Context) (int64, error) {
	return s.store.DeleteAll(ctx)
}
