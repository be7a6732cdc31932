/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 15:18:26
 * @FilePath: \inventory-app\backend\internal\repository\report_repository.go
 * @LastEditTime: 2025-10-24 10:51:09
 */
package repository

import (
	"context"
	"time"

	"inventory-app/backend/internal/domain/report"

	"gorm.io/gorm"
)

const reportBatchSize = 200

// TypeCount 是按类型分组计数的结果行。
type TypeCount struct {
	ReportType report.Type `gorm:"column:report_type"`
	Total      int64       `gorm:"column:total"`
}

// EntitySum 是按实体聚合 event_count 的结果行。
type EntitySum struct {
	Name  string `gorm:"column:name" json:"name"`
	ID    int64  `gorm:"column:id" json:"id"`
	Count int64  `gorm:"column:total" json:"count"`
}

// ReportRepository 负责 reports 事件表的读写与聚合查询。
// 所有时间区间均为闭区间 [start, end]，清理除外。
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报表仓储实例。
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create 写入单条事件。
func (r *ReportRepository) Create(ctx context.Context, entry *report.Report) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// CreateBatch 分批写入事件，空切片直接返回。
func (r *ReportRepository) CreateBatch(ctx context.Context, entries []report.Report) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&entries, reportBatchSize).Error
}

// FindAll 按时间倒序返回全部事件。
func (r *ReportRepository) FindAll(ctx context.Context) ([]report.Report, error) {
	var out []report.Report
	err := r.db.WithContext(ctx).Order("occurred_at DESC").Find(&out).Error
	return out, err
}

// FindByID 根据主键查找事件。
func (r *ReportRepository) FindByID(ctx context.Context, id uint) (*report.Report, error) {
	var entry report.Report
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByType 返回指定类型的全部事件。
func (r *ReportRepository) FindByType(ctx context.Context, reportType report.Type) ([]report.Report, error) {
	var out []report.Report
	err := r.db.WithContext(ctx).
		Where("report_type = ?", reportType).
		Order("occurred_at DESC").
		Find(&out).Error
	return out, err
}

// FindByRange 返回时间区间内的全部事件，按时间升序。
func (r *ReportRepository) FindByRange(ctx context.Context, start, end time.Time) ([]report.Report, error) {
	var out []report.Report
	err := r.db.WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at <= ?", start.UTC(), end.UTC()).
		Order("occurred_at ASC").
		Find(&out).Error
	return out, err
}

// FindByTypeAndRange 返回指定类型在区间内的事件，按时间升序。
func (r *ReportRepository) FindByTypeAndRange(ctx context.Context, reportType report.Type, start, end time.Time) ([]report.Report, error) {
	var out []report.Report
	err := r.db.WithContext(ctx).
		Where("report_type = ? AND occurred_at >= ? AND occurred_at <= ?", reportType, start.UTC(), end.UTC()).
		Order("occurred_at ASC").
		Find(&out).Error
	return out, err
}

// CountByTypeGrouped 统计区间内每种类型的事件条数，没有事件的类型不会出现在结果中。
func (r *ReportRepository) CountByTypeGrouped(ctx context.Context, start, end time.Time) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.db.WithContext(ctx).
		Model(&report.Report{}).
		Select("report_type, COUNT(*) AS total").
		Where("occurred_at >= ? AND occurred_at <= ?", start.UTC(), end.UTC()).
		Group("report_type").
		Scan(&rows).Error
	return rows, err
}

// CountByTypeAndRange 统计指定类型在区间内的事件条数。
func (r *ReportRepository) CountByTypeAndRange(ctx context.Context, reportType report.Type, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&report.Report{}).
		Where("report_type = ? AND occurred_at >= ? AND occurred_at <= ?", reportType, start.UTC(), end.UTC()).
		Count(&total).Error
	return total, err
}

// SumByEntity 按 (entity_name, entity_id) 汇总 event_count，降序排列，同分按名称升序。
// limit <= 0 时返回空结果。
func (r *ReportRepository) SumByEntity(ctx context.Context, reportType report.Type, start, end time.Time, limit int) ([]EntitySum, error) {
	if limit <= 0 {
		return []EntitySum{}, nil
	}
	var rows []EntitySum
	err := r.db.WithContext(ctx).
		Model(&report.Report{}).
		Select("entity_name AS name, entity_id AS id, SUM(event_count) AS total").
		Where("report_type = ? AND occurred_at >= ? AND occurred_at <= ?", reportType, start.UTC(), end.UTC()).
		Group("entity_name, entity_id").
		Order("total DESC, entity_name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DistinctEntityNames 返回指定类型出现过的实体名称，按名称排序。
func (r *ReportRepository) DistinctEntityNames(ctx context.Context, reportType report.Type) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&report.Report{}).
		Where("report_type = ?", reportType).
		Distinct().
		Order("entity_name ASC").
		Pluck("entity_name", &names).Error
	return names, err
}

// DeleteBetween 删除 [floor, cutoff) 区间内的事件，返回删除条数。
func (r *ReportRepository) DeleteBetween(ctx context.Context, floor, cutoff time.Time) (int64, error) {
	if !cutoff.After(floor) {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at < ?", floor.UTC(), cutoff.UTC()).
		Delete(&report.Report{})
	return result.RowsAffected, result.Error
}

// DeleteAll 清空事件表，供重新生成演示数据使用。
func (r *ReportRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&report.Report{})
	return result.RowsAffected, result.Error
}
