package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	domain "inventory-app/backend/internal/domain/report"

	"github.com/xuri/excelize/v2"
)

const (
	sheetChart   = "Chart"
	sheetSummary = "Summary"
	sheetTop     = "Top"
	exportTopN   = 10
)

// ExportChartXLSX 将时间序列、类型汇总和 Top10 写成一个 xlsx 工作簿。
func (s *Service) ExportChartXLSX(ctx context.Context, w io.Writer, reportType domain.Type, start, end time.Time, groupBy string) error {
	points, err := s.ChartData(ctx, reportType, start, end, groupBy)
	if err != nil {
		return err
	}
	summary, err := s.Summary(ctx, start, end)
	if err != nil {
		return err
	}
	top, err := s.TopEntities(ctx, reportType, start, end, exportTopN)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.scope("export").Warnw("close workbook failed", "error", cerr)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetChart); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	chartRows := make([][]any, 0, len(points))
	for _, p := range points {
		chartRows = append(chartRows, []any{p.Date, p.Count})
	}
	if err := writeSheet(f, sheetChart, header, []any{"Date", "Count"}, chartRows); err != nil {
		return err
	}

	summaryRows := make([][]any, 0, len(summary))
	for _, t := range domain.AllTypes() {
		summaryRows = append(summaryRows, []any{t.String(), summary[t]})
	}
	if err := writeSheet(f, sheetSummary, header, []any{"Report Type", "Count"}, summaryRows); err != nil {
		return err
	}

	topRows := make([][]any, 0, len(top))
	for i, entry := range top {
		topRows = append(topRows, []any{i + 1, entry.Name, entry.ID, entry.Count})
	}
	if err := writeSheet(f, sheetTop, header, []any{"Rank", "Name", "ID", "Count"}, topRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	s.scope("export").Infow("xlsx exported", "type", reportType, "points", len(points), "top", len(top))
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// ExportChartCSV 以 date,count 两列输出时间序列。
func (s *Service) ExportChartCSV(ctx context.Context, w io.Writer, reportType domain.Type, start, end time.Time, groupBy string) error {
	points, err := s.ChartData(ctx, reportType, start, end, groupBy)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "count"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{p.Date, strconv.FormatInt(p.Count, 10)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
