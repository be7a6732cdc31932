package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 分组粒度，未知值一律按天处理。
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// NormalizeGrouping 将分组参数转为小写，无法识别时回退为 day。
func NormalizeGrouping(groupBy string) string {
	switch g := strings.ToLower(strings.TrimSpace(groupBy)); g {
	case GroupByWeek, GroupByMonth:
		return g
	default:
		return GroupByDay
	}
}

// BucketKey 返回时间点所在的分组标签。
// 周编号为 dayOfYear/7+1，不是 ISO-8601 周。
func BucketKey(t time.Time, groupBy string) string {
	switch NormalizeGrouping(groupBy) {
	case GroupByWeek:
		return fmt.Sprintf("%d-W%02d", t.Year(), t.YearDay()/7+1)
	case GroupByMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// BucketLabels 从 start 开始按粒度步进，直到游标越过 end，返回途经的全部标签。
func BucketLabels(start, end time.Time, groupBy string) []string {
	grouping := NormalizeGrouping(groupBy)
	labels := make([]string, 0)
	for cursor := start; !cursor.After(end); cursor = step(cursor, grouping) {
		labels = append(labels, BucketKey(cursor, grouping))
	}
	return labels
}

func step(t time.Time, grouping string) time.Time {
	switch grouping {
	case GroupByWeek:
		return t.AddDate(0, 0, 7)
	case GroupByMonth:
		return addMonthsClamped(t, 1)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// addMonthsClamped 加月份时把日期截到目标月最后一天，1 月 31 日加一个月得到 2 月底。
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// PercentChange 计算环比百分比并保留两位小数。
// previous 为 0 时：current > 0 返回 100，否则返回 0。
func PercentChange(current, previous int64) float64 {
	if previous <= 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	delta := decimal.NewFromInt(current - previous)
	return delta.
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}
