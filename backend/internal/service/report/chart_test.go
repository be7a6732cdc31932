package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGrouping(t *testing.T) {
	assert.Equal(t, GroupByWeek, NormalizeGrouping("WEEK"))
	assert.Equal(t, GroupByMonth, NormalizeGrouping(" Month "))
	assert.Equal(t, GroupByDay, NormalizeGrouping("day"))
	assert.Equal(t, GroupByDay, NormalizeGrouping("quarter"))
	assert.Equal(t, GroupByDay, NormalizeGrouping(""))
}

func TestBucketKey(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-15", BucketKey(jan15, "day"))
	assert.Equal(t, "2024-W03", BucketKey(jan15, "week"))
	assert.Equal(t, "2024-01", BucketKey(jan15, "month"))
	assert.Equal(t, "2024-01-15", BucketKey(jan15, "fortnight"))

	// day 6 -> 6/7+1 = 1, day 7 -> 2
	assert.Equal(t, "2024-W01", BucketKey(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), "week"))
	assert.Equal(t, "2024-W02", BucketKey(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), "week"))
	assert.Equal(t, "2024-W53", BucketKey(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "week"))
}

func TestBucketLabelsDense(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	days := BucketLabels(start, start.AddDate(0, 0, 9), "day")
	assert.Len(t, days, 10)
	assert.Equal(t, "2024-01-01", days[0])
	assert.Equal(t, "2024-01-10", days[9])

	weeks := BucketLabels(start, start.AddDate(0, 0, 27), "week")
	assert.Equal(t, []string{"2024-W01", "2024-W02", "2024-W03", "2024-W04"}, weeks)

	months := BucketLabels(start, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "month")
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"}, months)

	assert.Empty(t, BucketLabels(start, start.Add(-time.Second), "day"))
	assert.Equal(t, []string{"2024-01-01"}, BucketLabels(start, start, "day"))
}

func TestBucketLabelsSortedAndUnique(t *testing.T) {
	start := time.Date(2023, 11, 20, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	for _, g := range []string{"day", "week", "month"} {
		labels := BucketLabels(start, end, g)
		seen := map[string]bool{}
		for i, label := range labels {
			assert.False(t, seen[label], "duplicate label %s for %s", label, g)
			seen[label] = true
			if i > 0 {
				assert.Less(t, labels[i-1], label, "labels must ascend for %s", g)
			}
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	feb := addMonthsClamped(jan31, 1)
	assert.Equal(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), feb)
	assert.Equal(t, time.Date(2024, 3, 29, 10, 0, 0, 0, time.UTC), addMonthsClamped(feb, 1))
	assert.Equal(t, time.Date(2023, 2, 28, 10, 0, 0, 0, time.UTC), addMonthsClamped(time.Date(2023, 1, 31, 10, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), addMonthsClamped(time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), 1))

	labels := BucketLabels(jan31, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), "month")
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"}, labels)
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(0, 0))
	assert.Equal(t, 100.0, PercentChange(5, 0))
	assert.Equal(t, 50.0, PercentChange(150, 100))
	assert.Equal(t, -50.0, PercentChange(50, 100))
	assert.Equal(t, 33.33, PercentChange(4, 3))
	assert.Equal(t, -66.67, PercentChange(1, 3))
	assert.Equal(t, -100.0, PercentChange(0, 7))
}
