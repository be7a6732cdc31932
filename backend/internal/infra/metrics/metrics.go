package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce           sync.Once
	reportsRecorded        *prometheus.CounterVec
	reportQueries          *prometheus.CounterVec
	reportQueryDuration    *prometheus.HistogramVec
	reportsPurged          prometheus.Counter
	retentionRuns          *prometheus.CounterVec
	stockAlerts            *prometheus.CounterVec
	defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

const (
	namespaceMetrics = "inventory"
)

// MustRegister 初始化 Prometheus 指标并注册 Go 运行时采样器，需在应用启动阶段调用一次。
func MustRegister() {
	registerOnce.Do(func() {
		reportsRecorded = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "reports",
					Name:      "recorded_total",
					Help:      "写入的报表事件数量，按报表类型统计。",
				},
				[]string{"report_type"},
			),
		)
		reportQueries = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "reports",
					Name:      "queries_total",
					Help:      "报表聚合查询次数，按操作与结果区分。",
				},
				[]string{"operation", "status"},
			),
		)
		reportQueryDuration = registerHistogramVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespaceMetrics,
					Subsystem: "reports",
					Name:      "query_duration_seconds",
					Help:      "报表聚合查询耗时。",
					Buckets:   defaultDurationBuckets,
				},
				[]string{"operation"},
			),
		)
		reportsPurged = registerCounter(
			prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespaceMetrics,
				Subsystem: "reports",
				Name:      "purged_total",
				Help:      "保留策略清理掉的报表事件数量。",
			}),
		)
		retentionRuns = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "reports",
					Name:      "retention_runs_total",
					Help:      "保留策略任务执行次数，按结果区分（ok/skipped/error）。",
				},
				[]string{"result"},
			),
		)
		stockAlerts = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "ingredients",
					Name:      "low_stock_alerts_total",
					Help:      "原料库存跌破预警线的次数。",
				},
				[]string{"ingredient"},
			),
		)

		registerRuntimeCollectors()
	})
}

// RecordReport 记录一次报表事件写入。
func RecordReport(reportType string, n int) {
	if reportsRecorded == nil || n <= 0 {
		return
	}
	reportsRecorded.WithLabelValues(normalizeLabel(reportType, "unknown")).Add(float64(n))
}

// ObserveReportQuery 记录一次聚合查询的结果与耗时。
func ObserveReportQuery(operation string, err error, duration time.Duration) {
	if reportQueries == nil || reportQueryDuration == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	op := normalizeLabel(operation, "unknown")
	reportQueries.WithLabelValues(op, status).Inc()
	reportQueryDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRetention 记录保留策略执行结果与删除条数。
func RecordRetention(result string, purged int64) {
	if retentionRuns != nil {
		retentionRuns.WithLabelValues(normalizeLabel(result, "unknown")).Inc()
	}
	if reportsPurged != nil && purged > 0 {
		reportsPurged.Add(float64(purged))
	}
}

// RecordLowStock 记录原料触发低库存预警。
func RecordLowStock(ingredient string) {
	if stockAlerts == nil {
		return
	}
	stockAlerts.WithLabelValues(normalizeLabel(ingredient, "unnamed")).Inc()
}

func normalizeLabel(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func registerCounter(counter prometheus.Counter) prometheus.Counter {
	if err := prometheus.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return counter
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}

func registerHistogramVec(vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}

func registerRuntimeCollectors() {
	for _, collector := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := prometheus.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
