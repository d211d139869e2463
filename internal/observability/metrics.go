// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Backtest metrics
	BacktestRunsTotal   *prometheus.CounterVec
	SymbolRunsTotal     *prometheus.CounterVec
	BacktestDuration    prometheus.Histogram
	TradesSimulated     prometheus.Counter
	SignalRowsGenerated prometheus.Counter

	// Ingestion metrics
	BarsImported    prometheus.Counter
	KlinesReceived  prometheus.Counter
	IngestionErrors *prometheus.CounterVec

	// Dataset metrics
	DatasetCacheSize prometheus.Gauge
	DatasetLoads     *prometheus.CounterVec

	// Strategy catalog metrics
	StrategyOps *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "strategy_lab"
	}

	return &Metrics{
		// Backtest metrics
		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by mode",
		}, []string{"mode"}),
		SymbolRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "symbol_runs_total",
			Help:      "Total number of per-symbol runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		SignalRowsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "signal_rows_generated_total",
			Help:      "Total number of signal rows generated",
		}),

		// Ingestion metrics
		BarsImported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_imported_total",
			Help:      "Total number of bars written to the bar store",
		}),
		KlinesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "klines_received_total",
			Help:      "Total number of closed klines received from the stream",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"error_type"}),

		// Dataset metrics
		DatasetCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "cache_size",
			Help:      "Current number of datasets held in the CSV cache",
		}),
		DatasetLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Total number of dataset loads by outcome",
		}, []string{"outcome"}),

		// Strategy catalog metrics
		StrategyOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategies",
			Name:      "operations_total",
			Help:      "Total number of strategy catalog operations by type and status",
		}, []string{"operation", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktestRun records one backtest run.
func RecordBacktestRun(mode string, durationSeconds float64) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(mode).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
}

// RecordSymbolRun records one per-symbol outcome.
func RecordSymbolRun(failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	DefaultMetrics.SymbolRunsTotal.WithLabelValues(status).Inc()
}

// RecordTrades adds to the simulated trade counter.
func RecordTrades(n int) {
	DefaultMetrics.TradesSimulated.Add(float64(n))
}

// RecordSignalRows adds to the generated signal row counter.
func RecordSignalRows(n int) {
	DefaultMetrics.SignalRowsGenerated.Add(float64(n))
}

// RecordBarsImported adds to the imported bar counter.
func RecordBarsImported(n int) {
	DefaultMetrics.BarsImported.Add(float64(n))
}

// RecordKlineReceived increments the closed kline counter.
func RecordKlineReceived() {
	DefaultMetrics.KlinesReceived.Inc()
}

// RecordIngestionError records one ingestion error by type.
func RecordIngestionError(errorType string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(errorType).Inc()
}

// UpdateDatasetCacheSize updates the dataset cache gauge.
func UpdateDatasetCacheSize(n int) {
	DefaultMetrics.DatasetCacheSize.Set(float64(n))
}

// RecordDatasetLoad records a dataset load outcome (hit, miss, error).
func RecordDatasetLoad(outcome string) {
	DefaultMetrics.DatasetLoads.WithLabelValues(outcome).Inc()
}

// RecordStrategyOp records a strategy catalog operation.
func RecordStrategyOp(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.StrategyOps.WithLabelValues(operation, status).Inc()
}
