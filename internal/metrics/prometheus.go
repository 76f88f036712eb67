package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/suite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rpctest"

// Metrics owns a private registry so that several instances can coexist in
// one process.
type Metrics struct {
	registry *prometheus.Registry

	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec

	caseResults  *prometheus.CounterVec
	caseDuration *prometheus.GaugeVec
	runs         *prometheus.CounterVec
	lastRun      prometheus.Gauge
	lastRunCases *prometheus.GaugeVec

	nodeRequests        *prometheus.CounterVec
	nodeRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "RPC calls made to the node under test",
		}, []string{"action", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_call_duration_seconds",
			Help:      "Latency of RPC calls made to the node under test",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		caseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "case_results_total",
			Help:      "Finished cases by status",
		}, []string{"case", "status"}),
		caseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "case_duration_seconds",
			Help:      "Duration of the last execution of each case",
		}, []string{"case"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by result",
		}, []string{"result"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		lastRunCases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_cases",
			Help:      "Cases of the last run by status",
		}, []string{"status"}),
		nodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devnode",
			Name:      "requests_total",
			Help:      "Actions served by the simulated node",
		}, []string{"action", "outcome"}),
		nodeRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "devnode",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving actions on the simulated node",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	metrics.register()
	return metrics
}

func (m *Metrics) register() {
	m.registry.MustRegister(
		m.rpcCalls,
		m.rpcDuration,
		m.caseResults,
		m.caseDuration,
		m.runs,
		m.lastRun,
		m.lastRunCases,
		m.nodeRequests,
		m.nodeRequestDuration,
	)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveCall(action string, duration time.Duration, err error) {
	m.rpcCalls.WithLabelValues(action, outcome(err)).Inc()
	m.rpcDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRequest(action string, outcome string, duration time.Duration) {
	m.nodeRequests.WithLabelValues(action, outcome).Inc()
	m.nodeRequestDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (m *Metrics) RunStarted(context.Context, suite.RunInfo) error {
	m.lastRunCases.Reset()
	return nil
}

func (m *Metrics) CaseFinished(_ context.Context, _ suite.RunInfo, result suite.Result) error {
	m.caseResults.WithLabelValues(result.Name, string(result.Status)).Inc()
	m.caseDuration.WithLabelValues(result.Name).Set(result.Duration.Seconds())
	m.lastRunCases.WithLabelValues(string(result.Status)).Inc()
	return nil
}

func (m *Metrics) RunFinished(_ context.Context, _ suite.RunInfo, summary suite.Summary) error {
	result := "ok"
	switch {
	case summary.Cancelled:
		result = "cancelled"
	case !summary.OK():
		result = "failed"
	}
	m.runs.WithLabelValues(result).Inc()
	m.lastRun.SetToCurrentTime()
	return nil
}
