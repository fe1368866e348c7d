package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the counters the financial
// core emits.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	invoicesCreatedTotal  prometheus.Counter
	invoicesSentTotal     prometheus.Counter
	timesheetsLockedTotal prometheus.Counter
	driftDetectionsTotal  *prometheus.CounterVec
	workflowsRaisedTotal  *prometheus.CounterVec
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &MetricsService{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed, by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		invoicesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_created_total",
			Help: "Draft invoices created by generation runs.",
		}),
		invoicesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_sent_total",
			Help: "Invoices transitioned from draft to sent.",
		}),
		timesheetsLockedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timesheets_locked_total",
			Help: "Timesheets financially locked at send time.",
		}),
		driftDetectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drift_detections_total",
			Help: "Drift detection runs, by outcome.",
		}, []string{"has_drift"}),
		workflowsRaisedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_workflows_raised_total",
			Help: "Admin workflows auto-created by the core, by type.",
		}, []string{"type"}),
	}

	registry.MustRegister(
		s.httpRequestsTotal,
		s.httpRequestDuration,
		s.invoicesCreatedTotal,
		s.invoicesSentTotal,
		s.timesheetsLockedTotal,
		s.driftDetectionsTotal,
		s.workflowsRaisedTotal,
	)

	return s
}

// Handler serves the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	s.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (s *MetricsService) RecordInvoicesCreated(count int) {
	s.invoicesCreatedTotal.Add(float64(count))
}

func (s *MetricsService) RecordInvoiceSent() {
	s.invoicesSentTotal.Inc()
}

func (s *MetricsService) RecordTimesheetsLocked(count int) {
	s.timesheetsLockedTotal.Add(float64(count))
}

func (s *MetricsService) RecordDriftDetection(hasDrift bool) {
	s.driftDetectionsTotal.WithLabelValues(strconv.FormatBool(hasDrift)).Inc()
}

func (s *MetricsService) RecordWorkflowRaised(workflowType string) {
	s.workflowsRaisedTotal.WithLabelValues(workflowType).Inc()
}
