// Package metrics holds the Prometheus collectors of the CMS service.
//
// Metrics:
//   - cms_article_transitions_total{action,outcome}
//   - cms_category_operations_total{operation,outcome}
//   - cms_tag_operations_total{operation,outcome}
//   - cms_audit_sink_failures_total{sink}
//   - cms_http_request_duration_seconds{method,route,status}
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Metrics bundles every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ArticleTransitions *prometheus.CounterVec
	CategoryOperations *prometheus.CounterVec
	TagOperations      *prometheus.CounterVec
	AuditSinkFailures  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// Default returns the collectors registered on the global registry.
// Registration happens once per process.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New registers a fresh set of collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ArticleTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cms_article_transitions_total",
				Help: "Article lifecycle operations by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		CategoryOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cms_category_operations_total",
				Help: "Category hierarchy operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		TagOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cms_tag_operations_total",
				Help: "Tag operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AuditSinkFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cms_audit_sink_failures_total",
				Help: "Audit events a sink failed to write",
			},
			[]string{"sink"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cms_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func (m *Metrics) ArticleTransition(action string, err error) {
	if m == nil {
		return
	}
	m.ArticleTransitions.WithLabelValues(action, outcome(err)).Inc()
}

func (m *Metrics) CategoryOperation(op string, err error) {
	if m == nil {
		return
	}
	m.CategoryOperations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) TagOperation(op string, err error) {
	if m == nil {
		return
	}
	m.TagOperations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) AuditSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.AuditSinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
