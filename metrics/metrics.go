// Package metrics expõe os coletores Prometheus do runtime.
//
// Cada Metrics tem o próprio Registry, então testes e binários não disputam
// o registry global.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	admissiondomain "service-runtime/middleware/admission/domain"
	errdomain "service-runtime/middleware/errhandler/domain"
	reqdomain "service-runtime/middleware/reqctx/domain"
	"service-runtime/shutdown"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "service_runtime"

type Metrics struct {
	Registry  *prometheus.Registry
	namespace string

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	shutdowns  *prometheus.CounterVec
	cleanup    *prometheus.HistogramVec
}

// New cria e registra os coletores. namespace vazio usa DefaultNamespace.
func New(namespace string) *Metrics {
	if strings.TrimSpace(namespace) == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		Registry:  prometheus.NewRegistry(),
		namespace: namespace,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of completed HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Failures rendered by the error handler, by kind.",
		}, []string{"kind", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "rejections_total",
			Help:      "Requests refused before reaching a handler.",
		}, []string{"reason"}),
		shutdowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shutdown",
			Name:      "total",
			Help:      "Shutdown outcomes.",
		}, []string{"reason", "outcome"}),
		cleanup: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "shutdown",
			Name:      "resource_duration_seconds",
			Help:      "Time spent shutting down each resource.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"resource", "success"}),
	}

	m.Registry.MustRegister(
		m.requests,
		m.duration,
		m.errors,
		m.rejections,
		m.shutdowns,
		m.cleanup,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler devolve o endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Record implementa reqctx/domain.CompletionSink.
func (m *Metrics) Record(_ context.Context, ev reqdomain.CompletionEvent) error {
	route := ev.Route
	if route == "" {
		route = "unmatched"
	}
	method := strings.ToUpper(ev.Method)
	m.requests.WithLabelValues(method, route, strconv.Itoa(ev.Status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(ev.Duration.Seconds())
	return nil
}

// ObserveError tem a assinatura de Classifier.OnClassified.
func (m *Metrics) ObserveError(_ context.Context, env errdomain.Envelope) {
	m.errors.WithLabelValues(string(env.Kind), strconv.Itoa(env.Status)).Inc()
}

// Rejected implementa admission/domain.RejectionSink.
func (m *Metrics) Rejected(_ context.Context, ev admissiondomain.RejectionEvent) error {
	m.rejections.WithLabelValues(string(ev.Reason)).Inc()
	return nil
}

// ObserveResource tem a assinatura de shutdown.Config.OnProgress.
func (m *Metrics) ObserveResource(rr shutdown.ResourceResult) {
	m.cleanup.WithLabelValues(rr.Name, strconv.FormatBool(rr.Err == nil)).Observe(rr.Duration.Seconds())
}

// ObserveShutdown tem a assinatura de shutdown.Config.OnComplete.
func (m *Metrics) ObserveShutdown(res shutdown.Result) {
	outcome := "clean"
	switch {
	case res.TimedOut():
		outcome = "timeout"
	case res.Failed():
		outcome = "failed"
	}
	m.shutdowns.WithLabelValues(res.Reason, outcome).Inc()
}

// WatchSlots publica a ocupação de um pool de vagas como gauges.
func (m *Metrics) WatchSlots(pool admissiondomain.SlotPool) {
	if pool == nil {
		return
	}
	m.Registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "admission",
			Name:      "inflight_requests",
			Help:      "Requests currently holding a concurrency slot.",
		}, func() float64 { return float64(pool.InFlight()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "admission",
			Name:      "slots",
			Help:      "Concurrency slot capacity.",
		}, func() float64 { return float64(pool.Cap()) }),
	)
}
