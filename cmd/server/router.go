package main

import (
	"net/http"

	"service-runtime/config"
	"service-runtime/logging"
	"service-runtime/metrics"
	"service-runtime/middleware/admission"
	admissiondomain "service-runtime/middleware/admission/domain"
	"service-runtime/middleware/errhandler"
	"service-runtime/middleware/reqctx"
	reqdomain "service-runtime/middleware/reqctx/domain"
	"service-runtime/resource"

	"github.com/go-chi/chi/v5"
)

// deps é tudo que o router precisa; main monta, os testes trocam.
type deps struct {
	cfg      config.Config
	logger   logging.Logger
	renderer *errhandler.Renderer
	metrics  *metrics.Metrics
	gate     admissiondomain.Gate
	buckets  admissiondomain.BucketStore
	slots    admissiondomain.SlotPool
	store    resource.Store
	// sinks extras além das métricas (ex.: Redis)
	sinks []reqdomain.CompletionSink
	ids   reqdomain.IDGenerator
}

func newRouter(d deps) http.Handler {
	sinks := append([]reqdomain.CompletionSink{d.metrics}, d.sinks...)

	r := chi.NewRouter()
	r.Use(reqctx.Middleware(reqctx.Options{
		Logger:               d.logger,
		IDs:                  d.ids,
		Sinks:                sinks,
		RouteFn:              routePattern,
		TrustRequestIDHeader: d.cfg.TrustRequestIDHeader,
	}))
	r.Use(d.renderer.Recover)
	r.Use(admission.DrainMiddleware(d.gate, d.renderer))
	r.Use(admission.Middleware(admission.Options{
		Buckets:            d.buckets,
		Renderer:           d.renderer,
		Sink:               d.metrics,
		KeyHeader:          d.cfg.Rate.KeyHeader,
		TrustXForwardedFor: d.cfg.Rate.TrustXFF,
		RetryAfter:         d.cfg.Rate.RetryAfter,
		RateLimitHeaders:   d.cfg.Rate.Headers,
	}))
	r.Use(admission.ConcurrencyMiddleware(admission.ConcurrencyOptions{
		AcquireTimeout: d.cfg.Concurrency.Timeout,
		Renderer:       d.renderer,
		Sink:           d.metrics,
		Pool:           d.slots,
	}))

	r.NotFound(errhandler.NotFound)
	r.MethodNotAllowed(errhandler.NotFound)

	r.Method(http.MethodGet, "/", d.renderer.Handle(root))
	r.Mount("/resources", resource.Routes(&resource.Handler{
		Store:     d.store,
		Renderer:  d.renderer,
		BodyLimit: d.cfg.RequestBodyLimit,
	}))
	r.Method(http.MethodGet, "/metrics", d.metrics.Handler())
	return r
}

func root(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, err := w.Write([]byte(`{"ok":true}`))
	return err
}

// routePattern devolve o padrão casado pelo chi ("/resources/{id}"). Rotas
// sem casamento viram "unmatched" para não explodir a cardinalidade.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}
