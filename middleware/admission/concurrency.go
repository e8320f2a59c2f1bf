package admission

import (
	"net/http"
	"time"

	"service-runtime/middleware/admission/application"
	"service-runtime/middleware/admission/domain"
	"service-runtime/middleware/admission/infra"
	"service-runtime/middleware/errhandler"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	Renderer       *errhandler.Renderer
	Sink           domain.RejectionSink
	// Pool substitui o semáforo padrão (usado em testes e métricas).
	Pool domain.SlotPool
}

// ConcurrencyMiddleware limita quantas requisições rodam ao mesmo tempo.
// Max <= 0 e sem Pool vira passthrough.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewSlotPool(opts.Max)
	}
	rd := rendererOrDefault(opts.Renderer)
	svc := application.SlotService{Pool: opts.Pool, AcquireTimeout: opts.AcquireTimeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, v := svc.Acquire(r.Context())
			if !v.Admitted {
				reject(rd, opts.Sink, w, r, "", v, http.StatusServiceUnavailable, MessageBusy)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
