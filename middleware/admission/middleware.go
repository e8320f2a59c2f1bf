package admission

import (
	"net/http"
	"strconv"
	"time"

	"service-runtime/middleware/admission/application"
	"service-runtime/middleware/admission/domain"
	"service-runtime/middleware/errhandler"
)

type Options struct {
	Buckets            domain.BucketStore
	Renderer           *errhandler.Renderer
	Sink               domain.RejectionSink
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	RetryAfter         time.Duration
	// RateLimitHeaders adiciona X-RateLimit-Limit/-Burst quando o store os expõe.
	RateLimitHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// Middleware aplica rate limit por chave. Sem Buckets vira passthrough.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Buckets == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKey(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	rd := rendererOrDefault(opts.Renderer)
	svc := application.RateService{Buckets: opts.Buckets, RetryAfter: opts.RetryAfter}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))

			if opts.RateLimitHeaders {
				if ri, ok := opts.Buckets.(rateInfo); ok {
					w.Header().Set("X-RateLimit-Limit", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
				}
			}

			v := svc.Decide(key)
			if !v.Admitted {
				reject(rd, opts.Sink, w, r, key, v, http.StatusTooManyRequests, MessageRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
