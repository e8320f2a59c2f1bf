package reqctx

import (
	"net/http"
	"strings"
	"time"

	"service-runtime/logging"
	"service-runtime/middleware/reqctx/domain"
	"service-runtime/middleware/reqctx/infra"
)

// HeaderRequestID é o header usado para devolver (e, opcionalmente, aceitar) o id.
const HeaderRequestID = "X-Request-ID"

// RouteFunc extrai o padrão de rota da requisição já roteada.
type RouteFunc func(r *http.Request) string

type Options struct {
	Logger logging.Logger
	IDs    domain.IDGenerator
	Sinks  []domain.CompletionSink
	// RouteFn é chamado depois do handler, quando o roteador já preencheu a rota.
	RouteFn RouteFunc
	// TrustRequestIDHeader aceita X-Request-ID de entrada quando o valor é válido.
	// Só faz sentido atrás de um proxy confiável.
	TrustRequestIDHeader bool
	// Now existe para testes. Padrão: time.Now.
	Now func() time.Time
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.IDs == nil {
		opts.IDs = infra.UUIDGenerator{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := domain.RequestContext{ID: newID(opts, r), Start: opts.Now()}

			logger := logging.Prefixed(opts.Logger, "["+rc.ID+"]")
			ctx := NewContext(r.Context(), rc)
			ctx = logging.NewContext(ctx, logger)
			r = r.WithContext(ctx)

			w.Header().Set(HeaderRequestID, rc.ID)

			uri := r.URL.RequestURI()
			logger.Infof("Incoming request: %s %s", r.Method, uri)

			rec := newStatusRecorder(w)

			// roda depois de toda a cadeia de handlers
			defer func() {
				end := opts.Now()
				elapsed := end.Sub(rc.Start)
				logger.Infof("Completed request: %s %s status=%d duration=%sms",
					r.Method, uri, rec.status, formatMillis(elapsed))

				if len(opts.Sinks) == 0 {
					return
				}
				ev := domain.CompletionEvent{
					RequestID: rc.ID,
					Method:    r.Method,
					Path:      r.URL.Path,
					Route:     r.URL.Path,
					Status:    rec.status,
					Duration:  elapsed,
					At:        end,
				}
				if opts.RouteFn != nil {
					if route := opts.RouteFn(r); route != "" {
						ev.Route = route
					}
				}
				for _, sink := range opts.Sinks {
					if sink == nil {
						continue
					}
					if err := sink.Record(ctx, ev); err != nil {
						logger.Debugf("completion sink error: %v", err)
					}
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func newID(opts Options, r *http.Request) string {
	if opts.TrustRequestIDHeader {
		if v := strings.TrimSpace(r.Header.Get(HeaderRequestID)); validID(v) {
			return v
		}
	}
	return opts.IDs.NewID()
}

// validID aceita até 128 caracteres de [A-Za-z0-9._:-].
func validID(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == ':', c == '-':
		default:
			return false
		}
	}
	return true
}
