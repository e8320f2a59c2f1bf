package admission

import (
	"net/http"

	"service-runtime/middleware/admission/domain"
	"service-runtime/middleware/errhandler"
)

// DrainMiddleware recusa requisições novas com 503 enquanto gate não aceita
// trabalho. A conexão é marcada para fechar.
func DrainMiddleware(gate domain.Gate, rd *errhandler.Renderer) func(next http.Handler) http.Handler {
	if gate == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	rd = rendererOrDefault(rd)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Accepting() {
				w.Header().Set("Connection", "close")
				reject(rd, nil, w, r, "", domain.Verdict{Reason: domain.ReasonDraining}, http.StatusServiceUnavailable, MessageDraining)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
