package errhandler

import (
	"encoding/json"
	"net/http"

	"service-runtime/middleware/errhandler/domain"
)

// Respond escreve env como JSON com env.Status. Nunca entra em pânico.
func Respond(w http.ResponseWriter, env domain.Envelope) {
	defer func() { _ = recover() }()

	status := env.Status
	if !domain.ValidStatus(status) {
		status = domain.StatusFor(env.Kind)
	}

	body, err := json.Marshal(env)
	if err != nil {
		env = domain.Internal()
		status = env.Status
		body, _ = json.Marshal(env)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// NotFound responde o envelope fixo de rota inexistente, sem classificar.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Respond(w, domain.RouteNotFound())
}
