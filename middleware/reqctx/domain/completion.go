package domain

import (
	"context"
	"strconv"
	"time"
)

// CompletionEvent descreve uma requisição que terminou de ser respondida.
//
// Route é o padrão da rota (ex: "/resources/{id}") quando o roteador o expõe;
// caso contrário é igual a Path. Prefira Route para agregações, por causa da
// cardinalidade.
type CompletionEvent struct {
	RequestID string

	Method string
	Path   string
	Route  string

	Status   int
	Duration time.Duration

	At time.Time
}

// StatusClass devolve "2xx", "4xx", etc.
func (e CompletionEvent) StatusClass() string {
	if e.Status < 100 || e.Status > 599 {
		return "unknown"
	}
	return strconv.Itoa(e.Status/100) + "xx"
}

// Failed indica status >= 400.
func (e CompletionEvent) Failed() bool { return e.Status >= 400 }

// CompletionSink é a estratégia de persistência dos eventos de conclusão.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware trata erro como best-effort (não derruba a requisição).
type CompletionSink interface {
	Record(ctx context.Context, ev CompletionEvent) error
}
