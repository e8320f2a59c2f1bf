package domain

import (
	"context"
	"time"
)

// Key identifica o cliente para o rate limit (IP, API key, usuário).
type Key string

// Reason diz por que uma requisição foi recusada.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonRate     Reason = "rate_limited"
	ReasonCapacity Reason = "capacity"
	ReasonDraining Reason = "draining"
)

// Gate responde se o processo aceita trabalho novo.
// O shutdown.Coordinator implementa.
type Gate interface {
	Accepting() bool
}

// Limiter decide se uma ação é permitida agora. *rate.Limiter implementa.
type Limiter interface {
	Allow() bool
}

// BucketStore devolve o bucket de uma chave, criando se preciso.
type BucketStore interface {
	Bucket(Key) Limiter
}

// SlotPool é uma capacidade finita. Acquire bloqueia até haver vaga ou ctx
// encerrar; release deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InFlight() int
	Cap() int
}

// Verdict é o resultado de uma decisão de admissão.
type Verdict struct {
	Admitted bool
	Reason   Reason
	// RetryAfter é a sugestão para o header Retry-After. Zero: sem sugestão.
	RetryAfter time.Duration
}

// Admit é o veredito positivo.
func Admit() Verdict { return Verdict{Admitted: true} }

// RejectionEvent descreve uma recusa.
type RejectionEvent struct {
	Key       Key
	Reason    Reason
	Method    string
	Path      string
	RequestID string
	At        time.Time
}

// RejectionSink recebe as recusas. Best-effort.
type RejectionSink interface {
	Rejected(ctx context.Context, ev RejectionEvent) error
}
