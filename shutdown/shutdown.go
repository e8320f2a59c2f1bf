package shutdown

import (
	"context"
	"errors"
	"time"

	"service-runtime/logging"
)

var (
	// ErrTimeout indica que o prazo venceu antes do fim da limpeza.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrResourceFailed envolve a falha do recurso que interrompeu a limpeza.
	ErrResourceFailed = errors.New("resource shutdown failed")
)

// Tags usadas no log e como motivo do gatilho em falhas fatais.
const (
	TagUncaughtException  = "uncaughtException"
	TagUnhandledRejection = "unhandledRejection"
)

// DefaultDeadline é o prazo até a saída forçada.
const DefaultDeadline = 20 * time.Second

// Phase é o estado do Coordinator.
type Phase int32

const (
	Running Phase = iota
	Draining
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Resource é qualquer coisa que precise liberar algo no encerramento.
// O ctx expira junto com o prazo do Coordinator.
type Resource interface {
	Shutdown(ctx context.Context) error
}

// ResourceFunc adapta uma função para Resource.
type ResourceFunc func(ctx context.Context) error

func (f ResourceFunc) Shutdown(ctx context.Context) error { return f(ctx) }

// ResourceResult é o resultado do encerramento de um recurso.
type ResourceResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Result descreve como o processo terminou.
type Result struct {
	Reason string
	// Code é o código de saída: 0 limpo, 1 timeout ou falha.
	Code int
	// Resources tem só os recursos que chegaram a terminar.
	Resources     []ResourceResult
	Err           error
	TotalDuration time.Duration
}

func (r Result) Failed() bool { return r.Code != 0 }

// TimedOut indica saída forçada pelo prazo.
func (r Result) TimedOut() bool { return errors.Is(r.Err, ErrTimeout) }

type Config struct {
	// Deadline padrão: DefaultDeadline.
	Deadline time.Duration

	// Logger padrão: logging.Nop().
	Logger logging.Logger

	// Exit encerra o processo. Padrão: os.Exit. Testes injetam uma função
	// que só registra o código.
	Exit func(code int)

	// OnProgress é chamado quando cada recurso termina.
	OnProgress func(ResourceResult)

	// OnComplete é chamado uma vez, antes de Exit.
	OnComplete func(Result)
}

type registration struct {
	name     string
	resource Resource
}
