package reqctx

import (
	"context"

	"service-runtime/middleware/reqctx/domain"
)

// NoRequestID é o valor devolvido por RequestID fora de uma requisição.
const NoRequestID = ""

type ctxKey struct{}

// NewContext anexa rc a ctx. O middleware faz isso; use diretamente só em
// testes ou em workers que simulam uma requisição.
func NewContext(ctx context.Context, rc domain.RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext devolve o RequestContext ativo em ctx, se houver.
func FromContext(ctx context.Context) (domain.RequestContext, bool) {
	if ctx == nil {
		return domain.RequestContext{}, false
	}
	rc, ok := ctx.Value(ctxKey{}).(domain.RequestContext)
	return rc, ok
}

// RequestID devolve o id de correlação ativo em ctx, ou NoRequestID.
func RequestID(ctx context.Context) string {
	if rc, ok := FromContext(ctx); ok {
		return rc.ID
	}
	return NoRequestID
}

// Detach devolve um contexto que mantém o id de correlação e o logger da
// requisição, mas não é cancelado quando a resposta termina. Use para trabalho
// agendado depois que o handler retorna (timers, callbacks, goroutines).
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
