// Package reqctx fornece o middleware HTTP (net/http) de contexto por requisição.
//
// Visão geral (camadas):
//
//   - domain: tipos do domínio (RequestContext, CompletionEvent) e contratos (IDGenerator, CompletionSink)
//   - infra: implementações concretas (gerador UUID, stores de estatística em memória e Redis)
//   - reqctx (este pacote): middleware + acesso ao contexto + tradução para linhas de log
//
// Fluxo por requisição:
//
//   1) Gera o id de correlação (ou aceita X-Request-ID, se configurado)
//   2) Anexa RequestContext e um Logger prefixado com "[<id>]" ao context.Context
//   3) Loga "Incoming request: <METHOD> <path>"
//   4) Chama o próximo handler
//   5) Ao final da cadeia loga "Completed request: ... status=<code> duration=<ms>ms"
//      e registra o CompletionEvent nos sinks (best-effort)
//
// Qualquer código que receba o ctx da requisição (inclusive goroutines e
// continuações criadas a partir dele) usa logging.FromContext(ctx) e herda o
// prefixo sem passar o id explicitamente. Não existe estado global: duas
// requisições concorrentes nunca enxergam o contexto uma da outra.
package reqctx
