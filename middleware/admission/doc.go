// Package admission decide se uma requisição entra na cadeia de handlers.
//
// Camadas:
//
//   - domain: contratos (Gate, BucketStore, SlotPool) e o Verdict, sem net/http
//   - application: regras de decisão (token bucket, aquisição de vaga com timeout)
//   - infra: implementações concretas (golang.org/x/time/rate, semáforo em channel)
//   - admission (este pacote): middlewares HTTP, extração de chave e resposta
//
// Três portões, na ordem em que o servidor os monta:
//
//  1. DrainMiddleware: recusa tudo com 503 quando o processo está encerrando
//  2. Middleware: rate limit por chave (IP/header/XFF), 429 com Retry-After
//  3. ConcurrencyMiddleware: teto de requisições simultâneas, 503
//
// Toda recusa é renderizada pelo errhandler, então o corpo é sempre o envelope
// JSON padrão.
package admission
