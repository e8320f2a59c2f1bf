// Package errhandler é o ponto único onde falhas viram resposta HTTP.
//
// Organização (mesmo desenho de middleware/reqctx):
//   - domain: taxonomia de erros (HTTPError, RequestValidationError,
//     PersistenceValidationError, UniqueConstraintError) e o Envelope JSON.
//   - application: Classifier, que escolhe exatamente um Kind por falha
//     seguindo uma precedência fixa.
//   - infra: tradução de erros de drivers (Postgres) para a taxonomia.
//
// Fluxo:
//  1. O handler de negócio devolve error (Renderer.Handle) ou entra em pânico
//     (Renderer.Recover).
//  2. O Classifier produz o Envelope; falhas desconhecidas são logadas com o
//     id da requisição e viram 500 genérico.
//  3. Respond escreve o corpo uma única vez.
package errhandler
