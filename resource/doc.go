// Package resource é o CRUD de /resources: schemas de entrada, regras do
// modelo, store Postgres (sqlx + lib/pq), migrações embutidas e rotas chi.
//
// Os handlers nunca escrevem erro na resposta. Eles devolvem error e o
// errhandler.Renderer decide o envelope.
package resource
