// Package domain define a taxonomia de erros do runtime e o envelope JSON.
//
// Os tipos de erro daqui são o que a lógica de negócio devolve; quem decide
// status e corpo da resposta é o classificador (application).
package domain
