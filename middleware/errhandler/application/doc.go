// Package application contém a classificação de falhas em envelopes.
//
// Não conhece net/http além das constantes de status.
package application
