// Package domain define contratos e tipos de admissão.
//
// Não depende de net/http nem de implementações concretas.
package domain
