// Package domain define os tipos e contratos do contexto de requisição.
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
