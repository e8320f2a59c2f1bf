package domain

import "time"

// RequestContext é o estado ambiente de uma requisição.
//
// É criado na entrada da requisição e nunca alterado depois disso.
// Start carrega a leitura monotônica do relógio (time.Now), então
// time.Since(Start) nunca é negativo.
type RequestContext struct {
	ID    string
	Start time.Time
}

// IDGenerator produz ids de correlação opacos e únicos.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapta uma função simples para IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }
