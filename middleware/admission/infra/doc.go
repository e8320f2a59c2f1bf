// Package infra implementa os contratos de admissão.
//
// BucketStore usa golang.org/x/time/rate; o pool de vagas é um semáforo em
// channel.
package infra
