// Package infra traduz erros de drivers para a taxonomia de domain.
package infra
