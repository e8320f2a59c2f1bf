package domain

import (
	"encoding/json"
	"net/http"
)

// Kind é o valor do campo "error" no corpo da resposta.
type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindHTTP                  Kind = "HttpError"
	KindPersistenceValidation Kind = "PersistenceValidationError"
	KindUniqueConstraint      Kind = "PersistenceUniqueConstraintError"
	KindNotFound              Kind = "NotFound"
	KindInternal              Kind = "InternalServerError"
)

// Mensagens fixas.
const (
	MessageInvalidRequest = "Invalid request"
	MessageInternal       = "Something went wrong"
	MessageRouteNotFound  = "Route not found"
)

// Issue é um problema de validação do schema da requisição.
type Issue struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// FieldViolation é uma falha de validação por campo vinda da persistência.
type FieldViolation struct {
	Message string `json:"message"`
	Path    string `json:"path"`
	Value   any    `json:"value"`
	Rule    string `json:"validatorKey,omitempty"`
}

// Envelope é o resultado de uma classificação: exatamente um Kind, o status
// HTTP e o que vai no corpo.
type Envelope struct {
	Kind    Kind
	Status  int
	Message string
	Issues  []Issue
	Details any
}

// Internal é o envelope genérico de falha interna.
func Internal() Envelope {
	return Envelope{Kind: KindInternal, Status: http.StatusInternalServerError, Message: MessageInternal}
}

// RouteNotFound é o envelope fixo para rota inexistente.
func RouteNotFound() Envelope {
	return Envelope{Kind: KindNotFound, Status: http.StatusNotFound, Message: MessageRouteNotFound}
}

type issuesBody struct {
	Error   Kind    `json:"error"`
	Message string  `json:"message"`
	Issues  []Issue `json:"issues"`
}

type detailsBody struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// MarshalJSON produz o corpo no formato do Kind:
//
//	ValidationError             -> {error, message, issues}
//	InternalServerError/NotFound -> {error, message}
//	demais                      -> {error, message, details?}
func (e Envelope) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindValidation:
		issues := e.Issues
		if issues == nil {
			issues = []Issue{}
		}
		return json.Marshal(issuesBody{Error: e.Kind, Message: e.Message, Issues: issues})
	case KindInternal, KindNotFound:
		return json.Marshal(detailsBody{Error: e.Kind, Message: e.Message})
	default:
		return json.Marshal(detailsBody{Error: e.Kind, Message: e.Message, Details: e.Details})
	}
}
