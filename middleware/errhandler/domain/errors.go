package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// RequestValidationError é a falha de validação do schema de entrada.
type RequestValidationError struct {
	Issues []Issue
}

func (e *RequestValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, strings.Join(is.Path, ".")+": "+is.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// HTTPError é um erro levantado pela aplicação com status e mensagem explícitos.
type HTTPError struct {
	Status  int
	Message string
	Details any
}

func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// WithDetails devolve uma cópia com details preenchido.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// PersistenceValidationError agrupa as violações detectadas pelas regras do modelo.
type PersistenceValidationError struct {
	Message    string
	Violations []FieldViolation
}

func (e *PersistenceValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

// UniqueConstraintError indica violação de unicidade no banco.
type UniqueConstraintError struct {
	Message    string
	Constraint string
	Violations []FieldViolation
	Err        error
}

func (e *UniqueConstraintError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

func (e *UniqueConstraintError) Unwrap() error { return e.Err }

// ValidStatus diz se s pode ser escrito como status final de uma resposta.
// Códigos 1xx são informativos e não fecham a resposta.
func ValidStatus(s int) bool {
	return s >= 200 && s <= 599
}

// StatusFor devolve o status padrão de cada Kind. HttpError não tem padrão
// fixo; o valor devolvido é usado só quando o erro carrega status inválido.
func StatusFor(k Kind) int {
	switch k {
	case KindValidation, KindPersistenceValidation:
		return http.StatusBadRequest
	case KindUniqueConstraint:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindHTTP:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
