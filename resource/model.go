package resource

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	errdomain "service-runtime/middleware/errhandler/domain"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusArchived }

// Limites do modelo.
const (
	MaxNameLen        = 200
	MaxDescriptionLen = 2000
)

// ErrNotFound é devolvido pelo Store quando o id não existe.
var ErrNotFound = errors.New("resource not found")

type Resource struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Status      Status    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Patch carrega só os campos enviados. SetDescription com Description nil
// grava NULL.
type Patch struct {
	Name           *string
	SetDescription bool
	Description    *string
	Status         *Status
}

func (p Patch) Empty() bool {
	return p.Name == nil && !p.SetDescription && p.Status == nil
}

func (p Patch) apply(r *Resource) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.SetDescription {
		r.Description = p.Description
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}

// Filter são os filtros da listagem.
type Filter struct {
	Status      Status
	Query       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// validateModel aplica as regras da camada de persistência. Roda antes de
// qualquer INSERT/UPDATE, independente do schema da requisição.
func validateModel(r Resource) error {
	var vs []errdomain.FieldViolation

	if strings.TrimSpace(r.Name) == "" {
		vs = append(vs, violation("name", r.Name, "notEmpty"))
	} else if utf8.RuneCountInString(r.Name) > MaxNameLen {
		vs = append(vs, violation("name", r.Name, "len"))
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > MaxDescriptionLen {
		vs = append(vs, violation("description", *r.Description, "len"))
	}
	if !r.Status.Valid() {
		vs = append(vs, violation("status", string(r.Status), "isIn"))
	}

	if len(vs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(vs))
	for _, v := range vs {
		msgs = append(msgs, "Validation error: "+v.Message)
	}
	return &errdomain.PersistenceValidationError{
		Message:    strings.Join(msgs, ",\n"),
		Violations: vs,
	}
}

func violation(path string, value any, rule string) errdomain.FieldViolation {
	return errdomain.FieldViolation{
		Message: "Validation " + rule + " on " + path + " failed",
		Path:    path,
		Value:   value,
		Rule:    rule,
	}
}
