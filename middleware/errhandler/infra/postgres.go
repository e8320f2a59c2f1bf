package infra

import (
	"errors"
	"regexp"
	"strings"

	"service-runtime/middleware/errhandler/domain"

	"github.com/lib/pq"
)

// Código SQLSTATE de unique_violation.
const pqUniqueViolation = "23505"

// "Key (name)=(foo) already exists."
var keyDetail = regexp.MustCompile(`^Key \((.+)\)=\((.*)\) already exists\.?$`)

// TranslatePostgres converte violação de unicidade do Postgres em
// *domain.UniqueConstraintError. Qualquer outro erro volta inalterado.
func TranslatePostgres(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr == nil || string(pqErr.Code) != pqUniqueViolation {
		return err
	}
	return &domain.UniqueConstraintError{
		Message:    "Validation error",
		Constraint: pqErr.Constraint,
		Violations: parseKeyDetail(pqErr.Detail),
		Err:        err,
	}
}

func parseKeyDetail(detail string) []domain.FieldViolation {
	m := keyDetail.FindStringSubmatch(strings.TrimSpace(detail))
	if m == nil {
		return nil
	}
	cols := strings.Split(m[1], ", ")
	vals := strings.Split(m[2], ", ")
	if len(cols) != len(vals) {
		vals = make([]string, len(cols))
	}
	out := make([]domain.FieldViolation, 0, len(cols))
	for i, col := range cols {
		out = append(out, domain.FieldViolation{
			Message: col + " must be unique",
			Path:    col,
			Value:   vals[i],
			Rule:    "not_unique",
		})
	}
	return out
}
