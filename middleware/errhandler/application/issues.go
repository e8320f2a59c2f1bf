package application

import (
	"fmt"
	"strings"

	"service-runtime/middleware/errhandler/domain"

	"github.com/go-playground/validator/v10"
)

// IssuesFromValidator converte as falhas do validator em Issues.
//
// O path ignora o nome do struct raiz, então com um RegisterTagNameFunc que
// devolve a tag json os caminhos ficam iguais aos campos do corpo.
func IssuesFromValidator(errs validator.ValidationErrors) []domain.Issue {
	out := make([]domain.Issue, 0, len(errs))
	for _, fe := range errs {
		out = append(out, domain.Issue{
			Code:    fe.Tag(),
			Path:    issuePath(fe.Namespace()),
			Message: issueMessage(fe),
		})
	}
	return out
}

func issuePath(namespace string) []string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return parts
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "gt", "gte":
		return fmt.Sprintf("Must be greater than %s", orEqual(fe.Tag(), fe.Param()))
	case "lt", "lte":
		return fmt.Sprintf("Must be less than %s", orEqual(fe.Tag(), fe.Param()))
	case "datetime", "rfc3339":
		return "Invalid datetime"
	case "numeric", "number":
		return "Expected number"
	default:
		return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
	}
}

func orEqual(tag, param string) string {
	if strings.HasSuffix(tag, "e") {
		return "or equal to " + param
	}
	return param
}
