package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"service-runtime/logging"
	"service-runtime/middleware/errhandler/domain"

	"github.com/go-playground/validator/v10"
)

// matcher tenta reconhecer err. A ordem da lista é a precedência.
type matcher func(err error) (domain.Envelope, bool)

var matchers = []matcher{
	matchRequestValidation,
	matchHTTP,
	matchPersistenceValidation,
	matchUniqueConstraint,
}

// Classifier transforma qualquer erro em exatamente um Envelope.
type Classifier struct {
	// Logger é usado quando o ctx não traz o logger da requisição.
	Logger logging.Logger
	// OnClassified é chamado com cada envelope produzido (ex: métricas).
	OnClassified func(ctx context.Context, env domain.Envelope)
}

// Classify nunca falha e nunca entra em pânico: o que não for reconhecido
// vira InternalServerError, e o erro original só aparece no log.
func (c Classifier) Classify(ctx context.Context, err error) (env domain.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger(ctx).Errorf("error classification failed: %v (original: %s)", rec, describe(err))
			env = domain.Internal()
		}
		if c.OnClassified != nil {
			c.OnClassified(ctx, env)
		}
	}()

	if err == nil {
		c.logger(ctx).Error("nil error reached the error handler")
		return domain.Internal()
	}

	for _, m := range matchers {
		if env, ok := m(err); ok {
			return env
		}
	}

	c.logger(ctx).Errorf("Unhandled error: %v", err)
	return domain.Internal()
}

func (c Classifier) logger(ctx context.Context) logging.Logger {
	return logging.FromContextOr(ctx, c.Logger)
}

// describe formata err sem confiar que Error() funcione.
func describe(err error) (s string) {
	defer func() {
		if recover() != nil {
			s = fmt.Sprintf("%T", err)
		}
	}()
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func matchRequestValidation(err error) (domain.Envelope, bool) {
	var rv *domain.RequestValidationError
	if errors.As(err, &rv) && rv != nil {
		return validationEnvelope(rv.Issues), true
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return validationEnvelope(IssuesFromValidator(ve)), true
	}
	return domain.Envelope{}, false
}

func validationEnvelope(issues []domain.Issue) domain.Envelope {
	return domain.Envelope{
		Kind:    domain.KindValidation,
		Status:  http.StatusBadRequest,
		Message: domain.MessageInvalidRequest,
		Issues:  issues,
	}
}

func matchHTTP(err error) (domain.Envelope, bool) {
	var he *domain.HTTPError
	if !errors.As(err, &he) || he == nil {
		return domain.Envelope{}, false
	}
	status := he.Status
	if !domain.ValidStatus(status) {
		status = domain.StatusFor(domain.KindHTTP)
	}
	msg := he.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return domain.Envelope{Kind: domain.KindHTTP, Status: status, Message: msg, Details: he.Details}, true
}

func matchPersistenceValidation(err error) (domain.Envelope, bool) {
	var pv *domain.PersistenceValidationError
	if !errors.As(err, &pv) || pv == nil {
		return domain.Envelope{}, false
	}
	return domain.Envelope{
		Kind:    domain.KindPersistenceValidation,
		Status:  http.StatusBadRequest,
		Message: pv.Error(),
		Details: violations(pv.Violations, true),
	}, true
}

func matchUniqueConstraint(err error) (domain.Envelope, bool) {
	var uc *domain.UniqueConstraintError
	if !errors.As(err, &uc) || uc == nil {
		return domain.Envelope{}, false
	}
	return domain.Envelope{
		Kind:    domain.KindUniqueConstraint,
		Status:  http.StatusConflict,
		Message: uc.Error(),
		Details: violations(uc.Violations, false),
	}, true
}

// violations copia a lista; sem rule quando o Kind não expõe validatorKey.
func violations(in []domain.FieldViolation, withRule bool) []domain.FieldViolation {
	out := make([]domain.FieldViolation, 0, len(in))
	for _, v := range in {
		if !withRule {
			v.Rule = ""
		}
		out = append(out, v)
	}
	return out
}
