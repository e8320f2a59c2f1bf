package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"service-runtime/logging"
	"service-runtime/middleware/errhandler/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newClassifier() (Classifier, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return Classifier{Logger: logging.NewFromZap(zap.New(core))}, logs
}

type createRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
}

func jsonValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func TestClassify_RequestValidationFromValidator(t *testing.T) {
	c, _ := newClassifier()

	err := jsonValidator().Struct(createRequest{Status: "deleted"})
	require.Error(t, err)

	env := c.Classify(context.Background(), fmt.Errorf("decode body: %w", err))

	assert.Equal(t, domain.KindValidation, env.Kind)
	assert.Equal(t, 400, env.Status)
	assert.Equal(t, domain.MessageInvalidRequest, env.Message)
	require.Len(t, env.Issues, 2)
	assert.Equal(t, []string{"name"}, env.Issues[0].Path)
	assert.Equal(t, "required", env.Issues[0].Code)
	assert.Equal(t, []string{"status"}, env.Issues[1].Path)
	assert.Equal(t, "Must be one of: active, archived", env.Issues[1].Message)
}

func TestClassify_EachKind(t *testing.T) {
	c, _ := newClassifier()
	ctx := context.Background()

	rv := &domain.RequestValidationError{Issues: []domain.Issue{{Code: "invalid_type", Path: []string{"id"}, Message: "Expected number"}}}
	assert.Equal(t, domain.KindValidation, c.Classify(ctx, rv).Kind)

	env := c.Classify(ctx, domain.NewHTTPError(404, "Resource not found"))
	assert.Equal(t, domain.KindHTTP, env.Kind)
	assert.Equal(t, 404, env.Status)
	assert.Equal(t, "Resource not found", env.Message)

	pv := &domain.PersistenceValidationError{Violations: []domain.FieldViolation{{Message: "m", Path: "name", Value: "", Rule: "notEmpty"}}}
	env = c.Classify(ctx, pv)
	assert.Equal(t, domain.KindPersistenceValidation, env.Kind)
	assert.Equal(t, 400, env.Status)
	assert.Equal(t, "Validation error", env.Message)
	assert.Equal(t, []domain.FieldViolation{{Message: "m", Path: "name", Value: "", Rule: "notEmpty"}}, env.Details)

	uc := &domain.UniqueConstraintError{Violations: []domain.FieldViolation{{Message: "name must be unique", Path: "name", Value: "a", Rule: "not_unique"}}}
	env = c.Classify(ctx, uc)
	assert.Equal(t, domain.KindUniqueConstraint, env.Kind)
	assert.Equal(t, 409, env.Status)
	assert.Equal(t, []domain.FieldViolation{{Message: "name must be unique", Path: "name", Value: "a"}}, env.Details)
}

func TestClassify_PrecedenceWhenSeveralMatch(t *testing.T) {
	c, _ := newClassifier()
	ctx := context.Background()

	rv := &domain.RequestValidationError{}
	he := domain.NewHTTPError(418, "teapot")
	pv := &domain.PersistenceValidationError{}
	uc := &domain.UniqueConstraintError{}

	assert.Equal(t, domain.KindValidation, c.Classify(ctx, errors.Join(uc, pv, he, rv)).Kind)
	assert.Equal(t, domain.KindHTTP, c.Classify(ctx, errors.Join(uc, pv, he)).Kind)
	assert.Equal(t, domain.KindPersistenceValidation, c.Classify(ctx, errors.Join(uc, pv)).Kind)
	assert.Equal(t, domain.KindUniqueConstraint, c.Classify(ctx, errors.Join(uc)).Kind)
}

func TestClassify_UnknownIsInternalAndOnlyLogged(t *testing.T) {
	c, logs := newClassifier()

	env := c.Classify(context.Background(), errors.New("db password is hunter2"))

	assert.Equal(t, domain.Internal(), env)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "hunter2")
}

func TestClassify_UsesRequestLoggerFromContext(t *testing.T) {
	c, fallbackLogs := newClassifier()
	core, reqLogs := observer.New(zap.DebugLevel)
	ctx := logging.NewContext(context.Background(), logging.Prefixed(logging.NewFromZap(zap.New(core)), "[abc]"))

	c.Classify(ctx, errors.New("boom"))

	assert.Equal(t, 0, fallbackLogs.Len())
	require.Equal(t, 1, reqLogs.Len())
	assert.Equal(t, "[abc] Unhandled error: boom", reqLogs.All()[0].Message)
}

type panickyError struct{}

func (panickyError) Error() string { panic("no message for you") }

func TestClassify_IsTotal(t *testing.T) {
	c, _ := newClassifier()
	ctx := context.Background()

	var typedNil *domain.HTTPError
	cases := []error{nil, typedNil, panickyError{}, &domain.PersistenceValidationError{}}
	for _, err := range cases[:3] {
		assert.NotPanics(t, func() {
			env := c.Classify(ctx, err)
			assert.Equal(t, domain.KindInternal, env.Kind)
		})
	}
	assert.Equal(t, domain.KindPersistenceValidation, c.Classify(ctx, cases[3]).Kind)
}

func TestClassify_Deterministic(t *testing.T) {
	c, _ := newClassifier()
	err := errors.Join(domain.NewHTTPError(422, "x").WithDetails([]string{"a"}), &domain.UniqueConstraintError{})

	first := c.Classify(context.Background(), err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(context.Background(), err))
	}
}

func TestClassify_HTTPErrorWithInvalidStatus(t *testing.T) {
	c, _ := newClassifier()
	for _, status := range []int{0, 101, 600, 999} {
		env := c.Classify(context.Background(), &domain.HTTPError{Status: status})
		assert.Equal(t, 500, env.Status, "status %d", status)
		assert.Equal(t, "Internal Server Error", env.Message)
	}
}

func TestClassify_HTTPErrorKeepsCarriedStatus(t *testing.T) {
	c, _ := newClassifier()
	for _, status := range []int{200, 302, 418, 503} {
		env := c.Classify(context.Background(), domain.NewHTTPError(status, "carried"))
		assert.Equal(t, domain.KindHTTP, env.Kind)
		assert.Equal(t, status, env.Status)
		assert.Equal(t, "carried", env.Message)
	}
}

func TestClassify_OnClassifiedHook(t *testing.T) {
	var seen []domain.Kind
	c := Classifier{OnClassified: func(_ context.Context, env domain.Envelope) { seen = append(seen, env.Kind) }}

	c.Classify(context.Background(), domain.NewHTTPError(400, "x"))
	c.Classify(context.Background(), errors.New("y"))

	assert.Equal(t, []domain.Kind{domain.KindHTTP, domain.KindInternal}, seen)
}
