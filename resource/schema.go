package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"service-runtime/middleware/errhandler/application"
	errdomain "service-runtime/middleware/errhandler/domain"

	"github.com/go-playground/validator/v10"
)

// NewValidator devolve um validator que reporta os campos pelo nome json.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      Status  `json:"status" validate:"omitempty,oneof=active archived"`
}

// decodeJSON lê o corpo em dst. Corpo vazio vale como {}.
func decodeJSON(r *http.Request, limit int64, dst any) error {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(nil, r.Body, limit)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errdomain.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large")
		}
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &errdomain.RequestValidationError{Issues: []errdomain.Issue{{
				Code:    "invalid_type",
				Path:    fieldPath(typeErr.Field),
				Message: "Expected " + jsonKind(typeErr.Type),
			}}}
		}
		return errdomain.NewHTTPError(http.StatusBadRequest, "Malformed JSON body")
	}
	return nil
}

func fieldPath(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, ".")
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}

func (h *Handler) parseCreate(r *http.Request) (Resource, error) {
	var req CreateRequest
	if err := decodeJSON(r, h.BodyLimit, &req); err != nil {
		return Resource{}, err
	}
	if err := h.Validate.Struct(req); err != nil {
		return Resource{}, err
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}
	return Resource{Name: req.Name, Description: req.Description, Status: status}, nil
}

// parsePatch distingue campo ausente de campo null: description: null limpa
// a descrição; ausente mantém.
func (h *Handler) parsePatch(r *http.Request) (Patch, error) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(r, h.BodyLimit, &fields); err != nil {
		var rv *errdomain.RequestValidationError
		if errors.As(err, &rv) {
			return Patch{}, &errdomain.RequestValidationError{Issues: []errdomain.Issue{{
				Code: "invalid_type", Path: []string{}, Message: "Expected object",
			}}}
		}
		return Patch{}, err
	}

	var p Patch
	var issues []errdomain.Issue

	if raw, ok := fields["name"]; ok {
		var name string
		if json.Unmarshal(raw, &name) != nil {
			issues = append(issues, typeIssue("name", "string"))
		} else {
			issues = append(issues, h.varIssues("name", name, "min=1,max=200")...)
			p.Name = &name
		}
	}
	if raw, ok := fields["description"]; ok {
		p.SetDescription = true
		if string(raw) != "null" {
			var desc string
			if json.Unmarshal(raw, &desc) != nil {
				issues = append(issues, typeIssue("description", "string"))
			} else {
				issues = append(issues, h.varIssues("description", desc, "max=2000")...)
				p.Description = &desc
			}
		}
	}
	if raw, ok := fields["status"]; ok {
		var status string
		if json.Unmarshal(raw, &status) != nil {
			issues = append(issues, typeIssue("status", "string"))
		} else {
			issues = append(issues, h.varIssues("status", status, "oneof=active archived")...)
			st := Status(status)
			p.Status = &st
		}
	}

	if len(issues) > 0 {
		return Patch{}, &errdomain.RequestValidationError{Issues: issues}
	}
	if p.Empty() {
		return Patch{}, errdomain.NewHTTPError(http.StatusBadRequest, "No fields provided to update")
	}
	return p, nil
}

func (h *Handler) varIssues(path string, value any, tag string) []errdomain.Issue {
	err := h.Validate.Var(value, tag)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	issues := application.IssuesFromValidator(ve)
	for i := range issues {
		issues[i].Path = []string{path}
	}
	return issues
}

func typeIssue(path, want string) errdomain.Issue {
	return errdomain.Issue{Code: "invalid_type", Path: []string{path}, Message: "Expected " + want}
}

// Limites da listagem.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

func parseFilter(q url.Values) (Filter, error) {
	f := Filter{Limit: DefaultLimit}
	var issues []errdomain.Issue

	if q.Has("status") {
		f.Status = Status(q.Get("status"))
		if !f.Status.Valid() {
			issues = append(issues, errdomain.Issue{
				Code: "invalid_enum_value", Path: []string{"status"}, Message: "Must be one of: active, archived",
			})
		}
	}
	if q.Has("q") {
		f.Query = q.Get("q")
		if f.Query == "" {
			issues = append(issues, errdomain.Issue{Code: "too_small", Path: []string{"q"}, Message: "Must be at least 1"})
		}
	}
	for _, key := range []string{"createdFrom", "createdTo"} {
		if !q.Has(key) {
			continue
		}
		t, err := parseDate(q.Get(key))
		if err != nil {
			issues = append(issues, errdomain.Issue{Code: "invalid_date", Path: []string{key}, Message: "Invalid date"})
			continue
		}
		if key == "createdFrom" {
			f.CreatedFrom = &t
		} else {
			f.CreatedTo = &t
		}
	}
	if q.Has("limit") {
		n, issue := parseBoundedInt(q.Get("limit"), "limit", 1, MaxLimit)
		if issue != nil {
			issues = append(issues, *issue)
		}
		f.Limit = n
	}
	if q.Has("offset") {
		n, issue := parseBoundedInt(q.Get("offset"), "offset", 0, -1)
		if issue != nil {
			issues = append(issues, *issue)
		}
		f.Offset = n
	}

	if len(issues) > 0 {
		return Filter{}, &errdomain.RequestValidationError{Issues: issues}
	}
	return f, nil
}

// parseDate aceita RFC 3339 ou só a data (YYYY-MM-DD, meia-noite UTC).
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// parseBoundedInt valida lo <= n <= hi; hi < 0 desliga o teto.
func parseBoundedInt(s, path string, lo, hi int) (int, *errdomain.Issue) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &errdomain.Issue{Code: "invalid_type", Path: []string{path}, Message: "Expected integer"}
	}
	if n < lo {
		return n, &errdomain.Issue{Code: "too_small", Path: []string{path}, Message: "Must be at least " + strconv.Itoa(lo)}
	}
	if hi >= 0 && n > hi {
		return n, &errdomain.Issue{Code: "too_big", Path: []string{path}, Message: "Must be at most " + strconv.Itoa(hi)}
	}
	return n, nil
}

// parseID exige inteiro positivo.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &errdomain.RequestValidationError{Issues: []errdomain.Issue{{
			Code: "invalid_id", Path: []string{"id"}, Message: "Must be a positive integer",
		}}}
	}
	return id, nil
}
