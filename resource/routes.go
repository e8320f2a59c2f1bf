package resource

import (
	"encoding/json"
	"errors"
	"net/http"

	"service-runtime/logging"
	"service-runtime/middleware/errhandler"
	errdomain "service-runtime/middleware/errhandler/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// DefaultBodyLimit é o teto do corpo JSON.
const DefaultBodyLimit int64 = 1 << 20

type Handler struct {
	Store     Store
	Validate  *validator.Validate
	Renderer  *errhandler.Renderer
	BodyLimit int64
}

// Routes monta o router de /resources.
func Routes(h *Handler) chi.Router {
	if h.Validate == nil {
		h.Validate = NewValidator()
	}
	if h.BodyLimit <= 0 {
		h.BodyLimit = DefaultBodyLimit
	}
	rd := h.Renderer
	if rd == nil {
		rd = &errhandler.Renderer{}
	}

	r := chi.NewRouter()
	r.Method(http.MethodPost, "/", rd.Handle(h.create))
	r.Method(http.MethodGet, "/", rd.Handle(h.list))
	r.Method(http.MethodGet, "/{id}", rd.Handle(h.get))
	r.Method(http.MethodPatch, "/{id}", rd.Handle(h.update))
	r.Method(http.MethodDelete, "/{id}", rd.Handle(h.delete))
	return r
}

// view é a representação JSON de Resource.
type view struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      Status  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

const isoMillis = "2006-01-02T15:04:05.000Z"

func toView(r Resource) view {
	return view{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.UTC().Format(isoMillis),
		UpdatedAt:   r.UpdatedAt.UTC().Format(isoMillis),
	}
}

type listResponse struct {
	Data   []view `json:"data"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Count  int    `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

var errResourceNotFound = errdomain.NewHTTPError(http.StatusNotFound, "Resource not found")

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return errResourceNotFound
	}
	return err
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) error {
	in, err := h.parseCreate(r)
	if err != nil {
		return err
	}
	out, err := h.Store.Create(r.Context(), in)
	if err != nil {
		return err
	}
	logging.FromContext(r.Context()).Infof("Created resource id=%d", out.ID)
	return writeJSON(w, http.StatusCreated, toView(out))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) error {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		return err
	}
	rows, count, err := h.Store.List(r.Context(), f)
	if err != nil {
		return err
	}
	data := make([]view, 0, len(rows))
	for _, row := range rows {
		data = append(data, toView(row))
	}
	return writeJSON(w, http.StatusOK, listResponse{Data: data, Limit: f.Limit, Offset: f.Offset, Count: count})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	out, err := h.Store.Get(r.Context(), id)
	if err != nil {
		return notFound(err)
	}
	return writeJSON(w, http.StatusOK, toView(out))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	p, err := h.parsePatch(r)
	if err != nil {
		return err
	}
	out, err := h.Store.Update(r.Context(), id, p)
	if err != nil {
		return notFound(err)
	}
	logging.FromContext(r.Context()).Infof("Updated resource id=%d", out.ID)
	return writeJSON(w, http.StatusOK, toView(out))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		return notFound(err)
	}
	logging.FromContext(r.Context()).Infof("Deleted resource id=%d", id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
