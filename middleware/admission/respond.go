package admission

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"service-runtime/middleware/admission/domain"
	"service-runtime/middleware/errhandler"
	"service-runtime/middleware/errhandler/application"
	errdomain "service-runtime/middleware/errhandler/domain"
	"service-runtime/middleware/reqctx"
)

// Mensagens das recusas.
const (
	MessageRateLimited = "Too many requests"
	MessageBusy        = "Server is busy"
	MessageDraining    = "Service is shutting down"
)

func rendererOrDefault(rd *errhandler.Renderer) *errhandler.Renderer {
	if rd != nil {
		return rd
	}
	return errhandler.NewRenderer(application.Classifier{})
}

func reject(rd *errhandler.Renderer, sink domain.RejectionSink, w http.ResponseWriter, r *http.Request,
	key domain.Key, v domain.Verdict, status int, msg string) {
	if sink != nil {
		_ = sink.Rejected(r.Context(), domain.RejectionEvent{
			Key:       key,
			Reason:    v.Reason,
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: reqctx.RequestID(r.Context()),
			At:        time.Now(),
		})
	}
	if v.RetryAfter > 0 {
		w.Header().Set("Retry-After", retryAfterSeconds(v.RetryAfter))
	}
	rd.Error(w, r, errdomain.NewHTTPError(status, msg))
}

// retryAfterSeconds arredonda para cima; o header só aceita segundos inteiros.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
