package errhandler

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"service-runtime/logging"
	"service-runtime/middleware/errhandler/application"
)

// HandlerFunc é um handler de negócio que devolve a falha em vez de
// renderizá-la.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Renderer liga o Classifier ao net/http.
type Renderer struct {
	Classifier application.Classifier
}

func NewRenderer(c application.Classifier) *Renderer {
	return &Renderer{Classifier: c}
}

// Error classifica err e escreve o envelope.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	Respond(w, rd.Classifier.Classify(r.Context(), err))
}

// Handle adapta fn para http.Handler. Se fn falhar depois de já ter começado
// a resposta, a falha só é logada.
func (rd *Renderer) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := track(w)
		err := fn(tw, r)
		if err == nil {
			return
		}
		if tw.started {
			rd.logger(r).Errorf("error after response started: %v", err)
			return
		}
		rd.Error(tw, r, err)
	})
}

// Recover converte pânicos da cadeia em InternalServerError.
// http.ErrAbortHandler é repassado.
func (rd *Renderer) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := track(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			err = fmt.Errorf("panic: %w", err)
			rd.logger(r).Debugf("panic stack:\n%s", debug.Stack())
			if tw.started {
				rd.logger(r).Errorf("%v (response already started)", err)
				return
			}
			rd.Error(tw, r, err)
		}()
		next.ServeHTTP(tw, r)
	})
}

func (rd *Renderer) logger(r *http.Request) logging.Logger {
	return logging.FromContextOr(r.Context(), rd.Classifier.Logger)
}
