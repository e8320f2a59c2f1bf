package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"service-runtime/logging"
	"service-runtime/middleware/admission"
	admissioninfra "service-runtime/middleware/admission/infra"
	"service-runtime/middleware/errhandler"
	"service-runtime/middleware/errhandler/application"
	errdomain "service-runtime/middleware/errhandler/domain"
	"service-runtime/middleware/reqctx"
	reqdomain "service-runtime/middleware/reqctx/domain"
	reqinfra "service-runtime/middleware/reqctx/infra"
	"service-runtime/shutdown"
)

func main() {
	// Exemplo: a pilha do runtime direto num http.ServeMux, sem banco
	logger, err := logging.New(logging.Config{Level: "debug"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	coord := shutdown.NewCoordinator(shutdown.Config{Deadline: 5 * time.Second, Logger: logger})
	rd := errhandler.NewRenderer(application.Classifier{Logger: logger})

	buckets := admissioninfra.NewBucketStore(5, 10)
	buckets.Start(coord.Context())

	stats := reqinfra.NewMemoryStatsStore(reqinfra.WithKeepLast(50))
	h := newHandler(logger, coord, rd, buckets, stats)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	coord.Register("HTTP server", shutdown.ResourceFunc(srv.Shutdown))
	coord.Register("rate limiter", buckets)

	stop := coord.HandleSignals()
	defer stop()

	coord.Go("http server", func(context.Context) error {
		logger.Infof("example server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Exit padrão é os.Exit; Wait só volta se o Exit for trocado
	os.Exit(coord.Wait())
}

// newHandler monta a pilha do runtime sobre um ServeMux. As conclusões vão
// para stats, exposto em GET /stats.
func newHandler(logger logging.Logger, coord *shutdown.Coordinator, rd *errhandler.Renderer, buckets *admissioninfra.BucketStore, stats *reqinfra.MemoryStatsStore) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", rd.Handle(func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, err := w.Write([]byte(`{"ok":true}`))
		return err
	}))
	mux.Handle("GET /teapot", rd.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errdomain.NewHTTPError(http.StatusTeapot, "I'm a teapot")
	}))
	mux.Handle("GET /later", rd.Handle(func(w http.ResponseWriter, r *http.Request) error {
		// trabalho depois da resposta mantém o id da requisição
		ctx := reqctx.Detach(r.Context())
		time.AfterFunc(100*time.Millisecond, func() {
			logging.FromContext(ctx).Info("deferred work done")
		})
		w.WriteHeader(http.StatusAccepted)
		return nil
	}))
	mux.Handle("GET /stats", rd.Handle(func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		return json.NewEncoder(w).Encode(stats.Snapshot())
	}))
	mux.HandleFunc("/", errhandler.NotFound)

	h := http.Handler(mux)
	h = admission.ConcurrencyMiddleware(admission.ConcurrencyOptions{Max: 50, Renderer: rd})(h)
	h = admission.Middleware(admission.Options{
		Buckets:            buckets,
		Renderer:           rd,
		KeyHeader:          "X-Api-Key", // ou vazio para usar IP
		TrustXForwardedFor: true,
		RateLimitHeaders:   true,
	})(h)
	h = admission.DrainMiddleware(coord, rd)(h)
	h = rd.Recover(h)
	h = reqctx.Middleware(reqctx.Options{Logger: logger, Sinks: []reqdomain.CompletionSink{stats}})(h)
	return h
}
