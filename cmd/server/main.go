package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"service-runtime/config"
	"service-runtime/logging"
	"service-runtime/metrics"
	admissiondomain "service-runtime/middleware/admission/domain"
	admissioninfra "service-runtime/middleware/admission/infra"
	"service-runtime/middleware/errhandler"
	"service-runtime/middleware/errhandler/application"
	reqdomain "service-runtime/middleware/reqctx/domain"
	reqinfra "service-runtime/middleware/reqctx/infra"
	"service-runtime/resource"
	"service-runtime/shutdown"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal startup error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal startup error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, os.Exit); err != nil {
		logger.Errorf("Fatal startup error: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run sobe o servidor e bloqueia até o coordinator terminar. Só devolve erro
// para falhas de inicialização.
func run(cfg config.Config, logger logging.Logger, exit func(code int)) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	m := metrics.New("")
	coord := shutdown.NewCoordinator(shutdown.Config{
		Deadline:   cfg.ShutdownDeadline,
		Logger:     logger,
		Exit:       exit,
		OnProgress: m.ObserveResource,
		OnComplete: m.ObserveShutdown,
	})

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := resource.Open(startCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if cfg.ShouldMigrate() {
		if err := resource.Migrate(db.DB, logger); err != nil {
			_ = db.Close()
			return err
		}
	}
	store := resource.NewPostgresStore(db)

	var sinks []reqdomain.CompletionSink
	var rdb *redis.Client
	if cfg.Stats.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		pingCtx, cancelPing := context.WithTimeout(startCtx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			_ = rdb.Close()
			_ = db.Close()
			return fmt.Errorf("redis stats ping: %w", err)
		}
		sinks = append(sinks, reqinfra.NewRedisStatsStore(rdb,
			reqinfra.WithStatsPrefix(cfg.Stats.Prefix),
			reqinfra.WithStatsTTL(cfg.Stats.TTL),
		))
	}

	var buckets admissiondomain.BucketStore
	var bucketStore *admissioninfra.BucketStore
	if cfg.Rate.Enabled {
		bucketStore = admissioninfra.NewBucketStore(cfg.Rate.RPS, cfg.Rate.Burst)
		bucketStore.Start(coord.Context())
		buckets = bucketStore
	}

	var slots admissiondomain.SlotPool
	if cfg.Concurrency.Max > 0 {
		slots = admissioninfra.NewSlotPool(cfg.Concurrency.Max)
		m.WatchSlots(slots)
	}

	renderer := errhandler.NewRenderer(application.Classifier{
		Logger:       logger,
		OnClassified: m.ObserveError,
	})

	srv := &http.Server{
		Addr: cfg.ListenAddr(),
		Handler: newRouter(deps{
			cfg:      cfg,
			logger:   logger,
			renderer: renderer,
			metrics:  m,
			gate:     coord,
			buckets:  buckets,
			slots:    slots,
			store:    store,
			sinks:    sinks,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// ordem de registro = ordem de encerramento
	coord.Register("HTTP server", shutdown.ResourceFunc(srv.Shutdown))
	if bucketStore != nil {
		coord.Register("rate limiter", bucketStore)
	}
	if rdb != nil {
		coord.RegisterFunc("stats redis", func(context.Context) error { return rdb.Close() })
	}
	coord.Register("database", store)

	stop := coord.HandleSignals()
	defer stop()

	coord.Go("http server", func(context.Context) error {
		logger.Infof("Server listening on port %d (%s)", cfg.Port, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	<-coord.Done()
	return nil
}
