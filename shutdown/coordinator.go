package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"service-runtime/logging"
)

// Coordinator é o dono do estado de encerramento do processo.
type Coordinator struct {
	cfg Config

	phase atomic.Int32

	mu        sync.Mutex
	resources []registration
	results   []ResourceResult
	result    Result
	started   time.Time

	finishOnce sync.Once
	done       chan struct{}

	// runCtx é cancelado no gatilho; goroutines de Go o recebem.
	runCtx    context.Context
	runCancel context.CancelFunc
}

func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Exit == nil {
		cfg.Exit = os.Exit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:       cfg,
		done:      make(chan struct{}),
		runCtx:    ctx,
		runCancel: cancel,
	}
}

// Register adiciona um recurso. A ordem de registro é a ordem de limpeza.
// Registros depois do gatilho são ignorados.
func (c *Coordinator) Register(name string, r Resource) {
	if r == nil {
		return
	}
	c.mu.Lock()
	if p := c.Phase(); p != Running {
		c.mu.Unlock()
		c.cfg.Logger.Warnf("ignoring shutdown registration of %s: already %s", name, p)
		return
	}
	c.resources = append(c.resources, registration{name: name, resource: r})
	c.mu.Unlock()
}

func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, ResourceFunc(fn))
}

// Trigger inicia o encerramento. Devolve false se já havia começado.
func (c *Coordinator) Trigger(reason string) bool {
	// fase e cópia dos registros sob o mesmo lock de Register
	c.mu.Lock()
	if !c.phase.CompareAndSwap(int32(Running), int32(Draining)) {
		c.mu.Unlock()
		return false
	}
	c.started = time.Now()
	regs := make([]registration, len(c.resources))
	copy(regs, c.resources)
	c.mu.Unlock()
	c.runCancel()

	c.cfg.Logger.Infof("Received %s, shutting down...", reason)

	go c.run(reason, regs)
	return true
}

// run é a corrida entre a limpeza sequencial e o timer de prazo.
func (c *Coordinator) run(reason string, regs []registration) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Deadline)
	defer cancel()

	timer := time.AfterFunc(c.cfg.Deadline, func() {
		c.cfg.Logger.Error("Force exit: shutdown timeout")
		c.finish(reason, 1, ErrTimeout)
	})

	err := c.cleanup(ctx, regs)
	if !timer.Stop() {
		// o prazo já venceu; finish do timer ganhou
		return
	}
	if err != nil {
		c.cfg.Logger.Errorf("Shutdown error: %v", err)
		c.finish(reason, 1, err)
		return
	}
	c.finish(reason, 0, nil)
}

func (c *Coordinator) cleanup(ctx context.Context, regs []registration) error {
	for _, reg := range regs {
		if ctx.Err() != nil {
			return ErrTimeout
		}
		c.cfg.Logger.Infof("Shutting down %s...", reg.name)

		start := time.Now()
		err := reg.resource.Shutdown(ctx)
		rr := ResourceResult{Name: reg.name, Duration: time.Since(start), Err: err}

		c.mu.Lock()
		c.results = append(c.results, rr)
		c.mu.Unlock()
		if c.cfg.OnProgress != nil {
			c.cfg.OnProgress(rr)
		}

		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrResourceFailed, reg.name, err)
		}
		c.cfg.Logger.Infof("%s shutdown completed", reg.name)
	}
	return nil
}

func (c *Coordinator) finish(reason string, code int, err error) {
	c.finishOnce.Do(func() {
		c.phase.Store(int32(Terminated))

		c.mu.Lock()
		results := make([]ResourceResult, len(c.results))
		copy(results, c.results)
		c.result = Result{
			Reason:        reason,
			Code:          code,
			Resources:     results,
			Err:           err,
			TotalDuration: time.Since(c.started),
		}
		res := c.result
		c.mu.Unlock()

		if c.cfg.OnComplete != nil {
			c.cfg.OnComplete(res)
		}
		_ = c.cfg.Logger.Sync()

		c.cfg.Exit(code)
		close(c.done)
	})
}

// Fatal loga err com a tag e dispara o encerramento. É o destino de falhas
// que não pertencem a nenhuma requisição.
func (c *Coordinator) Fatal(tag string, err error) {
	c.cfg.Logger.Errorf("[%s] %v", tag, err)
	c.Trigger(tag)
}

// Go roda fn numa goroutine supervisionada. Erro devolvido vira
// unhandledRejection e pânico vira uncaughtException; os dois encerram o
// processo. context.Canceled depois do gatilho não conta como falha.
func (c *Coordinator) Go(name string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				c.Fatal(TagUncaughtException, fmt.Errorf("%s: panic: %v", name, rec))
			}
		}()
		err := fn(c.runCtx)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) && c.runCtx.Err() != nil {
			return
		}
		c.Fatal(TagUnhandledRejection, fmt.Errorf("%s: %w", name, err))
	}()
}

// Context é cancelado assim que o encerramento começa.
func (c *Coordinator) Context() context.Context { return c.runCtx }

func (c *Coordinator) Phase() Phase { return Phase(c.phase.Load()) }

// Accepting indica se novas requisições devem ser aceitas.
func (c *Coordinator) Accepting() bool { return c.Phase() == Running }

// Done fecha depois que Exit retorna (só acontece com Exit injetado).
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Wait bloqueia até o fim e devolve o código de saída.
func (c *Coordinator) Wait() int {
	<-c.done
	return c.Result().Code
}

// Result é válido depois de Done.
func (c *Coordinator) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
