package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"service-runtime/middleware/admission/domain"

	"golang.org/x/time/rate"
)

// BucketStore guarda um token bucket por chave e descarta as chaves ociosas.
type BucketStore struct {
	mu      sync.Mutex
	buckets map[domain.Key]*bucket
	limit   rate.Limit
	burst   int

	idleTTL    time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type BucketOption func(*BucketStore)

// WithIdleTTL define depois de quanto tempo sem uso a chave é descartada.
func WithIdleTTL(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.idleTTL = d }
}

// WithSweepEvery define o intervalo do janitor. Zero desliga.
func WithSweepEvery(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.sweepEvery = d }
}

func withClock(now func() time.Time) BucketOption {
	return func(s *BucketStore) { s.now = now }
}

func NewBucketStore(rps float64, burst int, opts ...BucketOption) *BucketStore {
	s := &BucketStore{
		buckets:    make(map[domain.Key]*bucket),
		limit:      rate.Limit(rps),
		burst:      burst,
		idleTTL:    15 * time.Minute,
		sweepEvery: 2 * time.Minute,
		now:        time.Now,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BucketStore) RPS() float64 { return float64(s.limit) }
func (s *BucketStore) Burst() int   { return s.burst }

// Bucket implementa domain.BucketStore.
func (s *BucketStore) Bucket(key domain.Key) domain.Limiter {
	return s.limiter(key)
}

func (s *BucketStore) limiter(key domain.Key) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[key]; ok {
		b.lastSeen = now
		return b.lim
	}
	b := &bucket{lim: rate.NewLimiter(s.limit, s.burst), lastSeen: now}
	s.buckets[key] = b
	return b.lim
}

// Tokens devolve os tokens disponíveis para key sem consumir nenhum.
func (s *BucketStore) Tokens(key domain.Key) float64 {
	return s.limiter(key).TokensAt(s.now())
}

// Len devolve quantas chaves estão em memória.
func (s *BucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Sweep descarta chaves sem uso há mais de idleTTL e devolve quantas saíram.
func (s *BucketStore) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, k)
			n++
		}
	}
	return n
}

// Start roda o janitor até ctx encerrar ou Shutdown ser chamado.
func (s *BucketStore) Start(ctx context.Context) {
	if s.sweepEvery <= 0 || !s.started.CompareAndSwap(false, true) {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer close(s.stopped)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}

// Shutdown para o janitor e espera ele sair. Implementa shutdown.Resource.
func (s *BucketStore) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
