package infra

import (
	"context"
	"sync"
	"time"

	"service-runtime/middleware/reqctx/domain"
)

type Counters struct {
	Requests int64         `json:"requests"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

func (c *Counters) add(ev domain.CompletionEvent) {
	c.Requests++
	if ev.Failed() {
		c.Failed++
	}
	c.Duration += ev.Duration
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu       sync.Mutex
	total    Counters
	byRoute  map[string]Counters
	byStatus map[int]int64
	byClass  map[string]int64

	recent    []domain.CompletionEvent
	keepLastN int
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithKeepLast guarda os últimos n eventos (0 desliga).
func WithKeepLast(n int) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.keepLastN = n }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute:  make(map[string]Counters),
		byStatus: make(map[int]int64),
		byClass:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.CompletionEvent) error {
	route := ev.Route
	if route == "" {
		route = ev.Path
	}
	route = ev.Method + " " + route

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)
	c := s.byRoute[route]
	c.add(ev)
	s.byRoute[route] = c
	s.byStatus[ev.Status]++
	s.byClass[ev.StatusClass()]++

	if s.keepLastN > 0 {
		s.recent = append(s.recent, ev)
		if over := len(s.recent) - s.keepLastN; over > 0 {
			s.recent = append(s.recent[:0], s.recent[over:]...)
		}
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByStatus() map[int]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int64, len(s.byStatus))
	for k, v := range s.byStatus {
		out[k] = v
	}
	return out
}

// ByStatusClass agrupa por "2xx", "4xx", etc.
func (s *MemoryStatsStore) ByStatusClass() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byClass))
	for k, v := range s.byClass {
		out[k] = v
	}
	return out
}

// Snapshot é a visão serializável usada pelo endpoint de estatísticas.
type Snapshot struct {
	Total         Counters            `json:"total"`
	ByRoute       map[string]Counters `json:"by_route"`
	ByStatusClass map[string]int64    `json:"by_status_class"`
}

func (s *MemoryStatsStore) Snapshot() Snapshot {
	return Snapshot{Total: s.Total(), ByRoute: s.ByRoute(), ByStatusClass: s.ByStatusClass()}
}

// Recent devolve uma cópia dos últimos eventos, do mais antigo ao mais novo.
func (s *MemoryStatsStore) Recent() []domain.CompletionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CompletionEvent, len(s.recent))
	copy(out, s.recent)
	return out
}
