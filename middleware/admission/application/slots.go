package application

import (
	"context"
	"time"

	"service-runtime/middleware/admission/domain"
)

// SlotService adquire vagas do pool com timeout opcional.
type SlotService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por uma vaga. Sem AcquireTimeout espera até ctx encerrar.
// Quando a vaga não vem, o Verdict explica o motivo e release é nil.
func (s SlotService) Acquire(ctx context.Context) (release func(), v domain.Verdict) {
	if s.Pool == nil {
		return func() {}, domain.Admit()
	}

	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, domain.Verdict{Reason: domain.ReasonCapacity}
	}
	return release, domain.Admit()
}
