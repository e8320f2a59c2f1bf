package infra

import (
	"context"
	"sync/atomic"

	"service-runtime/middleware/admission/domain"
)

type slotPool struct {
	sem      chan struct{}
	inFlight atomic.Int64
}

// NewSlotPool cria um pool de vagas com capacidade max.
func NewSlotPool(max int) domain.SlotPool {
	return &slotPool{sem: make(chan struct{}, max)}
}

func (p *slotPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}
	p.inFlight.Add(1)

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			p.inFlight.Add(-1)
			<-p.sem
		}
	}, true
}

func (p *slotPool) InFlight() int { return int(p.inFlight.Load()) }
func (p *slotPool) Cap() int      { return cap(p.sem) }
