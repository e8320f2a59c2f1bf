package application

import (
	"time"

	"service-runtime/middleware/admission/domain"
)

const defaultRetryAfter = time.Second

// RateService decide pelo token bucket da chave.
type RateService struct {
	Buckets    domain.BucketStore
	RetryAfter time.Duration
}

func (s RateService) Decide(key domain.Key) domain.Verdict {
	if s.Buckets == nil {
		return domain.Admit()
	}
	b := s.Buckets.Bucket(key)
	if b == nil || b.Allow() {
		return domain.Admit()
	}

	retry := s.RetryAfter
	if retry <= 0 {
		retry = defaultRetryAfter
	}
	return domain.Verdict{Reason: domain.ReasonRate, RetryAfter: retry}
}
