package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"service-runtime/middleware/reqctx/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores de conclusão de requisições em hashes Redis:
//
//	<prefix>:total                 requests / failed / duration_us
//	<prefix>:minute:<yyyymmddhhmm> requests / failed / duration_us (expira em ttl)
//	<prefix>:route                 "<METHOD> <route>:requests" / ":failed"
//	<prefix>:status                "<code>"
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas nas chaves de série temporal.
	// total, route e status são cumulativos e não expiram.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "requests:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.CompletionEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	var failed int64
	if ev.Failed() {
		failed = 1
	}
	micros := ev.Duration.Microseconds()

	pipe := s.rdb.Pipeline()

	totalKey := s.prefix + ":total"
	pipe.HIncrBy(ctx, totalKey, "requests", 1)
	pipe.HIncrBy(ctx, totalKey, "failed", failed)
	pipe.HIncrBy(ctx, totalKey, "duration_us", micros)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, "requests", 1)
		pipe.HIncrBy(ctx, bucketKey, "failed", failed)
		pipe.HIncrBy(ctx, bucketKey, "duration_us", micros)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	route := strings.TrimSpace(ev.Route)
	if route == "" {
		route = strings.TrimSpace(ev.Path)
	}
	if routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + route); routeField != "" {
		routeKey := s.prefix + ":route"
		pipe.HIncrBy(ctx, routeKey, routeField+":requests", 1)
		if failed == 1 {
			pipe.HIncrBy(ctx, routeKey, routeField+":failed", 1)
		}
	}

	if ev.Status > 0 {
		pipe.HIncrBy(ctx, s.prefix+":status", strconv.Itoa(ev.Status), 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}
