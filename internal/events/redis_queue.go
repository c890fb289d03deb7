package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
)

const (
	DefaultQueueKey = "sales:created"
	popTimeout      = 2 * time.Second
	errorBackoff    = time.Second
	handleTimeout   = 10 * time.Second
)

// RedisQueue pushes sales onto a Redis list and lets a worker drain it.
// Each message is handed to the handler once. A failed handler is logged and
// the message is dropped.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    zerolog.Logger
}

func NewRedisQueue(addr string, password string, db int, key string, logger zerolog.Logger) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if key == "" {
		key = DefaultQueueKey
	}

	return &RedisQueue{
		client: client,
		key:    key,
		log:    logger.With().Str("component", "events").Str("queue", key).Logger(),
	}
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) Publish(ctx context.Context, sale domain.Sale) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("encode sale %s: %w", sale.ID, err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue sale %s: %w", sale.ID, err)
	}
	return nil
}

// Run pops sales until ctx is done and passes each one to handler.
func (q *RedisQueue) Run(ctx context.Context, handler SaleHandler) error {
	q.log.Info().Msg("sale queue worker started")
	defer q.log.Info().Msg("sale queue worker stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := q.client.BLPop(ctx, popTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.log.Error().Err(err).Msg("pop from sale queue failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
			continue
		}

		// BLPOP replies with [key, value].
		if len(res) != 2 {
			continue
		}
		q.handle(ctx, handler, res[1])
	}
}

// handle runs the handler detached from the worker's cancellation. A message
// popped right before shutdown has already left Redis and must still be applied.
func (q *RedisQueue) handle(ctx context.Context, handler SaleHandler, payload string) {
	var sale domain.Sale
	if err := json.Unmarshal([]byte(payload), &sale); err != nil {
		q.log.Error().Err(err).Msg("discarding malformed sale message")
		return
	}
	handleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()
	if err := handler.OnSaleCreated(handleCtx, sale); err != nil {
		q.log.Error().Err(err).Str("sale_id", sale.ID).Msg("sale handler failed, message dropped")
	}
}

// Len reports how many sales are waiting.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
