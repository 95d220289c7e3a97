package transport

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"doppel/internal/services"
)

// RedisQueue consumes job messages from a Redis list. Receive pops from the
// tail so publishers pushing to the head see FIFO ordering.
type RedisQueue struct {
	client     *redis.Client
	key        string
	popTimeout time.Duration
}

// NewRedisQueue wraps an existing client. The key names the list holding
// job messages.
func NewRedisQueue(client *redis.Client, key string, popTimeout time.Duration) (*RedisQueue, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if key == "" {
		return nil, errors.New("queue key required")
	}
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	return &RedisQueue{client: client, key: key, popTimeout: popTimeout}, nil
}

func (q *RedisQueue) Receive(ctx context.Context) (*Delivery, error) {
	values, err := q.client.BRPop(ctx, q.popTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransport, "", "brpop", "receive from queue", err)
	}
	if len(values) != 2 {
		return nil, services.Wrap(services.ErrTransport, "", "brpop", "unexpected reply shape", nil)
	}

	body := []byte(values[1])
	return &Delivery{
		Body: body,
		Ack:  func() error { return nil },
		Nack: func() error {
			// Requeue at the tail so the message is retried next.
			return q.client.RPush(context.Background(), q.key, body).Err()
		},
	}, nil
}

func (q *RedisQueue) Publish(ctx context.Context, body []byte) error {
	if err := q.client.LPush(ctx, q.key, body).Err(); err != nil {
		return services.Wrap(services.ErrTransport, "", "lpush", "publish to queue", err)
	}
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
