package transport

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/pubsub"

	"doppel/internal/services"
)

// PubSubQueue bridges a streaming Pub/Sub subscription to the pull-style
// Queue interface. The underlying Receive callback runs in its own
// goroutine and parks messages on a channel until the consumer asks for
// them.
type PubSubQueue struct {
	sub      *pubsub.Subscription
	messages chan *pubsub.Message

	startOnce sync.Once
	cancel    context.CancelFunc

	mu         sync.Mutex
	receiveErr error
	closed     bool
}

// NewPubSubQueue wraps an existing subscription handle.
func NewPubSubQueue(sub *pubsub.Subscription) (*PubSubQueue, error) {
	if sub == nil {
		return nil, errors.New("pubsub subscription required")
	}
	return &PubSubQueue{
		sub:      sub,
		messages: make(chan *pubsub.Message),
	}, nil
}

func (q *PubSubQueue) start() {
	recvCtx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	go func() {
		err := q.sub.Receive(recvCtx, func(_ context.Context, msg *pubsub.Message) {
			select {
			case q.messages <- msg:
			case <-recvCtx.Done():
				msg.Nack()
			}
		})
		q.mu.Lock()
		q.receiveErr = err
		q.mu.Unlock()
		close(q.messages)
	}()
}

func (q *PubSubQueue) Receive(ctx context.Context) (*Delivery, error) {
	q.startOnce.Do(q.start)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-q.messages:
		if !ok {
			q.mu.Lock()
			err := q.receiveErr
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return nil, services.Wrap(services.ErrTransport, "", "receive", "subscription closed", nil)
			}
			return nil, services.Wrap(services.ErrTransport, "", "receive", "subscription stream ended", err)
		}
		return &Delivery{
			Body: msg.Data,
			Ack:  func() error { msg.Ack(); return nil },
			Nack: func() error { msg.Nack(); return nil },
		}, nil
	}
}

func (q *PubSubQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	if q.cancel != nil {
		q.cancel()
	}
	return nil
}

// PubSubPublisher enqueues job messages on a Pub/Sub topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
}

// NewPubSubPublisher wraps an existing topic handle.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub topic required")
	}
	return &PubSubPublisher{topic: topic}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, body []byte) error {
	result := p.topic.Publish(ctx, &pubsub.Message{Data: body})
	if _, err := result.Get(ctx); err != nil {
		return services.Wrap(services.ErrTransport, "", "publish", "publish to topic", err)
	}
	return nil
}
