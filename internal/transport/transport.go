package transport

import "context"

// Delivery is one message received from a queue. Exactly one of Ack or Nack
// must be called once handling finishes.
type Delivery struct {
	Body []byte

	// Ack confirms the message was handled and must not be redelivered.
	Ack func() error
	// Nack returns the message to the queue for redelivery.
	Nack func() error
}

// Queue is a source of job messages.
type Queue interface {
	// Receive blocks for the next delivery. A nil delivery with nil error
	// means the wait timed out and the caller should poll again.
	Receive(ctx context.Context) (*Delivery, error)
	Close() error
}

// Publisher enqueues job messages.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}
