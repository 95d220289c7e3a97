package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"doppel/internal/jobs"
	"doppel/internal/pipeline"
)

type scriptedQueue struct {
	deliveries []*Delivery
}

func (q *scriptedQueue) Receive(ctx context.Context) (*Delivery, error) {
	if len(q.deliveries) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	d := q.deliveries[0]
	q.deliveries = q.deliveries[1:]
	return d, nil
}

func (q *scriptedQueue) Close() error { return nil }

type recordingHandler struct {
	msgs   []pipeline.Message
	status jobs.Status
	err    error
	ran    chan struct{}
}

func (h *recordingHandler) Run(_ context.Context, msg pipeline.Message) (jobs.Status, error) {
	h.msgs = append(h.msgs, msg)
	if h.ran != nil {
		close(h.ran)
		h.ran = nil
	}
	return h.status, h.err
}

type trackedDelivery struct {
	delivery *Delivery
	acked    int
	nacked   int
	settled  chan struct{}
}

func newTrackedDelivery(body string) *trackedDelivery {
	t := &trackedDelivery{settled: make(chan struct{})}
	t.delivery = &Delivery{
		Body: []byte(body),
		Ack: func() error {
			t.acked++
			close(t.settled)
			return nil
		},
		Nack: func() error {
			t.nacked++
			close(t.settled)
			return nil
		},
	}
	return t
}

func runConsumer(t *testing.T, queue Queue, handler Handler) (cancel context.CancelFunc, done chan struct{}) {
	t.Helper()
	consumer, err := NewConsumer(queue, handler, nil, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	ctx, cancelFn := context.WithCancel(context.Background())
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		if err := consumer.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	return cancelFn, doneCh
}

func waitSettled(t *testing.T, tracked *trackedDelivery) {
	t.Helper()
	select {
	case <-tracked.settled:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never settled")
	}
}

func TestConsumerAcksHandledMessage(t *testing.T) {
	tracked := newTrackedDelivery(`{"jobId":"J1","userId":"U1","personaId":"P1","videoUrl":"u"}`)
	handler := &recordingHandler{status: jobs.StatusDone}
	cancel, done := runConsumer(t, &scriptedQueue{deliveries: []*Delivery{tracked.delivery}}, handler)

	waitSettled(t, tracked)
	cancel()
	<-done

	if tracked.acked != 1 || tracked.nacked != 0 {
		t.Errorf("acked=%d nacked=%d, want 1/0", tracked.acked, tracked.nacked)
	}
	if len(handler.msgs) != 1 || handler.msgs[0].JobID != "J1" {
		t.Errorf("handler msgs = %+v", handler.msgs)
	}
}

func TestConsumerAcksFailedJobOutcome(t *testing.T) {
	tracked := newTrackedDelivery(`{"jobId":"J1"}`)
	handler := &recordingHandler{status: jobs.StatusFailed}
	cancel, done := runConsumer(t, &scriptedQueue{deliveries: []*Delivery{tracked.delivery}}, handler)

	waitSettled(t, tracked)
	cancel()
	<-done

	if tracked.acked != 1 {
		t.Errorf("acked=%d, want 1; failed jobs are a handled outcome", tracked.acked)
	}
}

func TestConsumerNacksUndecodableMessage(t *testing.T) {
	tracked := newTrackedDelivery(`{not json`)
	handler := &recordingHandler{status: jobs.StatusDone}
	cancel, done := runConsumer(t, &scriptedQueue{deliveries: []*Delivery{tracked.delivery}}, handler)

	waitSettled(t, tracked)
	cancel()
	<-done

	if tracked.nacked != 1 || tracked.acked != 0 {
		t.Errorf("acked=%d nacked=%d, want 0/1", tracked.acked, tracked.nacked)
	}
	if len(handler.msgs) != 0 {
		t.Errorf("handler ran on undecodable message: %+v", handler.msgs)
	}
}

func TestConsumerNacksHandlerFault(t *testing.T) {
	tracked := newTrackedDelivery(`{"jobId":"J1"}`)
	handler := &recordingHandler{err: errors.New("store unavailable")}
	cancel, done := runConsumer(t, &scriptedQueue{deliveries: []*Delivery{tracked.delivery}}, handler)

	waitSettled(t, tracked)
	cancel()
	<-done

	if tracked.nacked != 1 || tracked.acked != 0 {
		t.Errorf("acked=%d nacked=%d, want 0/1", tracked.acked, tracked.nacked)
	}
}

func TestConsumerStopsOnCancel(t *testing.T) {
	cancel, done := runConsumer(t, &scriptedQueue{}, &recordingHandler{})
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
