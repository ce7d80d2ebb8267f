package transport

import (
	"log/slog"
	"sync"
)

// Outbound is one queued frame. OnSent runs after the frame has been
// confirmed sent; callers use it to commit optimistic state only once
// transmission succeeded.
type Outbound struct {
	Payload []byte
	OnSent  func()
}

// SendFunc attempts to transmit one frame and reports failure.
type SendFunc func(payload []byte) error

// Queue buffers outbound frames while the transport is not ready. A frame
// leaves the queue only after a confirmed send; a failed send puts it
// back at the head so the next drain retries it before anything queued
// later.
type Queue struct {
	mu       sync.Mutex
	items    []Outbound
	draining bool

	send   SendFunc
	logger *slog.Logger
}

func NewQueue(send SendFunc, logger *slog.Logger) *Queue {
	return &Queue{
		send:   send,
		logger: logger.With(slog.String("component", "send_queue")),
	}
}

// Enqueue appends a frame at the tail and immediately attempts a drain.
func (q *Queue) Enqueue(out Outbound) {
	q.mu.Lock()
	q.items = append(q.items, out)
	q.mu.Unlock()
	q.Drain()
}

// Drain sends queued frames oldest first. It is an explicit loop with two
// stop conditions: empty queue, or a send failure (the failed frame is
// reinserted at the head). Only one drain runs at a time; a drain
// requested while another is in flight is a no-op.
func (q *Queue) Drain() {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			// The flag clears under the same lock as the emptiness
			// check, so an Enqueue racing this drain either lands
			// before the check (this loop sends it) or after the
			// clear (its own Drain proceeds).
			q.draining = false
			q.mu.Unlock()
			return
		}
		head := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := q.send(head.Payload); err != nil {
			q.mu.Lock()
			q.items = append([]Outbound{head}, q.items...)
			q.draining = false
			pending := len(q.items)
			q.mu.Unlock()
			q.logger.Debug("Drain stopped on send failure",
				slog.Int("pending", pending),
				slog.Any("error", err),
			)
			return
		}
		if head.OnSent != nil {
			head.OnSent()
		}
	}
}

// Len reports how many frames are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
