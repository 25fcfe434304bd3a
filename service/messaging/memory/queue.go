// Package memory implements a channel-backed in-process queue.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/procwise/procwise/service/messaging"
)

// ErrFull is returned by Publish when the buffer has no free slot.
var ErrFull = errors.New("queue full")

// Config for the memory queue implementation.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	QueueBuffer int
}

// DefaultConfig returns the standard configuration for the memory queue.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		QueueBuffer: 128,
	}
}

// Message implements messaging.Message for the in-memory queue.
type Message[T any] struct {
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	return nil
}

// Nack indicates a failure; the message is requeued until MaxRetries.
func (m *Message[T]) Nack(_ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.retryCount++
	if m.retryCount > m.queue.config.MaxRetries {
		return nil
	}
	go func() {
		time.Sleep(m.queue.config.RetryDelay)
		m.queue.requeue(&Message[T]{
			payload:    m.payload,
			queue:      m.queue,
			retryCount: m.retryCount,
		})
	}()
	return nil
}

// Queue implements an in-memory messaging.Queue.
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
}

var _ messaging.Queue[any] = (*Queue[any])(nil)

// NewQueue creates a new in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue. A full buffer returns ErrFull
// immediately; publishers must never stall on a slow or absent consumer.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{payload: *t, queue: q}
	select {
	case q.messages <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Consume retrieves a single item from the queue.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of buffered messages.
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

func (q *Queue[T]) requeue(msg *Message[T]) {
	select {
	case q.messages <- msg:
	default:
		// Queue full on retry; the message is dropped rather than blocking
		// the retry goroutine.
	}
}
