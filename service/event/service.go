package event

import (
	"context"
	"sync"

	"github.com/procwise/procwise/internal/clock"
	"github.com/procwise/procwise/service/messaging"
	"github.com/procwise/procwise/service/messaging/memory"
)

// Service fans lifecycle events out to a queue. Publishing is best-effort:
// a full queue drops the event rather than failing the engine operation
// that produced it.
type Service struct {
	queue    messaging.Queue[Event]
	listener *Listener
	mux      sync.Mutex
}

// New creates an event service over the given queue; a nil queue gets the
// default in-memory one.
func New(queue messaging.Queue[Event]) *Service {
	if queue == nil {
		queue = memory.NewQueue[Event](memory.DefaultConfig())
	}
	return &Service{queue: queue}
}

// Publish emits one event, stamping the time when unset.
func (s *Service) Publish(ctx context.Context, anEvent Event) {
	if anEvent.At.IsZero() {
		anEvent.At = clock.Now()
	}
	_ = s.queue.Publish(ctx, &anEvent)
}

// Queue exposes the underlying queue for external consumers.
func (s *Service) Queue() messaging.Queue[Event] {
	return s.queue
}

// SetListener replaces the active listener with one invoking handler for
// every event.
func (s *Service) SetListener(handler func(*Event)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener(s.queue, handler)
	s.listener.Start()
}

// Close stops the active listener, if any.
func (s *Service) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
}

// Listener consumes events from a queue on a background goroutine.
type Listener struct {
	queue   messaging.Queue[Event]
	handler func(*Event)
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewListener creates a stopped listener.
func NewListener(queue messaging.Queue[Event], handler func(*Event)) *Listener {
	return &Listener{queue: queue, handler: handler}
}

// Start begins consuming until Stop is called.
func (l *Listener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for {
			message, err := l.queue.Consume(ctx)
			if err != nil {
				return
			}
			l.handler(message.T())
			_ = message.Ack()
		}
	}()
}

// Stop halts consumption and waits for the loop to exit.
func (l *Listener) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
}
