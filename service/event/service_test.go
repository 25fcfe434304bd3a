package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/procwise/procwise/service/messaging/memory"
)

func TestService_Publish(t *testing.T) {
	service := New(nil)
	ctx := context.Background()

	service.Publish(ctx, Event{Type: TypeProcessStarted, ProcessID: "p1"})

	message, err := service.Queue().Consume(ctx)
	assert.NoError(t, err)
	published := message.T()
	assert.Equal(t, TypeProcessStarted, published.Type)
	assert.Equal(t, "p1", published.ProcessID)
	// The publish time is stamped when the caller left it zero.
	assert.False(t, published.At.IsZero())
	assert.NoError(t, message.Ack())
}

func TestService_PublishNeverBlocks(t *testing.T) {
	service := New(nil)
	ctx := context.Background()

	// Nobody consumes the default queue; once the buffer fills, further
	// events are dropped and the publisher carries on.
	for i := 0; i < memory.DefaultConfig().QueueBuffer; i++ {
		service.Publish(ctx, Event{Type: TypeStepCompleted, ProcessID: "p1"})
	}

	done := make(chan struct{})
	go func() {
		service.Publish(ctx, Event{Type: TypeStepCompleted, ProcessID: "p1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}
}

func TestService_Listener(t *testing.T) {
	service := New(nil)
	ctx := context.Background()

	var mu sync.Mutex
	var received []string
	service.SetListener(func(anEvent *Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, anEvent.Type)
	})
	defer service.Close()

	service.Publish(ctx, Event{Type: TypeProcessStarted, ProcessID: "p1"})
	service.Publish(ctx, Event{Type: TypeStepCompleted, ProcessID: "p1", StepID: "s1"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{TypeProcessStarted, TypeStepCompleted}, received)
	mu.Unlock()
}

func TestService_CloseStopsListener(t *testing.T) {
	service := New(nil)
	service.SetListener(func(*Event) {})
	service.Close()
	// Idempotent.
	service.Close()
}
