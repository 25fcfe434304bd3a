package allocator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_Next(t *testing.T) {
	ctx := context.Background()
	sequence := NewMemory(0)

	first, err := sequence.Next(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := sequence.Next(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), second)

	resumed := NewMemory(41)
	next, err := resumed.Next(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), next)
}

func TestMemory_NextConcurrent(t *testing.T) {
	ctx := context.Background()
	sequence := NewMemory(0)

	const allocations = 100
	numbers := make(chan int64, allocations)
	var wg sync.WaitGroup
	for i := 0; i < allocations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := sequence.Next(ctx)
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int64]bool{}
	for number := range numbers {
		assert.False(t, seen[number])
		seen[number] = true
	}
	assert.Len(t, seen, allocations)
}
