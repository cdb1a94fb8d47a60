package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	t.Run("Last Ticket Wins", func(t *testing.T) {
		seq := NewSequence()
		assert.Equal(t, 0, seq.Latest())

		first := seq.Next()
		assert.Equal(t, 1, first)
		assert.True(t, seq.IsCurrent(first))

		second := seq.Next()
		assert.Equal(t, 2, second)
		assert.False(t, seq.IsCurrent(first))
		assert.True(t, seq.IsCurrent(second))
		assert.Equal(t, second, seq.Latest())
	})

	t.Run("Concurrency", func(t *testing.T) {
		seq := NewSequence()
		var wg sync.WaitGroup
		iterations := 1000

		var mu sync.Mutex
		seen := make(map[int]bool, iterations)

		wg.Add(iterations)
		for i := 0; i < iterations; i++ {
			go func() {
				defer wg.Done()
				ticket := seq.Next()
				mu.Lock()
				seen[ticket] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, iterations, seq.Latest())
		assert.Len(t, seen, iterations, "tickets are unique")
		assert.True(t, seq.IsCurrent(iterations))
	})
}

func TestSafeFlag(t *testing.T) {
	t.Run("Basic Operations", func(t *testing.T) {
		sf := NewSafeFlag()
		assert.False(t, sf.Value())

		assert.True(t, sf.Set(true))
		assert.True(t, sf.Value())

		assert.False(t, sf.Set(false))
		assert.False(t, sf.Value())
	})

	t.Run("Concurrency", func(t *testing.T) {
		sf := NewSafeFlag()
		var wg sync.WaitGroup
		iterations := 100

		wg.Add(iterations)
		for i := 0; i < iterations; i++ {
			go func(on bool) {
				defer wg.Done()
				sf.Set(on)
				_ = sf.Value()
			}(i%2 == 0)
		}
		wg.Wait()
	})
}
