package ring

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AppendAndSnapshot(t *testing.T) {
	b := New[int](5)
	for i := 1; i <= 3; i++ {
		b.Append(i)
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []int{1, 2, 3}, b.Snapshot())
}

func TestBuffer_OverflowDropsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Append(i)
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []int{3, 4, 5}, b.Snapshot())
	assert.Equal(t, uint64(2), b.Dropped())
}

func TestBuffer_NeverExceedsCapacity(t *testing.T) {
	b := New[string](200)
	for i := 0; i < 1000; i++ {
		b.Append(fmt.Sprintf("entry-%d", i))
	}

	require.Equal(t, 200, b.Len())
	snap := b.Snapshot()
	// Oldest surviving entry is the 801st appended.
	assert.Equal(t, "entry-800", snap[0])
	assert.Equal(t, "entry-999", snap[199])
}

func TestBuffer_Recent(t *testing.T) {
	b := New[int](10)
	for i := 1; i <= 6; i++ {
		b.Append(i)
	}

	assert.Equal(t, []int{4, 5, 6}, b.Recent(3))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, b.Recent(20))
	assert.Nil(t, b.Recent(0))
}

func TestBuffer_Clear(t *testing.T) {
	b := New[int](3)
	b.Append(1)
	b.Append(2)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())

	// Still usable after clearing.
	b.Append(9)
	assert.Equal(t, []int{9}, b.Snapshot())
}

func TestBuffer_MinimumCapacity(t *testing.T) {
	b := New[int](0)
	assert.Equal(t, 1, b.Cap())
	b.Append(1)
	b.Append(2)
	assert.Equal(t, []int{2}, b.Snapshot())
}

func TestBuffer_ConcurrentAppend(t *testing.T) {
	b := New[int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Append(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, b.Len())
	assert.Equal(t, uint64(750), b.Dropped())
}
