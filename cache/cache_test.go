package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	types []string
	err   error
	gate  chan struct{}
}

func (s *countingSource) DocumentTypes(context.Context) ([]string, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.types, s.err
}

func TestCatalog_CachesUntilTTL(t *testing.T) {
	src := &countingSource{types: []string{"DEED", "LIEN"}}
	c := NewCatalog(src, time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		types, err := c.DocumentTypes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"DEED", "LIEN"}, types)
	}
	assert.Equal(t, int32(1), src.calls.Load())

	now = now.Add(2 * time.Hour)
	_, err := c.DocumentTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())

	c.Invalidate()
	_, _ = c.DocumentTypes(context.Background())
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := NewCatalog(&countingSource{types: []string{"DEED"}}, time.Hour)

	first, _ := c.DocumentTypes(context.Background())
	first[0] = "MUTATED"

	second, _ := c.DocumentTypes(context.Background())
	assert.Equal(t, []string{"DEED"}, second)
}

func TestCatalog_DoesNotCacheFailures(t *testing.T) {
	src := &countingSource{err: errors.New("browser down")}
	c := NewCatalog(src, time.Hour)

	_, err := c.DocumentTypes(context.Background())
	assert.Error(t, err)
	_, err = c.DocumentTypes(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), src.calls.Load())

	empty := &countingSource{types: []string{}}
	c = NewCatalog(empty, time.Hour)
	_, _ = c.DocumentTypes(context.Background())
	_, _ = c.DocumentTypes(context.Background())
	assert.Equal(t, int32(2), empty.calls.Load())
}

func TestCatalog_SharesConcurrentFetch(t *testing.T) {
	src := &countingSource{types: []string{"DEED"}, gate: make(chan struct{})}
	c := NewCatalog(src, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			types, err := c.DocumentTypes(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, []string{"DEED"}, types)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}
