package inflight

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTryAcquireRejectsDuplicate(t *testing.T) {
	var g Guard

	release, ok := g.TryAcquire("comprar:1")
	require.True(t, ok)
	assert.True(t, g.Busy("comprar:1"))

	_, ok = g.TryAcquire("comprar:1")
	assert.False(t, ok)

	_, ok = g.TryAcquire("comprar:2")
	assert.True(t, ok, "other keys are independent")

	release()
	release()
	assert.False(t, g.Busy("comprar:1"))

	_, ok = g.TryAcquire("comprar:1")
	assert.True(t, ok)
}

func TestTryAcquireConcurrent(t *testing.T) {
	var (
		g       Guard
		winners atomic.Int32
		start   = make(chan struct{})
		wg      sync.WaitGroup
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := g.TryAcquire("login"); ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestActive(t *testing.T) {
	var g Guard
	assert.False(t, g.Active())

	release, ok := g.TryAcquire("comprar:1")
	require.True(t, ok)
	assert.True(t, g.Active())

	release()
	assert.False(t, g.Active())
}
