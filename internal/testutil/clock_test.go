package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAtEpoch(t *testing.T) {
	clock := NewClock()
	assert.Equal(t, Epoch, clock.Peek())
	assert.Equal(t, Epoch, clock.Now())
}

func TestClock_StepsMonotonically(t *testing.T) {
	clock := NewClockAt(Epoch, time.Minute)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Minute), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Minute), clock.Now())
	assert.Equal(t, Epoch.Add(3*time.Minute), clock.Peek())
}

func TestClock_AdvanceAndReset(t *testing.T) {
	clock := NewClock()
	clock.Now()
	clock.Advance(time.Hour)
	assert.Equal(t, Epoch.Add(time.Hour+time.Second), clock.Now())

	clock.Reset()
	assert.Equal(t, Epoch.Add(time.Hour), clock.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock()
	const goroutines = 50
	const calls = 20

	var wg sync.WaitGroup
	seen := make(chan time.Time, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seen <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[time.Time]bool{}
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines*calls, "every read gets a distinct step")
}

func TestSequentialIDs(t *testing.T) {
	next := SequentialIDs("sync")
	assert.Equal(t, "sync-1", next())
	assert.Equal(t, "sync-2", next())

	assert.Equal(t, "run-1", SequentialIDs("")())
}
