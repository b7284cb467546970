package businessflow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Holders of the same queue id must never overlap, no matter how many
// goroutines contend for the mutex over the lifetime of the map entry.
func TestQueueLocksMutualExclusion(t *testing.T) {
	locks := newQueueLocks()

	const workers = 16
	inCritical := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				locks.lock(7)
				inCritical++
				assert.Equal(t, 1, inCritical)
				inCritical--
				locks.unlock(7)
			}
		}()
	}
	wg.Wait()
}

func TestQueueLocksIndependentPerQueue(t *testing.T) {
	locks := newQueueLocks()

	locks.lock(1)
	done := make(chan struct{})
	go func() {
		locks.lock(2)
		locks.unlock(2)
		close(done)
	}()
	<-done
	locks.unlock(1)
}
