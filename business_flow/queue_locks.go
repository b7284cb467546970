package businessflow

import "sync"

// queueLocks serializes state-changing ticket operations per queue. Analytics
// reads deliberately skip the lock and accept a stale snapshot.
// Entries are never removed: dropping a mutex while a waiter is still blocked
// on it would let that waiter and a fresh caller hold the same queue id at
// once. Stale entries for deleted queues only cost a mutex each.
type queueLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newQueueLocks() *queueLocks {
	return &queueLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *queueLocks) lock(queueID uint) {
	l.mu.Lock()
	m, ok := l.locks[queueID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[queueID] = m
	}
	l.mu.Unlock()
	m.Lock()
}

func (l *queueLocks) unlock(queueID uint) {
	l.mu.Lock()
	m := l.locks[queueID]
	l.mu.Unlock()
	if m != nil {
		m.Unlock()
	}
}
