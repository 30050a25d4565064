package service

import "sync"

// keyedMutex serializes work per key. Approve/reject hold the key's lock for
// the full check-append-flip sequence, so at most one decision per
// application is in flight at a time. Locks are retained for the process
// lifetime; the key space is bounded by the number of undecided applications
// a deployment ever sees.
type keyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
