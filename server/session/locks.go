package session

import "sync"

// KeyedLocks serializes turn processing per user id. Without it, concurrent
// turns for the same user are a read-modify-write race on stored state.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedLocks creates an empty lock set.
func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{
		locks: make(map[string]*keyedLock),
	}
}

// Lock acquires the lock for key and returns the matching unlock function.
// Lock entries are reference counted and removed once unused.
func (k *KeyedLocks) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
