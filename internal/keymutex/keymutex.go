// Package keymutex provides mutual exclusion per string key. The relay uses
// it to serialize the read-modify-write of a session record per identity
// key; updates for different identities proceed concurrently.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock blocks until the key is exclusively held and returns the unlock
// function. Entries are dropped once the last holder releases, so the map
// does not grow with the number of identities ever seen.
func (k *KeyMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
