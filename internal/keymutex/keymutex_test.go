package keymutex

import (
	"sync"
	"testing"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := New()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("tg:42")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

func TestDistinctKeysDoNotBlockEachOther(t *testing.T) {
	km := New()
	unlockA := km.Lock("tg:1")
	done := make(chan struct{})
	go func() {
		unlock := km.Lock("tg:2")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}

func TestEntriesAreReleased(t *testing.T) {
	km := New()
	unlock := km.Lock("tg:42")
	unlock()
	km.mu.Lock()
	n := len(km.entries)
	km.mu.Unlock()
	if n != 0 {
		t.Fatalf("entries = %d, want 0", n)
	}
}
