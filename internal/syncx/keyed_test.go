package syncx

import (
	"sync"
	"testing"
)

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	t.Run("serializes same key", func(t *testing.T) {
		km := NewKeyedMutex()

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				km.Lock("acc-1")
				counter++
				km.Unlock("acc-1")
			}()
		}
		wg.Wait()

		if counter != 100 {
			t.Fatalf("expected 100 serialized increments, got %d", counter)
		}
	})

	t.Run("different keys do not block each other", func(t *testing.T) {
		km := NewKeyedMutex()
		km.Lock("a")

		done := make(chan struct{})
		go func() {
			km.Lock("b")
			km.Unlock("b")
			close(done)
		}()

		<-done // завис бы, если бы ключи делили один мьютекс
		km.Unlock("a")
	})

	t.Run("entries are reclaimed", func(t *testing.T) {
		km := NewKeyedMutex()
		for i := 0; i < 10; i++ {
			km.Lock("k")
			km.Unlock("k")
		}

		km.mu.Lock()
		n := len(km.entries)
		km.mu.Unlock()
		if n != 0 {
			t.Fatalf("expected empty entry map after release, got %d entries", n)
		}
	})

	t.Run("unpaired unlock panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic on unpaired unlock")
			}
		}()
		NewKeyedMutex().Unlock("never-locked")
	})
}
