package destination_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sortbot/internal/destination"
)

func TestLocksSerializeSameDirectory(t *testing.T) {
	locks := destination.NewLocks()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("/dest/Pictures/2025/Dec")
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("expected exclusive access, peak holders %d", peak)
	}
	if locks.Len() != 0 {
		t.Fatalf("expected lock table to drain, have %d", locks.Len())
	}
}

func TestLocksIndependentDirectories(t *testing.T) {
	locks := destination.NewLocks()
	unlockA := locks.Lock("/dest/a")
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("/dest/b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different directory should not block")
	}
	unlockA()
	unlockA()
	if locks.Len() != 0 {
		t.Fatalf("expected empty table, have %d", locks.Len())
	}
}
