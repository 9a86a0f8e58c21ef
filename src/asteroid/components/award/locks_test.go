package award

import (
	"sync"
	"testing"
)

func TestMessageLocksSerialize(t *testing.T) {
	l := newMessageLocks()

	var mu sync.Mutex
	counts := make(map[string]int)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := []string{"a", "b", "c"}[n%3]
			l.lock(id)
			defer l.unlock(id)
			mu.Lock()
			counts[id]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 50 {
		t.Fatalf("total = %d, want 50", total)
	}
}

func TestMessageLocksMapDoesNotGrow(t *testing.T) {
	l := newMessageLocks()
	for i := 0; i < 100; i++ {
		l.lock("m")
		l.unlock("m")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.locks) != 0 {
		t.Fatalf("locks map holds %d entries after release", len(l.locks))
	}
}
