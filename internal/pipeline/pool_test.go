package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(2)

	var (
		mu     sync.Mutex
		active int
		peak   int
		wg     sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		p.Go(&wg, func() {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent tasks, observed %d", peak)
	}
	if active != 0 {
		t.Errorf("Expected all tasks drained, %d still active", active)
	}
}

func TestPool_MinimumSizeOne(t *testing.T) {
	p := NewPool(0)
	if p.Size() != 1 {
		t.Errorf("Expected pool size clamped to 1, got %d", p.Size())
	}

	var wg sync.WaitGroup
	done := false
	p.Go(&wg, func() { done = true })
	wg.Wait()

	if !done {
		t.Error("Expected task to run")
	}
}
