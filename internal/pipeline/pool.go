package pipeline

import "sync"

// Pool bounds the number of concurrently running CPU-bound tasks.
// Feature extraction and frame fan-out share one pool so a large video
// cannot starve audio analysis.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a pool running at most size tasks at once.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Go runs fn on the pool, blocking while the pool is full, and marks
// wg done when fn returns.
func (p *Pool) Go(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	p.sem <- struct{}{}
	go func() {
		defer func() {
			<-p.sem
			wg.Done()
		}()
		fn()
	}()
}

// Size returns the pool's concurrency bound.
func (p *Pool) Size() int {
	return cap(p.sem)
}
