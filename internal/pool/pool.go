// Package pool provides a fixed-size worker pool for offloading blocking
// operations (downloads, disk I/O, storage calls) so that request handling
// never stalls on any one of them.
package pool

import (
	"fmt"
	"sync"
)

// queueDepth is how many submitted operations may wait for a free worker.
// Submissions beyond this block the submitter, which is the intended
// backpressure behavior under saturation.
const queueDepth = 256

// Result carries the outcome of an offloaded operation.
type Result struct {
	Value any
	Err   error
}

type task struct {
	fn  func() (any, error)
	out chan Result
}

// Pool executes submitted operations on a fixed number of workers. Once
// started it never shrinks or grows; a failing operation never takes a
// worker down with it.
type Pool struct {
	queue     chan task
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a pool and starts size workers.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{queue: make(chan task, queueDepth)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		t.out <- run(t.fn)
		close(t.out)
	}
}

// run executes fn, converting a panic into an error so the worker survives.
func run(fn func() (any, error)) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("offloaded operation panicked: %v", r)}
		}
	}()
	v, err := fn()
	return Result{Value: v, Err: err}
}

// Submit hands fn to the pool and returns a channel that receives exactly one
// Result when it finishes. The operation may queue if all workers are busy;
// there is no cancellation once submitted.
func (p *Pool) Submit(fn func() (any, error)) <-chan Result {
	out := make(chan Result, 1)
	p.queue <- task{fn: fn, out: out}
	return out
}

// Do submits fn and waits for its result.
func (p *Pool) Do(fn func() (any, error)) (any, error) {
	r := <-p.Submit(fn)
	return r.Value, r.Err
}

// Close stops accepting work and waits for in-flight operations to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.queue) })
	p.wg.Wait()
}
