// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Semaphore is a counting semaphore that allows the counter to go
// negative, used to pre-arm the parser's barrier with a known debt. Only
// the initial count can be negative (a debt set up by NewSemaphore);
// Take and TakeMany block until the counter covers the request, so they
// never drive it below zero themselves.
type Semaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int64
}

// NewSemaphore returns a semaphore starting at the given count (which may
// itself be negative or zero, e.g. to represent a known-in-advance debt).
func NewSemaphore(initial int64) *Semaphore {
	s := &Semaphore{count: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Release grants n permits and wakes every waiter that might now be able
// to proceed.
func (s *Semaphore) Release(n int64) {
	s.mu.Lock()
	s.count += n
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Take acquires a single permit, blocking until available.
func (s *Semaphore) Take() { s.TakeMany(1) }

// TakeMany blocks until n permits are available, then acquires them all
// atomically.
func (s *Semaphore) TakeMany(n int64) {
	s.mu.Lock()
	for s.count < n {
		s.cond.Wait()
	}
	s.count -= n
	s.mu.Unlock()
}

// ThreadPool is a fixed-size worker pool processing single-run job
// closures off a shared channel: a buffered channel already gives FIFO
// ordering and blocking backpressure without hand-rolling a deque.
type ThreadPool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
	done chan struct{}
}

// NewThreadPool starts size workers (size <= 0 defaults to
// runtime.NumCPU()).
func NewThreadPool(size int) *ThreadPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &ThreadPool{
		jobs: make(chan func(), size*4),
		done: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *ThreadPool) worker() {
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
			p.wg.Done()
		case <-p.done:
			return
		}
	}
}

// Submit enqueues a job. It must not be called after Close.
func (p *ThreadPool) Submit(job func()) {
	p.wg.Add(1)
	p.jobs <- job
}

// Wait blocks until every submitted job has completed.
func (p *ThreadPool) Wait() { p.wg.Wait() }

// Close stops all workers once the queue drains. Safe to call more than
// once.
func (p *ThreadPool) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
}

// runAll is a small errgroup-based fan-out/fan-in helper used by the
// writer to build its HD records: launch one goroutine per item,
// wait for all, propagate the first error. Grounded on distr1-distri's
// errgroup.Group usage in cmd/distri/build.go and batch.go, which follow
// exactly this "launch N, Wait, return err" shape for its package build
// fan-out.
func runAll(ctx context.Context, tasks []func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error { return t(ctx) })
	}
	return g.Wait()
}
