// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSemaphoreTakeBlocksUntilReleased(t *testing.T) {
	s := NewSemaphore(0)
	done := make(chan struct{})
	go func() {
		s.Take()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Take returned before any permits were released")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release(1)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Release")
	}
}

func TestSemaphoreNegativeInitialCountIsADebt(t *testing.T) {
	s := NewSemaphore(-2)
	done := make(chan struct{})
	go func() {
		s.TakeMany(1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("TakeMany should still block: count started at -2")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release(3) // brings count to 1, enough to satisfy the pending TakeMany(1)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TakeMany did not unblock once the debt was repaid")
	}
}

func TestThreadPoolRunsAllSubmittedJobs(t *testing.T) {
	pool := NewThreadPool(4)
	defer pool.Close()

	var n int64
	const jobs = 50
	for i := 0; i < jobs; i++ {
		pool.Submit(func() { atomic.AddInt64(&n, 1) })
	}
	pool.Wait()
	require.EqualValues(t, jobs, n)
}

func TestThreadPoolDefaultsSizeWhenNonPositive(t *testing.T) {
	pool := NewThreadPool(0)
	defer pool.Close()

	var ran int32
	pool.Submit(func() { atomic.StoreInt32(&ran, 1) })
	pool.Wait()
	require.EqualValues(t, 1, ran)
}

func TestRunAllPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := runAll(context.Background(), []func(context.Context) error{
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
		func(context.Context) error { return nil },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunAllPooledRunsEveryJobAndReportsError(t *testing.T) {
	var n int32
	jobs := make([]func(context.Context) error, 20)
	for i := range jobs {
		i := i
		jobs[i] = func(context.Context) error {
			atomic.AddInt32(&n, 1)
			if i == 17 {
				return errors.New("job 17 failed")
			}
			return nil
		}
	}
	err := runAllPooled(jobs, 3)
	require.Error(t, err)
	require.EqualValues(t, len(jobs), n, "every job still runs even though one fails")
}

func TestRunAllPooledEmptyJobsIsNoop(t *testing.T) {
	require.NoError(t, runAllPooled(nil, 2))
}
