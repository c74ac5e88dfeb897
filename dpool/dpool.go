// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dpool provides the fork-join primitive for spec.md §5's
// data-parallel model; the label walker runs under it, while the
// detector passes do not: a bounded worker pool, one result slot reserved per input so
// no per-item lock is needed, and cancellation observed between items
// rather than mid-item. The teacher's own tools are all
// single-threaded static analyses with nothing playing this role, so
// this is built directly on golang.org/x/sync/errgroup, the pack's
// own answer to exactly this concern.
package dpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when Run's workers argument is <= 0: one
// worker per logical CPU, the teacher's usual default for CPU-bound
// fan-out (e.g. gopool).
func DefaultWorkers() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// Run applies worker to every element of items concurrently, bounded
// to workers concurrent calls (DefaultWorkers() if workers <= 0).
// Results are written into a pre-sized slice so each goroutine only
// ever touches its own slot — no item lock is needed. If ctx is
// canceled, already-dispatched items still run to completion but no
// new item is started; if any worker call returns an error, Run
// returns the first such error once every dispatched item has
// finished.
func Run[T, R any](ctx context.Context, workers int, items []T, worker func(context.Context, T) (R, error)) ([]R, error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

dispatch:
	for i, item := range items {
		i, item := i, item
		select {
		case <-gctx.Done():
			break dispatch
		default:
		}
		g.Go(func() error {
			r, err := worker(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunVoid is Run for workers with no result, used by the walker's
// per-label dispatch.
func RunVoid[T any](ctx context.Context, workers int, items []T, worker func(context.Context, T) error) error {
	_, err := Run(ctx, workers, items, func(ctx context.Context, t T) (struct{}, error) {
		return struct{}{}, worker(ctx, t)
	})
	return err
}
