package render

import (
	"sync"
	"sync/atomic"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 8
	rowChunk         = 8  // Rows claimed per steal
	minRowsPerWorker = 16 // Below 2x this, dispatch runs inline
)

// rowTask is an immutable descriptor for one row-partitioned job. Workers
// claim rowChunk-sized ranges off the shared cursor until it passes rows,
// so a worker stuck on an expensive chunk steals fewer rows overall.
type rowTask struct {
	rows int
	next *atomic.Int64 // Shared claim cursor
	run  func(start, end int)
	done *sync.WaitGroup
}

// rowPool is a fixed set of worker goroutines fed by a bounded task queue.
// It exists to amortize goroutine wake-up across frames for the clear and
// MSAA-resolve passes; per-triangle rasterization stays on the caller
// because triangles share depth-test state in submission order.
type rowPool struct {
	workers int
	tasks   chan rowTask
	wg      sync.WaitGroup
}

// newRowPool starts workers goroutines (default 4, capped at 8).
func newRowPool(workers int) *rowPool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	p := &rowPool{
		workers: workers,
		tasks:   make(chan rowTask, maxWorkers),
	}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *rowPool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		for {
			start := int(t.next.Add(rowChunk)) - rowChunk
			if start >= t.rows {
				break
			}
			end := start + rowChunk
			if end > t.rows {
				end = t.rows
			}
			t.run(start, end)
		}
		t.done.Done()
	}
}

// dispatch runs fn over [0, rows) and blocks until every row is processed.
// Jobs smaller than two full worker shares run inline; the wake-up and
// contention cost exceeds the parallel win there. fn must be safe to call
// from multiple goroutines on disjoint row ranges.
func (p *rowPool) dispatch(rows int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	if p == nil || rows < 2*minRowsPerWorker {
		fn(0, rows)
		return
	}

	var next atomic.Int64
	var done sync.WaitGroup
	done.Add(p.workers)

	t := rowTask{rows: rows, next: &next, run: fn, done: &done}
	for range p.workers {
		p.tasks <- t
	}
	done.Wait()
}

// close drains the pool: every idle worker exits its receive loop and close
// joins them all. No dispatch may be issued afterwards.
func (p *rowPool) close() {
	close(p.tasks)
	p.wg.Wait()
}
