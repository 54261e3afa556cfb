package knn

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/viant/nnview/metrics"
	"github.com/viant/nnview/point"
)

// Querier is the query surface the Dispatcher drives; *Finder implements it.
type Querier interface {
	Nearest(ctx context.Context, queryID, k int) (point.Result, error)
}

// Reply carries the outcome of one submitted query.
type Reply struct {
	Seq     uint64
	QueryID int
	K       int
	Result  point.Result
	Err     error
}

// Dispatcher runs queries on a bounded pool of goroutines and delivers
// replies in submission order: a reply is delivered only if no reply with
// a higher sequence number was delivered before it. Deliveries are
// serialized. A query whose context is cancelled is dropped without a reply,
// so it never hides the result of an older query.
type Dispatcher struct {
	querier Querier
	deliver func(Reply)
	sem     *semaphore.Weighted
	metrics *metrics.Registry

	seq atomic.Uint64
	wg  sync.WaitGroup

	mu      sync.Mutex
	applied uint64
}

// NewDispatcher creates a dispatcher running at most workers queries at a
// time (at least one).
func NewDispatcher(q Querier, deliver func(Reply), workers int, reg *metrics.Registry) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		querier: q,
		deliver: deliver,
		sem:     semaphore.NewWeighted(int64(workers)),
		metrics: reg,
	}
}

// Submit schedules a query and returns its sequence number.
func (d *Dispatcher) Submit(ctx context.Context, queryID, k int) uint64 {
	seq := d.seq.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		reply := Reply{Seq: seq, QueryID: queryID, K: k}
		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.metrics.RecordStale()
			return
		}
		if d.superseded(seq) {
			d.sem.Release(1)
			d.metrics.RecordStale()
			return
		}
		reply.Result, reply.Err = d.querier.Nearest(ctx, queryID, k)
		d.sem.Release(1)
		if reply.Err != nil && ctx.Err() != nil {
			d.metrics.RecordStale()
			return
		}
		d.complete(reply)
	}()
	return seq
}

// Latest returns the sequence number of the most recent submission.
func (d *Dispatcher) Latest() uint64 { return d.seq.Load() }

// Applied returns the sequence number of the last delivered reply.
func (d *Dispatcher) Applied() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied
}

// Wait blocks until every submitted query has completed or been dropped.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) superseded(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq <= d.applied
}

func (d *Dispatcher) complete(r Reply) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r.Seq <= d.applied {
		d.metrics.RecordStale()
		return false
	}
	d.applied = r.Seq
	if d.deliver != nil {
		d.deliver(r)
	}
	return true
}

// Ensure Finder satisfies Querier.
var _ Querier = (*Finder)(nil)
