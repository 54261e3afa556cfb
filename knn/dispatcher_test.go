package knn

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nnview/metrics"
	"github.com/viant/nnview/point"
)

// gatedQuerier blocks each query until its gate for the query id is
// released, so tests control completion order.
type gatedQuerier struct {
	mu      sync.Mutex
	gates   map[int]chan struct{}
	started chan int
}

func newGatedQuerier(ids ...int) *gatedQuerier {
	g := &gatedQuerier{gates: map[int]chan struct{}{}, started: make(chan int, len(ids))}
	for _, id := range ids {
		g.gates[id] = make(chan struct{})
	}
	return g
}

func (g *gatedQuerier) release(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[id])
}

func (g *gatedQuerier) Nearest(ctx context.Context, queryID, k int) (point.Result, error) {
	g.mu.Lock()
	gate := g.gates[queryID]
	g.mu.Unlock()
	g.started <- queryID
	select {
	case <-gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return point.Result{{ID: queryID, Distance: float64(k)}}, nil
}

type replyLog struct {
	mu      sync.Mutex
	replies []Reply
}

func (r *replyLog) deliver(reply Reply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
}

func (r *replyLog) seqs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.replies))
	for i, reply := range r.replies {
		out[i] = reply.Seq
	}
	return out
}

func TestDispatcher_DiscardsStaleReply(t *testing.T) {
	q := newGatedQuerier(1, 2)
	var log replyLog
	reg := metrics.NewRegistry()
	d := NewDispatcher(q, log.deliver, 2, reg)

	first := d.Submit(context.Background(), 1, 3)
	<-q.started
	second := d.Submit(context.Background(), 2, 4)
	<-q.started
	assert.Equal(t, second, d.Latest())

	// the newer query finishes first; the older reply must be dropped
	q.release(2)
	require.Eventually(t, func() bool { return d.Applied() == second }, time.Second, time.Millisecond)
	q.release(1)
	d.Wait()

	assert.Equal(t, []uint64{second}, log.seqs())
	assert.Equal(t, second, d.Applied())
	assert.Less(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StaleResultsTotal))

	require.Len(t, log.replies, 1)
	assert.Equal(t, 2, log.replies[0].QueryID)
	assert.Equal(t, 4, log.replies[0].K)
	assert.Equal(t, point.Result{{ID: 2, Distance: 4}}, log.replies[0].Result)
}

func TestDispatcher_InOrderCompletion(t *testing.T) {
	q := newGatedQuerier(1, 2)
	var log replyLog
	d := NewDispatcher(q, log.deliver, 2, nil)

	d.Submit(context.Background(), 1, 1)
	<-q.started
	d.Submit(context.Background(), 2, 1)
	<-q.started

	q.release(1)
	q.release(2)
	d.Wait()

	seqs := log.seqs()
	// the first reply may or may not win the race against the second;
	// whatever is delivered is strictly increasing and ends at the latest
	require.NotEmpty(t, seqs)
	assert.Equal(t, d.Latest(), seqs[len(seqs)-1])
	for i := 1; i < len(seqs); i++ {
		assert.Less(t, seqs[i-1], seqs[i])
	}
}

func TestDispatcher_SkipsSupersededJob(t *testing.T) {
	q := newGatedQuerier(1, 2, 3)
	var log replyLog
	reg := metrics.NewRegistry()
	d := NewDispatcher(q, log.deliver, 1, reg)

	d.Submit(context.Background(), 1, 1)
	<-q.started
	// with a single worker, query 2 and 3 wait for the semaphore
	d.Submit(context.Background(), 2, 1)
	d.Submit(context.Background(), 3, 1)

	q.release(1)
	q.release(2)
	q.release(3)
	d.Wait()

	seqs := log.seqs()
	require.NotEmpty(t, seqs)
	assert.Equal(t, uint64(3), seqs[len(seqs)-1])
	delivered := float64(len(seqs))
	assert.Equal(t, 3.0-delivered, testutil.ToFloat64(reg.StaleResultsTotal))
}

func TestDispatcher_CancelledContext(t *testing.T) {
	q := newGatedQuerier(1)
	var log replyLog
	reg := metrics.NewRegistry()
	d := NewDispatcher(q, log.deliver, 0, reg)

	ctx, cancel := context.WithCancel(context.Background())
	d.Submit(ctx, 1, 1)
	<-q.started
	cancel()
	d.Wait()

	assert.Empty(t, log.replies)
	assert.Equal(t, uint64(0), d.Applied())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StaleResultsTotal))
}

func TestDispatcher_CancelledNewerKeepsOlderReply(t *testing.T) {
	q := newGatedQuerier(1, 2)
	var log replyLog
	reg := metrics.NewRegistry()
	d := NewDispatcher(q, log.deliver, 1, reg)

	first := d.Submit(context.Background(), 1, 3)
	<-q.started

	// the newer query waits for the only worker and is cancelled there
	ctx, cancel := context.WithCancel(context.Background())
	d.Submit(ctx, 2, 4)
	cancel()
	require.Eventually(t, func() bool { return testutil.ToFloat64(reg.StaleResultsTotal) == 1 }, time.Second, time.Millisecond)

	q.release(1)
	d.Wait()

	assert.Equal(t, []uint64{first}, log.seqs())
	assert.Equal(t, first, d.Applied())
	require.Len(t, log.replies, 1)
	assert.Equal(t, point.Result{{ID: 1, Distance: 3}}, log.replies[0].Result)
}
