package knn

import (
	"context"
	"time"

	"github.com/viant/nnview/index"
	"github.com/viant/nnview/logging"
	"github.com/viant/nnview/metrics"
	"github.com/viant/nnview/point"
)

// Finder answers neighbor queries against a point set through a prebuilt
// index. It is immutable after New and safe for concurrent use.
type Finder struct {
	set     *point.Set
	idx     index.Index
	kind    index.Kind
	policy  Policy
	logger  *logging.Logger
	metrics *metrics.Registry
}

type options struct {
	policy  Policy
	kind    index.Kind
	logger  *logging.Logger
	metrics *metrics.Registry
}

// Option configures a Finder.
type Option func(*options)

// WithPolicy sets the self-exclusion policy (default ExcludeByID).
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithIndex selects the index kind (default index.KindAuto).
func WithIndex(kind index.Kind) Option {
	return func(o *options) { o.kind = kind }
}

// WithLogger sets the logger (default discards output).
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics registry (default none).
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// New builds the configured index over set.
func New(set *point.Set, opts ...Option) (*Finder, error) {
	o := options{policy: ExcludeByID, kind: index.KindAuto}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NoopLogger()
	}

	start := time.Now()
	idx, kind, err := index.Build(o.kind, set.Points())
	elapsed := time.Since(start)
	o.logger.LogBuild(context.Background(), string(o.kind.Resolve(set.Len())), set.Len(), elapsed, err)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordBuild(string(kind), set.Len(), elapsed)

	return &Finder{
		set:     set,
		idx:     idx,
		kind:    kind,
		policy:  o.policy,
		logger:  o.logger.WithIndex(string(kind)),
		metrics: o.metrics,
	}, nil
}

// Set returns the point set the finder was built from.
func (f *Finder) Set() *point.Set { return f.set }

// Kind returns the resolved index kind.
func (f *Finder) Kind() index.Kind { return f.kind }

// Policy returns the self-exclusion policy.
func (f *Finder) Policy() Policy { return f.policy }

// Nearest returns the k nearest neighbors of the point with id queryID,
// ordered by distance then id, with the query point removed per policy.
// Errors follow NearestNeighbors.
func (f *Finder) Nearest(ctx context.Context, queryID, k int) (point.Result, error) {
	start := time.Now()
	result, err := f.nearest(queryID, k)
	elapsed := time.Since(start)

	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	f.metrics.RecordQuery(string(f.kind), status, elapsed, len(result))
	f.logger.LogQuery(ctx, queryID, k, len(result), elapsed, err)
	return result, err
}

func (f *Finder) nearest(queryID, k int) (point.Result, error) {
	query, err := validate(f.set, queryID, k)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		return point.Result{}, nil
	}
	// One extra candidate leaves room for the excluded query point.
	n := f.set.Len()
	if k < n {
		n = k + 1
	}
	ranked, err := f.idx.Query(query, n)
	if err != nil {
		return nil, err
	}
	return f.policy.apply(ranked, queryID, k), nil
}
