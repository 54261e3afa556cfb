package session

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/viant/nnview/knn"
	"github.com/viant/nnview/logging"
	"github.com/viant/nnview/metrics"
	"github.com/viant/nnview/point"
)

const (
	// DefaultK is the initial neighbor count.
	DefaultK = 7
	// DefaultAsyncThreshold is the set size from which queries run
	// asynchronously.
	DefaultAsyncThreshold = 10000
)

// Renderer receives every new view. It is called with deliveries
// serialized and must not call back into the event handlers.
type Renderer func(View)

// Session is the controller behind one interactive point cloud view.
type Session struct {
	set      *point.Set
	querier  knn.Querier
	render   Renderer
	onError  func(error)
	classes  Classes
	imageDir string
	width    int
	logger   *logging.Logger
	metrics  *metrics.Registry

	dispatcher *knn.Dispatcher

	// events serializes handlers so state changes and renders keep the
	// same order.
	events sync.Mutex

	mu       sync.Mutex
	selected int
	hasSel   bool
	k        int
	view     *View
	lastErr  error
}

type options struct {
	k              int
	classes        Classes
	imageDir       string
	width          int
	asyncThreshold int
	workers        int
	logger         *logging.Logger
	metrics        *metrics.Registry
	onError        func(error)
}

// Option configures a Session.
type Option func(*options)

// WithK sets the initial neighbor count (default DefaultK).
func WithK(k int) Option { return func(o *options) { o.k = k } }

// WithClasses sets the class names indexed by label.
func WithClasses(names ...string) Option {
	return func(o *options) { o.classes = append(Classes(nil), names...) }
}

// WithImageDir prefixes image references in views.
func WithImageDir(dir string) Option { return func(o *options) { o.imageDir = dir } }

// WithGalleryWidth sets the gallery row width (default DefaultGalleryWidth).
func WithGalleryWidth(width int) Option { return func(o *options) { o.width = width } }

// WithAsyncThreshold sets the set size from which queries are dispatched
// asynchronously. Zero or less disables the async path.
func WithAsyncThreshold(n int) Option { return func(o *options) { o.asyncThreshold = n } }

// WithWorkers bounds concurrent asynchronous queries (default GOMAXPROCS).
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics sets the metrics registry.
func WithMetrics(r *metrics.Registry) Option { return func(o *options) { o.metrics = r } }

// WithErrorHandler receives query failures, including asynchronous ones.
func WithErrorHandler(fn func(error)) Option { return func(o *options) { o.onError = fn } }

// New creates a session over set answering queries with q. render may be
// nil when the caller polls View instead.
func New(set *point.Set, q knn.Querier, render Renderer, opts ...Option) (*Session, error) {
	if set == nil || q == nil {
		return nil, fmt.Errorf("session: set and querier are required: %w", point.ErrInvalidArgument)
	}
	o := options{
		k:              DefaultK,
		classes:        DefaultClasses,
		width:          DefaultGalleryWidth,
		asyncThreshold: DefaultAsyncThreshold,
		workers:        runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.k < 0 {
		return nil, fmt.Errorf("session: k=%d: %w", o.k, point.ErrInvalidArgument)
	}
	if o.logger == nil {
		o.logger = logging.NoopLogger()
	}

	s := &Session{
		set:      set,
		querier:  q,
		render:   render,
		onError:  o.onError,
		classes:  o.classes,
		imageDir: o.imageDir,
		width:    o.width,
		logger:   o.logger,
		metrics:  o.metrics,
		k:        o.k,
	}
	if o.asyncThreshold > 0 && set.Len() >= o.asyncThreshold {
		s.dispatcher = knn.NewDispatcher(q, s.deliver, o.workers, o.metrics)
	}
	return s, nil
}

// Async reports whether queries are dispatched asynchronously.
func (s *Session) Async() bool { return s.dispatcher != nil }

// OnPointSelected makes id the query point and queries its neighbors with
// the current K. An unknown id leaves the session unchanged.
func (s *Session) OnPointSelected(ctx context.Context, id int) error {
	if _, ok := s.set.Lookup(id); !ok {
		err := fmt.Errorf("session: select %d: %w", id, point.ErrNotFound)
		s.logger.WithQuery(id).WarnContext(ctx, "point selection rejected", "error", err)
		return err
	}
	s.events.Lock()
	defer s.events.Unlock()

	s.mu.Lock()
	s.selected, s.hasSel = id, true
	k := s.k
	s.mu.Unlock()
	return s.query(ctx, id, k)
}

// OnKChanged stores k and re-queries the current selection, if any.
func (s *Session) OnKChanged(ctx context.Context, k int) error {
	if k < 0 {
		err := fmt.Errorf("session: k=%d: %w", k, point.ErrInvalidArgument)
		s.logger.WithK(k).WarnContext(ctx, "k change rejected", "error", err)
		return err
	}
	s.events.Lock()
	defer s.events.Unlock()

	s.mu.Lock()
	s.k = k
	id, ok := s.selected, s.hasSel
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.query(ctx, id, k)
}

func (s *Session) query(ctx context.Context, id, k int) error {
	if s.dispatcher != nil {
		s.dispatcher.Submit(ctx, id, k)
		return nil
	}
	result, err := s.querier.Nearest(ctx, id, k)
	return s.apply(ctx, knn.Reply{QueryID: id, K: k, Result: result, Err: err})
}

func (s *Session) deliver(r knn.Reply) {
	_ = s.apply(context.Background(), r)
}

// apply turns a reply into the current view. A failed reply keeps the
// previous view.
func (s *Session) apply(ctx context.Context, r knn.Reply) error {
	err := r.Err
	var view View
	if err == nil {
		var query point.Point
		if query, err = s.set.Get(r.QueryID); err == nil {
			view, err = buildView(s.set, query, r.K, r.Result, s.classes, s.imageDir, s.width)
		}
	}
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.logger.WithQuery(r.QueryID).WithK(r.K).WarnContext(ctx, "view not updated", "error", err)
		if s.onError != nil {
			s.onError(err)
		}
		return err
	}

	s.mu.Lock()
	s.view = &view
	s.lastErr = nil
	s.mu.Unlock()
	if s.render != nil {
		s.render(view)
	}
	return nil
}

// View returns the current view; ok is false before the first successful
// query.
func (s *Session) View() (view View, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return View{}, false
	}
	return *s.view, true
}

// K returns the current neighbor count.
func (s *Session) K() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.k
}

// Selected returns the current query point id.
func (s *Session) Selected() (id int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSel
}

// Err returns the error of the last applied reply, nil after a success.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Legend lists the classes present in the set.
func (s *Session) Legend() []LegendEntry { return s.classes.Legend(s.set) }

// Wait blocks until in-flight asynchronous queries are applied or dropped.
func (s *Session) Wait() {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
}
