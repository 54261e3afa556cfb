package nntable

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"github.com/viant/nnview/index"
	"github.com/viant/nnview/knn"
	"github.com/viant/nnview/point"
)

// ModuleName is the name used in CREATE VIRTUAL TABLE ... USING.
const ModuleName = "nn"

// Column positions of the declared schema.
const (
	colDataset = iota
	colQuery
	colK
	colID
	colDistance
	colRank
)

// Filter plans.
const (
	planRankAll = 1
	planTopK    = 2
)

var (
	registerOnce sync.Once
	registerErr  error

	source struct {
		mu    sync.RWMutex
		store point.Store
	}
)

// Register installs the nn module and the nn_invalidate SQL function.
// Only connections opened afterwards see them, so call it before opening
// the database. It is safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		if err := vtab.RegisterModule(nil, ModuleName, &Module{}); err != nil && !strings.Contains(err.Error(), "already registered") {
			registerErr = err
			return
		}
		registerErr = sqlite.RegisterScalarFunction("nn_invalidate", 1, invalidateFunc)
	})
	return registerErr
}

// SetSource binds the store nn tables load point sets from and drops every
// cached finder.
func SetSource(store point.Store) {
	source.mu.Lock()
	source.store = store
	source.mu.Unlock()
	Invalidate("")
}

func currentSource() (point.Store, error) {
	source.mu.RLock()
	defer source.mu.RUnlock()
	if source.store == nil {
		return nil, fmt.Errorf("nntable: no point source, call SetSource")
	}
	return source.store, nil
}

// Module implements vtab.Module for nn tables.
type Module struct{}

// Table is one nn virtual table.
type Table struct {
	name   string
	kind   index.Kind
	policy knn.Policy
}

// Create declares the table schema and parses its options.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("nntable: expected at least 3 args, got %d", len(args))
	}
	t := &Table{name: args[2], kind: index.KindAuto, policy: knn.ExcludeByID}
	if err := t.parseOptions(args[3:]); err != nil {
		return nil, err
	}
	schema := fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT HIDDEN, query INTEGER HIDDEN, k INTEGER HIDDEN, id INTEGER, distance REAL, rank INTEGER)", args[2])
	if err := ctx.Declare(schema); err != nil {
		return nil, err
	}
	return t, nil
}

// parseOptions reads key=value module arguments: index and policy.
func (t *Table) parseOptions(args []string) error {
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("nntable: option %q is not key=value", arg)
		}
		value = strings.Trim(strings.TrimSpace(value), `'"`)
		var err error
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "index":
			t.kind, err = index.ParseKind(value)
		case "policy":
			t.policy, err = knn.ParsePolicy(value)
		default:
			err = fmt.Errorf("nntable: unknown option %q", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// BestIndex requires equality on dataset_id and query; k is optional.
// Rows are produced in rank order, so ORDER BY distance[, id] or rank is
// consumed.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var dataset, query, k *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable || c.Op != vtab.OpEQ {
			continue
		}
		switch c.Column {
		case colDataset:
			dataset = c
		case colQuery:
			query = c
		case colK:
			k = c
		}
	}
	if dataset == nil || query == nil {
		return fmt.Errorf("nntable: %s needs dataset_id = ? and query = ? constraints", t.name)
	}
	dataset.ArgIndex, dataset.Omit = 0, true
	query.ArgIndex, query.Omit = 1, true
	info.IdxNum = planRankAll
	if k != nil {
		k.ArgIndex, k.Omit = 2, true
		info.IdxNum = planTopK
	}
	info.OrderByConsumed = rankOrdered(info.OrderBy)
	info.EstimatedCost = 1
	return nil
}

func rankOrdered(orderBy []vtab.OrderBy) bool {
	if len(orderBy) == 0 {
		return false
	}
	for _, ob := range orderBy {
		if ob.Desc {
			return false
		}
	}
	switch {
	case len(orderBy) == 1:
		c := orderBy[0].Column
		return c == colRank || c == colDistance
	case len(orderBy) == 2:
		return orderBy[0].Column == colDistance && orderBy[1].Column == colID
	}
	return false
}

// Open allocates a cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect releases nothing; cached finders outlive connections.
func (t *Table) Disconnect() error { return nil }

// Destroy releases nothing.
func (t *Table) Destroy() error { return nil }

// Cursor iterates one ranked result.
type Cursor struct {
	table   *Table
	dataset string
	query   int64
	k       int64
	rows    point.Result
	pos     int
}

// Filter runs the neighbor query for the planned constraints.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos = nil, 0
	if len(vals) < 2 {
		return fmt.Errorf("nntable: dataset_id and query arguments are required")
	}
	var err error
	if c.dataset, err = asString(vals[0]); err != nil {
		return err
	}
	if c.query, err = asInt(vals[1], "query"); err != nil {
		return err
	}
	finder, err := finderFor(context.Background(), c.dataset, c.table.kind, c.table.policy)
	if err != nil {
		return err
	}
	c.k = int64(finder.Set().Len())
	if idxNum == planTopK {
		if len(vals) < 3 {
			return fmt.Errorf("nntable: missing k argument")
		}
		if c.k, err = asInt(vals[2], "k"); err != nil {
			return err
		}
	}
	c.rows, err = finder.Nearest(context.Background(), int(c.query), int(c.k))
	return err
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end of rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns a value of the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos >= len(c.rows) {
		return nil, fmt.Errorf("nntable: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	row := c.rows[c.pos]
	switch col {
	case colDataset:
		return c.dataset, nil
	case colQuery:
		return c.query, nil
	case colK:
		return c.k, nil
	case colID:
		return int64(row.ID), nil
	case colDistance:
		return row.Distance, nil
	case colRank:
		return int64(c.pos + 1), nil
	}
	return nil, fmt.Errorf("nntable: unsupported column %d", col)
}

// Rowid returns the 1-based rank.
func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }

// Close releases the rows.
func (c *Cursor) Close() error {
	c.rows, c.pos = nil, 0
	return nil
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("nntable: dataset_id is nil")
	default:
		return "", fmt.Errorf("nntable: unsupported dataset_id type %T", v)
	}
}

func asInt(v vtab.Value, name string) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("nntable: %s %v is not an integer: %w", name, val, point.ErrInvalidArgument)
		}
		return int64(val), nil
	case nil:
		return 0, fmt.Errorf("nntable: %s is nil: %w", name, point.ErrInvalidArgument)
	default:
		return 0, fmt.Errorf("nntable: unsupported %s type %T", name, v)
	}
}

// invalidateFunc implements nn_invalidate(dataset TEXT) -> INT; NULL or ''
// drops every cached finder.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	dataset := ""
	if args[0] != nil {
		var err error
		if dataset, err = asString(args[0]); err != nil {
			return nil, err
		}
	}
	return int64(Invalidate(dataset)), nil
}
