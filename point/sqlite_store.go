package point

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// SQLiteStore implements Store on top of a SQLite database. Coordinates are
// kept as encoded BLOBs (see EncodeCoords) so non-finite values round-trip.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the points
// schema exists in the provided database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("point: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// SavePoints replaces the content of datasetID with set in one transaction.
func (s *SQLiteStore) SavePoints(ctx context.Context, datasetID string, set *Set) error {
	if datasetID == "" {
		return fmt.Errorf("point: SavePoints called with empty dataset id")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE dataset_id = ?`, datasetID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO points(dataset_id, id, pos, image_ref, label, coords) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, p := range set.Points() {
		if _, err := stmt.ExecContext(ctx, datasetID, p.ID, pos, p.ImageRef, p.Label, EncodeCoords(p.X, p.Y)); err != nil {
			return fmt.Errorf("point: insert id %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// LoadPoints reads a dataset back in its original order. An unknown dataset
// is reported as ErrNotFound.
func (s *SQLiteStore) LoadPoints(ctx context.Context, datasetID string) (*Set, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, image_ref, label, coords FROM points WHERE dataset_id = ? ORDER BY pos`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		var blob []byte
		if err := rows.Scan(&p.ID, &p.ImageRef, &p.Label, &blob); err != nil {
			return nil, err
		}
		if p.X, p.Y, err = DecodeCoords(blob); err != nil {
			return nil, fmt.Errorf("point: id %d: %w", p.ID, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("point: dataset %q: %w", datasetID, ErrNotFound)
	}
	return NewSet(points)
}

// Datasets lists stored dataset ids in lexical order.
func (s *SQLiteStore) Datasets(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT dataset_id FROM points ORDER BY dataset_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Remove deletes every point of a dataset.
func (s *SQLiteStore) Remove(ctx context.Context, datasetID string) error {
	if datasetID == "" {
		return fmt.Errorf("point: Remove called with empty dataset id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM points WHERE dataset_id = ?`, datasetID)
	return err
}

// Nearest ranks a stored dataset inside SQLite using the nn_l2 scalar
// function, which must be registered (see engine.RegisterFunctions) before
// the connection is opened. The query point is excluded by id and ties are
// ordered by ascending id, matching the in-memory engine.
func (s *SQLiteStore) Nearest(ctx context.Context, datasetID string, queryID, k int) (Result, error) {
	if k < 0 {
		return nil, fmt.Errorf("point: k=%d: %w", k, ErrInvalidArgument)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var query []byte
	err := s.db.QueryRowContext(ctx, `SELECT coords FROM points WHERE dataset_id = ? AND id = ?`, datasetID, queryID).Scan(&query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("point: query id %d in dataset %q: %w", queryID, datasetID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	qx, qy, err := DecodeCoords(query)
	if err != nil {
		return nil, fmt.Errorf("point: id %d: %w", queryID, err)
	}
	if err := CheckCoordinates([]Point{{ID: queryID, X: qx, Y: qy}}); err != nil {
		return nil, err
	}

	// NaN results come back as NULL and would sort first, so anomalies are
	// detected before ranking.
	var anomalyID int
	var anomaly sql.NullFloat64
	err = s.db.QueryRowContext(ctx, `
SELECT id, d FROM (
    SELECT id, pos, nn_l2(coords, ?) AS d FROM points WHERE dataset_id = ?
) WHERE d IS NULL OR abs(d) > 1.7976931348623157e308
ORDER BY pos LIMIT 1`, query, datasetID).Scan(&anomalyID, &anomaly)
	switch {
	case err == nil:
		return nil, &AnomalyError{ID: anomalyID, Distance: anomalyDistance(anomaly)}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	if k == 0 {
		return Result{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, nn_l2(coords, ?) AS d FROM points
WHERE dataset_id = ? AND id <> ?
ORDER BY d, id LIMIT ?`, query, datasetID, queryID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(Result, 0, k)
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.ID, &n.Distance); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func anomalyDistance(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
