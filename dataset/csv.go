// Package dataset loads point sets from delimited files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/viant/nnview/point"
)

// Column names of the embedding CSV.
const (
	ColumnFile  = "file"
	ColumnX     = "x"
	ColumnY     = "y"
	ColumnLabel = "label"
)

var required = []string{ColumnFile, ColumnX, ColumnY, ColumnLabel}

// RowError reports a malformed value. Row counts data rows from 1.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("dataset: row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("dataset: row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ReadCSV parses a header row naming file, x, y and label in any order,
// followed by one point per row. Row i (from 0) gets ID i. Extra columns
// are ignored. Non-finite coordinates are accepted; labels must be
// non-negative integers.
func ReadCSV(r io.Reader) (*point.Set, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dataset: missing header: %w", point.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var points []point.Point
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowError{Row: row, Err: err}
		}
		p, err := parseRecord(record, cols, row)
		if err != nil {
			return nil, err
		}
		p.ID = len(points)
		points = append(points, p)
	}
	return point.NewSet(points)
}

// LoadCSV reads the file at path with ReadCSV.
func LoadCSV(path string) (*point.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// NewID returns a fresh dataset id for imported sets.
func NewID() string {
	return uuid.NewString()
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(required))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset: header is missing column %q: %w", name, point.ErrInvalidArgument)
		}
	}
	return cols, nil
}

func parseRecord(record []string, cols map[string]int, row int) (point.Point, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(record) {
			return "", &RowError{Row: row, Column: name, Err: fmt.Errorf("missing value: %w", point.ErrInvalidArgument)}
		}
		return strings.TrimSpace(record[i]), nil
	}

	var p point.Point
	var err error
	if p.ImageRef, err = field(ColumnFile); err != nil {
		return p, err
	}
	if p.X, err = parseCoord(field, ColumnX, row); err != nil {
		return p, err
	}
	if p.Y, err = parseCoord(field, ColumnY, row); err != nil {
		return p, err
	}
	raw, err := field(ColumnLabel)
	if err != nil {
		return p, err
	}
	if p.Label, err = strconv.Atoi(raw); err != nil || p.Label < 0 {
		return p, &RowError{Row: row, Column: ColumnLabel, Err: fmt.Errorf("invalid label %q: %w", raw, point.ErrInvalidArgument)}
	}
	return p, nil
}

func parseCoord(field func(string) (string, error), name string, row int) (float64, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		var numErr *strconv.NumError
		// out-of-range values parse to ±Inf and are kept for the engine to report
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v, nil
		}
		return 0, &RowError{Row: row, Column: name, Err: fmt.Errorf("invalid number %q: %w", raw, point.ErrInvalidArgument)}
	}
	return v, nil
}
