package point

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed requests, e.g. negative k.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a query id is not part of the point set.
	ErrNotFound = errors.New("not found")

	// ErrNumericAnomaly is returned when a NaN or infinite distance is met.
	ErrNumericAnomaly = errors.New("numeric anomaly")
)

// AnomalyError identifies the point whose distance was not finite.
//
// It unwraps to ErrNumericAnomaly.
type AnomalyError struct {
	ID       int
	Distance float64
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("numeric anomaly: point %d has distance %v", e.ID, e.Distance)
}

func (e *AnomalyError) Unwrap() error { return ErrNumericAnomaly }
