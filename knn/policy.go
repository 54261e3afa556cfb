package knn

import (
	"fmt"
	"strings"

	"github.com/viant/nnview/point"
)

// Policy decides how the query point is removed from its own ranking.
type Policy int

const (
	// ExcludeByID removes the entry whose id equals the query id. Coincident
	// points with other ids stay in the result.
	ExcludeByID Policy = iota

	// ExcludeFirst drops rank 0 whatever its id. This is the legacy
	// behavior; when a coincident point has a smaller id it is dropped
	// instead and the query point is reported as its own neighbor.
	ExcludeFirst
)

func (p Policy) String() string {
	switch p {
	case ExcludeByID:
		return "id"
	case ExcludeFirst:
		return "first"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy resolves "id" or "first"; "" means ExcludeByID.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "id":
		return ExcludeByID, nil
	case "first", "rank0", "positional":
		return ExcludeFirst, nil
	default:
		return 0, fmt.Errorf("knn: unknown exclusion policy %q: %w", s, point.ErrInvalidArgument)
	}
}

// apply removes the query point from a ranking sorted by (distance, id)
// and truncates it to k.
func (p Policy) apply(ranked []point.Neighbor, queryID, k int) point.Result {
	switch p {
	case ExcludeFirst:
		if len(ranked) > 0 {
			ranked = ranked[1:]
		}
	default:
		for i, n := range ranked {
			if n.ID == queryID {
				ranked = append(ranked[:i:i], ranked[i+1:]...)
				break
			}
		}
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return point.Result(ranked)
}
