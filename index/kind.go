package index

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/viant/nnview/index/bruteforce"
	"github.com/viant/nnview/index/cover"
	"github.com/viant/nnview/index/vptree"
	"github.com/viant/nnview/point"
)

// Kind names an index implementation.
type Kind string

const (
	KindAuto    Kind = "auto"
	KindBrute   Kind = "brute"
	KindPartial Kind = "partial"
	KindCover   Kind = "cover"
	KindVPTree  Kind = "vptree"
)

// AutoCoverMinPoints is the set size from which KindAuto picks the cover
// tree instead of brute force.
const AutoCoverMinPoints = 4000

// Kinds lists every concrete kind.
var Kinds = []Kind{KindBrute, KindPartial, KindCover, KindVPTree}

// ParseKind resolves a case-insensitive kind name; "" means auto.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindBrute, KindPartial, KindCover, KindVPTree:
		return k, nil
	default:
		return "", fmt.Errorf("index: unknown kind %q: %w", s, point.ErrInvalidArgument)
	}
}

// Resolve maps KindAuto to a concrete kind for a set of the given size.
func (k Kind) Resolve(size int) Kind {
	if k != KindAuto && k != "" {
		return k
	}
	if size >= AutoCoverMinPoints {
		return KindCover
	}
	return KindBrute
}

// New creates an unbuilt index of the given kind sized for size points.
func New(kind Kind, size int) (Index, error) {
	switch kind.Resolve(size) {
	case KindBrute:
		return bruteforce.New(bruteforce.WithWorkers(runtime.GOMAXPROCS(0))), nil
	case KindPartial:
		return bruteforce.New(bruteforce.WithPartialSelection(), bruteforce.WithWorkers(runtime.GOMAXPROCS(0))), nil
	case KindCover:
		return cover.New(), nil
	case KindVPTree:
		return vptree.New(), nil
	default:
		return nil, fmt.Errorf("index: unknown kind %q: %w", kind, point.ErrInvalidArgument)
	}
}

// Build creates and builds an index of the given kind over points.
func Build(kind Kind, points []point.Point) (Index, Kind, error) {
	resolved := kind.Resolve(len(points))
	idx, err := New(resolved, len(points))
	if err != nil {
		return nil, "", err
	}
	if err := idx.Build(points); err != nil {
		return nil, "", fmt.Errorf("index: build %s: %w", resolved, err)
	}
	return idx, resolved, nil
}

// Ensure implementations satisfy the Index interface.
var (
	_ Index = (*bruteforce.Index)(nil)
	_ Index = (*cover.Index)(nil)
	_ Index = (*vptree.Index)(nil)
)
