package engine

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once
var registerErr error

// RegisterFunctions registers nn_l2 with the driver so it is available on
// new connections opened after this call. Existing open connections will not
// see it. Calling it more than once is harmless.
//
//	nn_l2(a BLOB, b BLOB) -> REAL
//
// Both arguments are coordinate BLOBs as written by point.EncodeCoords.
func RegisterFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("nn_l2", 2, nnL2Impl)
	})
	return registerErr
}

func nnL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("nn_l2: expected 2 arguments, got %d", len(args))
	}
	ax, ay, ok, err := asCoords(args[0])
	if err != nil || !ok {
		return nil, err
	}
	bx, by, ok, err := asCoords(args[1])
	if err != nil || !ok {
		return nil, err
	}
	dx := ax - bx
	dy := ay - by
	return math.Sqrt(dx*dx + dy*dy), nil
}

// Local minimal decoder to avoid an import cycle with package point, whose
// tests depend on this package.
func asCoords(arg driver.Value) (x, y float64, ok bool, err error) {
	switch v := arg.(type) {
	case nil:
		return 0, 0, false, nil
	case []byte:
		if len(v) != 16 {
			return 0, 0, false, fmt.Errorf("nn_l2: invalid coords blob length %d", len(v))
		}
		x = math.Float64frombits(binary.LittleEndian.Uint64(v[0:8]))
		y = math.Float64frombits(binary.LittleEndian.Uint64(v[8:16]))
		return x, y, true, nil
	default:
		return 0, 0, false, fmt.Errorf("nn_l2: unsupported argument type %T; want BLOB", arg)
	}
}
