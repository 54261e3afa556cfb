package point

import (
	"encoding/binary"
	"fmt"
	"math"
)

// coordsSize is the encoded size of an (x, y) pair.
const coordsSize = 16

// EncodeCoords encodes x and y into a BLOB suitable for storage in SQLite.
// The encoding is two little-endian IEEE 754 float64 values. Unlike a REAL
// column it keeps NaN and infinities intact.
func EncodeCoords(x, y float64) []byte {
	b := make([]byte, coordsSize)
	binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(x))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(y))
	return b
}

// DecodeCoords decodes a BLOB produced by EncodeCoords.
func DecodeCoords(b []byte) (x, y float64, err error) {
	if len(b) != coordsSize {
		return 0, 0, fmt.Errorf("point: invalid coords blob length %d (want %d)", len(b), coordsSize)
	}
	x = math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))
	y = math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))
	return x, y, nil
}
