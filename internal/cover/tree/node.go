package tree

import (
	"math"

	"github.com/viant/nnview/point"
)

// Node represents a cover-tree node. Every descendant of a node lies
// within radius of its point.
type Node struct {
	level     int32
	baseLevel float64
	point     point.Point
	children  []Node
	radius    float64
}

// NewNode constructs a node for the provided point and level.
func NewNode(p point.Point, level int32, base float64) Node {
	return Node{
		level:     level,
		baseLevel: math.Pow(base, float64(level)),
		point:     p,
	}
}

// Point returns the node's point.
func (n *Node) Point() point.Point { return n.point }
