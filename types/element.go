package types

import (
	"fmt"
	"strings"
)

type ElementType uint8

const (
	Point ElementType = iota
	Line
	Triangle
	Tetrahedron
)

var ElementNameMap = map[string]ElementType{
	"point":       Point,
	"line":        Line,
	"triangle":    Triangle,
	"tri":         Triangle,
	"tetrahedron": Tetrahedron,
	"tet":         Tetrahedron,
}

func NewElementType(label string) (et ElementType, err error) {
	var ok bool
	if et, ok = ElementNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown element type %q", label)
	}
	return
}

// Dimension is the topological dimension of the element.
func (et ElementType) Dimension() int { return int(et) }

// CountVertices of the linear element.
func (et ElementType) CountVertices() int { return int(et) + 1 }

func (et ElementType) String() string {
	switch et {
	case Point:
		return "point"
	case Line:
		return "line"
	case Triangle:
		return "triangle"
	case Tetrahedron:
		return "tetrahedron"
	}
	return fmt.Sprintf("ElementType(%d)", uint8(et))
}

// Direction of a derivative: space directions x, y, z or time.
type Direction uint8

const (
	DirX Direction = iota
	DirY
	DirZ
	DirT
)

func (d Direction) String() string {
	return [...]string{"x", "y", "z", "t"}[d]
}
