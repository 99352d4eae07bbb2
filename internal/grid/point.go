// Package grid provides the park tile grid and the spatial types shared by
// every simulation subsystem. Cells are addressed by integer (x, y) with the
// origin in the top-left corner.
package grid

import "fmt"

// Point is a cell coordinate on the grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p offset by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the offset from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four cardinal directions.
type Direction uint8

const (
	DirNone Direction = iota
	North
	East
	South
	West
)

// NeighborOffsets lists the four cardinal offsets in N, E, S, W order.
// Every neighbour scan iterates in this order so results are deterministic.
var NeighborOffsets = [4]Point{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// Neighbors returns the four orthogonally adjacent cells (not bounds-checked).
func (p Point) Neighbors() [4]Point {
	var result [4]Point
	for i, d := range NeighborOffsets {
		result[i] = p.Add(d)
	}
	return result
}

// DirectionTo returns the cardinal direction from p to an adjacent cell q,
// or DirNone when q is not orthogonally adjacent.
func (p Point) DirectionTo(q Point) Direction {
	switch q.Sub(p) {
	case Point{X: 0, Y: -1}:
		return North
	case Point{X: 1, Y: 0}:
		return East
	case Point{X: 0, Y: 1}:
		return South
	case Point{X: -1, Y: 0}:
		return West
	}
	return DirNone
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return DirNone
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return "none"
}

// Manhattan returns the 4-connected distance between two cells.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Chebyshev returns the 8-connected distance between two cells.
func Chebyshev(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b Point) bool {
	return Manhattan(a, b) == 1
}

// Rect is an axis-aligned block of cells. W and H are in cells.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Points returns every cell of the rectangle in row-major order.
func (r Rect) Points() []Point {
	if r.W <= 0 || r.H <= 0 {
		return nil
	}
	pts := make([]Point, 0, r.W*r.H)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

// Center returns the cell nearest the middle of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// EdgeAdjacent reports whether p lies outside the rectangle and shares an edge
// with one of its cells. Diagonal (outside corner) cells are excluded.
func (r Rect) EdgeAdjacent(p Point) bool {
	if r.Contains(p) {
		return false
	}
	for _, n := range p.Neighbors() {
		if r.Contains(n) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
