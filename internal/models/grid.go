package models

import "fmt"

// Point is a cell on the city grid. Coordinates are zero-based and
// valid in [0, grid_size).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ManhattanDistance returns |a.x-b.x| + |a.y-b.y|.
func ManhattanDistance(a, b Point) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

// WithinRadius reports whether b lies within radius of a, inclusive.
func WithinRadius(a, b Point, radius int) bool {
	return ManhattanDistance(a, b) <= radius
}

// ClampToGrid clips a point to the grid bounds.
func ClampToGrid(p Point, gridSize int) Point {
	return Point{
		X: clampInt(p.X, 0, gridSize-1),
		Y: clampInt(p.Y, 0, gridSize-1),
	}
}

// ValidateCoordinates rejects points outside the grid.
func ValidateCoordinates(p Point, gridSize int) error {
	if p.X < 0 || p.X >= gridSize || p.Y < 0 || p.Y >= gridSize {
		return fmt.Errorf("%w: (%d, %d) not in [0, %d)", ErrOutOfBounds, p.X, p.Y, gridSize)
	}
	return nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
