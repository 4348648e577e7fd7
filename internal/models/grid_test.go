package models

import (
	"errors"
	"testing"
)

func TestManhattanDistance(t *testing.T) {
	cases := []struct {
		name string
		a, b Point
		want int
	}{
		{"same point", Point{X: 3, Y: 4}, Point{X: 3, Y: 4}, 0},
		{"x only", Point{X: 0, Y: 0}, Point{X: 5, Y: 0}, 5},
		{"y only", Point{X: 0, Y: 0}, Point{X: 0, Y: 7}, 7},
		{"both axes", Point{X: 1, Y: 2}, Point{X: 4, Y: 6}, 7},
		{"symmetric", Point{X: 4, Y: 6}, Point{X: 1, Y: 2}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ManhattanDistance(tc.a, tc.b); got != tc.want {
				t.Fatalf("ManhattanDistance(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestWithinRadiusInclusive(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 2}
	if !WithinRadius(a, b, 5) {
		t.Fatal("distance 5 must be within radius 5")
	}
	if WithinRadius(a, b, 4) {
		t.Fatal("distance 5 must not be within radius 4")
	}
}

func TestClampToGrid(t *testing.T) {
	cases := []struct {
		name string
		in   Point
		want Point
	}{
		{"inside", Point{X: 5, Y: 5}, Point{X: 5, Y: 5}},
		{"negative x", Point{X: -1, Y: 5}, Point{X: 0, Y: 5}},
		{"negative y", Point{X: 5, Y: -3}, Point{X: 5, Y: 0}},
		{"past east edge", Point{X: 10, Y: 5}, Point{X: 9, Y: 5}},
		{"past north edge", Point{X: 5, Y: 12}, Point{X: 5, Y: 9}},
		{"both corners", Point{X: -2, Y: 99}, Point{X: 0, Y: 9}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampToGrid(tc.in, 10); got != tc.want {
				t.Fatalf("ClampToGrid(%v, 10) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(Point{X: 0, Y: 0}, 10); err != nil {
		t.Fatalf("origin should be valid: %v", err)
	}
	if err := ValidateCoordinates(Point{X: 9, Y: 9}, 10); err != nil {
		t.Fatalf("far corner should be valid: %v", err)
	}
	for _, p := range []Point{{X: -1, Y: 0}, {X: 0, Y: -1}, {X: 10, Y: 0}, {X: 0, Y: 10}} {
		err := ValidateCoordinates(p, 10)
		if err == nil {
			t.Fatalf("point %v should be rejected", p)
		}
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("point %v: got %v, want ErrOutOfBounds", p, err)
		}
	}
}
