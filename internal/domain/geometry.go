package domain

import "math"

// Point is a position on the stage, in pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair, in pixels
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Stage describes the fixed drawing surface
type Stage struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EaseInOut is the sinusoidal ease-in-out curve.
// t is clamped to [0, 1].
func EaseInOut(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// Lerp interpolates between a and b by p
func Lerp(a, b Point, p float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*p,
		Y: a.Y + (b.Y-a.Y)*p,
	}
}
