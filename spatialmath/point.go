// Package spatialmath defines homogeneous points, rigid transforms and rotation conversions.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrPointAtInfinity is returned when a homogeneous point with W == 0 has to be dehomogenized.
var ErrPointAtInfinity = errors.New("homogeneous point is at infinity")

// Point is a 3D point in homogeneous coordinates, representing (X/W, Y/W, Z/W).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// NewPoint returns the homogeneous form of v with W set to 1.
func NewPoint(v r3.Vector) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z, W: 1}
}

// NewPointFromVec reads a homogeneous point from a 4-vector.
func NewPointFromVec(v mat.Vector) (Point, error) {
	if v.Len() != 4 {
		return Point{}, errors.Errorf("homogeneous point needs 4 components, got %d", v.Len())
	}
	return Point{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2), W: v.AtVec(3)}, nil
}

// Normalize returns the same point scaled so that W == 1.
func (p Point) Normalize() (Point, error) {
	if p.W == 0 {
		return Point{}, ErrPointAtInfinity
	}
	return Point{X: p.X / p.W, Y: p.Y / p.W, Z: p.Z / p.W, W: 1}, nil
}

// Vector returns the dehomogenized 3D coordinates.
func (p Point) Vector() (r3.Vector, error) {
	n, err := p.Normalize()
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: n.X, Y: n.Y, Z: n.Z}, nil
}

// VecDense returns the point as a 4x1 vector.
func (p Point) VecDense() *mat.VecDense {
	return mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, p.W})
}

// ApproxEqual compares two points after dehomogenization.
func (p Point) ApproxEqual(other Point, tol float64) bool {
	a, errA := p.Vector()
	b, errB := other.Vector()
	if errA != nil || errB != nil {
		return false
	}
	return a.Sub(b).Norm() <= tol
}

func (p Point) String() string {
	return fmt.Sprintf("(%g;%g;%g;%g)", p.X, p.Y, p.Z, p.W)
}
