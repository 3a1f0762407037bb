// Package triangulation finds the 3D point closest to a set of rays.
package triangulation

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/multiview/ray"
	"go.viam.com/multiview/spatialmath"
)

var (
	// ErrInsufficientConstraints is returned when fewer than two rays are given.
	ErrInsufficientConstraints = errors.New("triangulation needs at least two rays")
	// ErrMixedFrames is returned when the rays are not all expressed in the same frame.
	ErrMixedFrames = errors.New("rays are expressed in different frames")
	// ErrDegenerateRay is returned for a ray whose two points coincide or lie at infinity.
	ErrDegenerateRay = errors.New("degenerate ray")
	// ErrIllConditioned is returned when the normal equations cannot be inverted, which happens when all
	// rays are parallel.
	ErrIllConditioned = errors.New("rays do not determine a point")
)

// Triangulate returns the point minimizing the sum of squared perpendicular distances to the lines of
// rays[start:]. The result is expressed in the rays' frame with W = 1.
//
// Each ray with first point a and unit direction v contributes the projector N = I - v vᵀ onto the
// plane orthogonal to v, and the solution is p = (Σ N)⁻¹ Σ N a. Nothing checks that p lies in front
// of the cameras that cast the rays.
func Triangulate(rays []ray.Ray, start int) (spatialmath.Point, error) {
	if start < 0 || start > len(rays) || len(rays)-start < 2 {
		return spatialmath.Point{}, errors.Wrapf(ErrInsufficientConstraints, "%d rays from index %d", len(rays), start)
	}
	rays = rays[start:]
	frame := rays[0].Frame
	if !frame.Valid() {
		return spatialmath.Point{}, errors.Wrap(ErrMixedFrames, "ray 0 has no frame")
	}

	sumN := mat.NewDense(3, 3, nil)
	sumNA := mat.NewVecDense(3, nil)
	for i, r := range rays {
		if r.Frame != frame {
			return spatialmath.Point{}, errors.Wrapf(ErrMixedFrames, "ray %d is in frame %v, ray 0 in %v", i+start, r.Frame, frame)
		}
		a, v, err := r.Line()
		if err != nil {
			return spatialmath.Point{}, errors.Wrapf(ErrDegenerateRay, "ray %d: %v", i+start, err)
		}
		n := projector(v)
		sumN.Add(sumN, n)
		var na mat.VecDense
		na.MulVec(n, mat.NewVecDense(3, []float64{a.X, a.Y, a.Z}))
		sumNA.AddVec(sumNA, &na)
	}

	var inv mat.Dense
	if err := inv.Inverse(sumN); err != nil {
		return spatialmath.Point{}, errors.Wrap(ErrIllConditioned, err.Error())
	}
	var p mat.VecDense
	p.MulVec(&inv, sumNA)
	return spatialmath.NewPoint(r3.Vector{X: p.AtVec(0), Y: p.AtVec(1), Z: p.AtVec(2)}), nil
}

// projector returns I - v vᵀ for a unit vector v.
func projector(v r3.Vector) *mat.Dense {
	vec := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	n := mat.NewDense(3, 3, nil)
	n.Outer(-1, vec, vec)
	for i := 0; i < 3; i++ {
		n.Set(i, i, n.At(i, i)+1)
	}
	return n
}

// PerpendicularDistance returns the distance from p to the line of r.
func PerpendicularDistance(r ray.Ray, p r3.Vector) (float64, error) {
	d, err := r.Distance(p)
	if err != nil {
		return 0, errors.Wrap(ErrDegenerateRay, err.Error())
	}
	return d, nil
}

// SumSquaredDistance returns the quantity Triangulate minimizes, for rays[start:] and p.
func SumSquaredDistance(rays []ray.Ray, start int, p r3.Vector) (float64, error) {
	if start < 0 || start > len(rays) {
		return 0, errors.Errorf("start index %d out of range for %d rays", start, len(rays))
	}
	sum := 0.0
	for _, r := range rays[start:] {
		d, err := PerpendicularDistance(r, p)
		if err != nil {
			return 0, err
		}
		sum += d * d
	}
	return sum, nil
}
