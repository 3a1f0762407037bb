// Package ray defines rays cast by cameras and their 2D images.
package ray

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/multiview/referenceframe"
	"go.viam.com/multiview/spatialmath"
)

// ErrZeroDirection is returned when a ray's two points coincide.
var ErrZeroDirection = errors.New("ray has a zero length direction")

// Ray is an oriented line through A and B, both expressed in Frame. The direction is B - A.
//
// Origin and OriginPixel record the camera and pixel that produced the ray. They are set once when
// a pixel is unprojected and travel with the ray through every change of frame. Rays are values:
// moving a ray to another frame returns a new Ray.
type Ray struct {
	A           spatialmath.Point       `json:"a"`
	B           spatialmath.Point       `json:"b"`
	Frame       referenceframe.FrameID  `json:"frame"`
	Origin      referenceframe.CameraID `json:"origin_camera"`
	OriginPixel r2.Point                `json:"origin_pixel"`
}

// WithPoints returns a copy of the ray moved to another frame. Origin tags are kept.
func (r Ray) WithPoints(a, b spatialmath.Point, frame referenceframe.FrameID) Ray {
	r.A = a
	r.B = b
	r.Frame = frame
	return r
}

// Line returns the dehomogenized first point and the unit direction of the ray.
func (r Ray) Line() (r3.Vector, r3.Vector, error) {
	a, err := r.A.Vector()
	if err != nil {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(err, "ray point A")
	}
	b, err := r.B.Vector()
	if err != nil {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(err, "ray point B")
	}
	dir := b.Sub(a)
	norm := dir.Norm()
	if norm == 0 {
		return r3.Vector{}, r3.Vector{}, ErrZeroDirection
	}
	return a, dir.Mul(1 / norm), nil
}

// ClosestPoint returns the point on the ray's infinite line that is closest to p.
func (r Ray) ClosestPoint(p r3.Vector) (r3.Vector, error) {
	a, dir, err := r.Line()
	if err != nil {
		return r3.Vector{}, err
	}
	return a.Add(dir.Mul(p.Sub(a).Dot(dir))), nil
}

// Distance returns the perpendicular distance from p to the ray's infinite line.
func (r Ray) Distance(p r3.Vector) (float64, error) {
	closest, err := r.ClosestPoint(p)
	if err != nil {
		return 0, err
	}
	return closest.Distance(p), nil
}

func (r Ray) String() string {
	return fmt.Sprintf("Ray(A=%v B=%v, frame=%v, origin=%s)", r.A, r.B, r.Frame, r.Origin)
}

// Ray2D is the image of a ray segment in a camera's image plane.
type Ray2D struct {
	A      r2.Point                `json:"a"`
	B      r2.Point                `json:"b"`
	Camera referenceframe.CameraID `json:"camera"`
}

// Direction returns B - A in pixels.
func (r Ray2D) Direction() r2.Point {
	return r.B.Sub(r.A)
}

func (r Ray2D) String() string {
	return fmt.Sprintf("Ray2D(%v->%v, camera=%s)", r.A, r.B, r.Camera)
}
