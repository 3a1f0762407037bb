// Package pnp estimates a camera's pose from world points and the pixels they were observed at.
package pnp

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/multiview/camera"
	"go.viam.com/multiview/logging"
	"go.viam.com/multiview/spatialmath"
)

// ErrNoSolution is returned when no pose explains the correspondences.
var ErrNoSolution = errors.New("no pose solution")

const (
	// minNonPlanar is the smallest number of points the 3D linear estimate can use.
	minNonPlanar = 6
	// planarRatio is the ratio of the smallest to the largest spread of the world points under which
	// they are treated as lying on a plane.
	planarRatio = 1e-6
	// defaultMaxIterations bounds the refinement.
	defaultMaxIterations = 200
)

// Solver is a perspective-n-point pose solver. It starts from a linear estimate, a DLT for general
// point sets or a plane homography for coplanar ones, and refines it by minimizing the reprojection
// error. Distortion coefficients are ignored.
type Solver struct {
	logger        logging.Logger
	MaxIterations int
}

// NewSolver returns a Solver that logs to logger.
func NewSolver(logger logging.Logger) *Solver {
	return &Solver{logger: logger, MaxIterations: defaultMaxIterations}
}

// SolvePose returns R and t such that p_cam = R * p_world + t.
func (s *Solver) SolvePose(
	world []r3.Vector,
	pixels []r2.Point,
	intr camera.Intrinsics,
	distortion []float64,
) (*mat.Dense, r3.Vector, error) {
	if len(world) != len(pixels) {
		return nil, r3.Vector{}, errors.Errorf("%d world points but %d pixels", len(world), len(pixels))
	}
	if len(world) < camera.MinCorrespondences {
		return nil, r3.Vector{}, errors.Wrapf(ErrNoSolution, "need at least %d points, got %d", camera.MinCorrespondences, len(world))
	}
	if err := intr.CheckValid(); err != nil {
		return nil, r3.Vector{}, err
	}

	normalized := make([]r2.Point, len(pixels))
	for i, px := range pixels {
		normalized[i] = r2.Point{X: (px.X - intr.Ppx) / intr.Fx, Y: (px.Y - intr.Ppy) / intr.Fy}
	}

	frame, err := fitPlane(world)
	if err != nil {
		return nil, r3.Vector{}, err
	}

	var rotation *mat.Dense
	var translation r3.Vector
	switch {
	case frame.planar:
		rotation, translation, err = planarPose(world, normalized, frame)
	case len(world) >= minNonPlanar:
		rotation, translation, err = linearPose(world, normalized)
	default:
		return nil, r3.Vector{}, errors.Wrapf(ErrNoSolution,
			"%d points that are not coplanar, need at least %d", len(world), minNonPlanar)
	}
	if err != nil {
		return nil, r3.Vector{}, err
	}

	rotation, translation = s.refine(world, normalized, rotation, translation)
	for i, p := range world {
		if depth(rotation, translation, p) <= 0 {
			return nil, r3.Vector{}, errors.Wrapf(ErrNoSolution, "world point %d lies behind the camera", i)
		}
	}
	if s.logger != nil {
		s.logger.Debugw("solved pose", "points", len(world), "planar", frame.planar,
			"rms_px", ReprojectionError(world, pixels, intr, rotation, translation))
	}
	return rotation, translation, nil
}

// ReprojectionError returns the root mean square distance in pixels between pixels and the projection of
// world under the pose R, t.
func ReprojectionError(world []r3.Vector, pixels []r2.Point, intr camera.Intrinsics, rotation mat.Matrix, t r3.Vector) float64 {
	if len(world) == 0 {
		return 0
	}
	sum := 0.0
	for i, p := range world {
		c := apply(rotation, t, p)
		u := intr.Fx*c.X/c.Z + intr.Ppx
		v := intr.Fy*c.Y/c.Z + intr.Ppy
		d := r2.Point{X: u, Y: v}.Sub(pixels[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(world)))
}

// planeFrame is an orthonormal frame fitted to the world points: origin at the centroid, Z along the
// direction of least spread.
type planeFrame struct {
	centroid r3.Vector
	axes     [3]r3.Vector
	planar   bool
}

func (f planeFrame) local(p r3.Vector) r3.Vector {
	d := p.Sub(f.centroid)
	return r3.Vector{X: d.Dot(f.axes[0]), Y: d.Dot(f.axes[1]), Z: d.Dot(f.axes[2])}
}

func fitPlane(world []r3.Vector) (planeFrame, error) {
	var centroid r3.Vector
	for _, p := range world {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(world)))

	centered := mat.NewDense(len(world), 3, nil)
	for i, p := range world {
		d := p.Sub(centroid)
		centered.SetRow(i, []float64{d.X, d.Y, d.Z})
	}
	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDFullV); !ok {
		return planeFrame{}, errors.Wrap(ErrNoSolution, "failed to factorize world points")
	}
	values := svd.Values(nil)
	if values[0] == 0 || values[1] <= planarRatio*values[0] {
		return planeFrame{}, errors.Wrap(ErrNoSolution, "world points are collinear")
	}
	var v mat.Dense
	svd.VTo(&v)

	frame := planeFrame{centroid: centroid, planar: len(values) < 3 || values[2] <= planarRatio*values[0]}
	for i := range frame.axes {
		frame.axes[i] = r3.Vector{X: v.At(0, i), Y: v.At(1, i), Z: v.At(2, i)}
	}
	// keep the frame right handed so that it composes into a proper rotation
	if frame.axes[0].Cross(frame.axes[1]).Dot(frame.axes[2]) < 0 {
		frame.axes[2] = frame.axes[2].Mul(-1)
	}
	return frame, nil
}

// linearPose solves for the 3x4 projection [R | t] of normalized image points with the direct linear
// transform, after moving the world points to their centroid and scaling them to unit spread.
func linearPose(world []r3.Vector, normalized []r2.Point) (*mat.Dense, r3.Vector, error) {
	centroid, scale := similarity(world)
	a := mat.NewDense(2*len(world), 12, nil)
	for i, p := range world {
		w := p.Sub(centroid).Mul(scale)
		x, y := normalized[i].X, normalized[i].Y
		a.SetRow(2*i, []float64{w.X, w.Y, w.Z, 1, 0, 0, 0, 0, -x * w.X, -x * w.Y, -x * w.Z, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, 0, w.X, w.Y, w.Z, 1, -y * w.X, -y * w.Y, -y * w.Z, -y})
	}
	h, err := nullVector(a)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	projection := mat.NewDense(3, 4, h)

	// undo the world normalization: P = P' * [sI | -s*c]
	norm := mat.NewDense(4, 4, []float64{
		scale, 0, 0, -scale * centroid.X,
		0, scale, 0, -scale * centroid.Y,
		0, 0, scale, -scale * centroid.Z,
		0, 0, 0, 1,
	})
	projection.Mul(projection, norm)

	m := mat.DenseCopyOf(projection.Slice(0, 3, 0, 3))
	if mat.Det(m) < 0 {
		projection.Scale(-1, projection)
		m.Scale(-1, m)
	}
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDNone); !ok {
		return nil, r3.Vector{}, errors.Wrap(ErrNoSolution, "failed to factorize projection")
	}
	lambda := floats.Sum(svd.Values(nil)) / 3
	if lambda == 0 {
		return nil, r3.Vector{}, errors.Wrap(ErrNoSolution, "projection has no rotation part")
	}
	m.Scale(1/lambda, m)
	rotation, err := spatialmath.NearestRotation(m)
	if err != nil {
		return nil, r3.Vector{}, errors.Wrap(ErrNoSolution, err.Error())
	}
	translation := r3.Vector{
		X: projection.At(0, 3) / lambda,
		Y: projection.At(1, 3) / lambda,
		Z: projection.At(2, 3) / lambda,
	}
	return rotation, translation, nil
}

// planarPose estimates the homography between the fitted plane and the normalized image points and
// splits it into [r1 r2 t].
func planarPose(world []r3.Vector, normalized []r2.Point, frame planeFrame) (*mat.Dense, r3.Vector, error) {
	local := make([]r3.Vector, len(world))
	for i, p := range world {
		local[i] = frame.local(p)
	}
	_, scale := similarity(local)

	a := mat.NewDense(2*len(world), 9, nil)
	for i, p := range local {
		u, v := p.X*scale, p.Y*scale
		x, y := normalized[i].X, normalized[i].Y
		a.SetRow(2*i, []float64{u, v, 1, 0, 0, 0, -x * u, -x * v, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, u, v, 1, -y * u, -y * v, -y})
	}
	h, err := nullVector(a)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	homography := mat.NewDense(3, 3, h)
	// undo the scaling of the plane coordinates
	homography.Mul(homography, mat.NewDiagDense(3, []float64{scale, scale, 1}))

	r1 := r3.Vector{X: homography.At(0, 0), Y: homography.At(1, 0), Z: homography.At(2, 0)}
	r2v := r3.Vector{X: homography.At(0, 1), Y: homography.At(1, 1), Z: homography.At(2, 1)}
	t := r3.Vector{X: homography.At(0, 2), Y: homography.At(1, 2), Z: homography.At(2, 2)}
	lambda := (r1.Norm() + r2v.Norm()) / 2
	if lambda == 0 {
		return nil, r3.Vector{}, errors.Wrap(ErrNoSolution, "degenerate homography")
	}
	// the plane's centroid must be in front of the camera
	if t.Z < 0 {
		lambda = -lambda
	}
	r1, r2v, t = r1.Mul(1/lambda), r2v.Mul(1/lambda), t.Mul(1/lambda)
	r3v := r1.Cross(r2v)

	estimate := mat.NewDense(3, 3, []float64{
		r1.X, r2v.X, r3v.X,
		r1.Y, r2v.Y, r3v.Y,
		r1.Z, r2v.Z, r3v.Z,
	})
	planeToCamera, err := spatialmath.NearestRotation(estimate)
	if err != nil {
		return nil, r3.Vector{}, errors.Wrap(ErrNoSolution, err.Error())
	}

	// p_cam = Rp * Bᵀ (p - c) + t, with B the plane axes as columns
	basis := mat.NewDense(3, 3, nil)
	for i, axis := range frame.axes {
		basis.SetCol(i, []float64{axis.X, axis.Y, axis.Z})
	}
	var rotation mat.Dense
	rotation.Mul(planeToCamera, basis.T())
	translation := t.Sub(apply(&rotation, r3.Vector{}, frame.centroid))
	return &rotation, translation, nil
}

// refine minimizes the squared reprojection error in normalized image coordinates over the rotation
// vector and translation. The linear estimate is kept when refinement does not improve on it.
func (s *Solver) refine(world []r3.Vector, normalized []r2.Point, rotation *mat.Dense, t r3.Vector) (*mat.Dense, r3.Vector) {
	cost := func(x []float64) float64 {
		rot := spatialmath.RotationMatrixFromVector(r3.Vector{X: x[0], Y: x[1], Z: x[2]})
		trans := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
		sum := 0.0
		for i, p := range world {
			c := apply(rot, trans, p)
			dx := c.X/c.Z - normalized[i].X
			dy := c.Y/c.Z - normalized[i].Y
			sum += dx*dx + dy*dy
		}
		return sum
	}

	rv := spatialmath.RotationVectorFromMatrix(rotation)
	initial := []float64{rv.X, rv.Y, rv.Z, t.X, t.Y, t.Z}
	initialCost := cost(initial)
	if initialCost == 0 {
		return rotation, t
	}

	problem := optimize.Problem{
		Func: cost,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, cost, x, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   s.MaxIterations,
		GradientThreshold: 1e-14,
	}
	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if result == nil || math.IsNaN(result.F) || result.F >= initialCost {
		if err != nil && s.logger != nil {
			s.logger.Debugw("pose refinement failed, keeping linear estimate", "error", err)
		}
		return rotation, t
	}
	x := result.X
	return spatialmath.RotationMatrixFromVector(r3.Vector{X: x[0], Y: x[1], Z: x[2]}), r3.Vector{X: x[3], Y: x[4], Z: x[5]}
}

// similarity returns the centroid of points and the scale that brings their mean distance from it to
// sqrt(2), as in Hartley normalization.
func similarity(points []r3.Vector) (r3.Vector, float64) {
	var centroid r3.Vector
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(points)))
	dists := make([]float64, len(points))
	for i, p := range points {
		dists[i] = p.Sub(centroid).Norm()
	}
	mean := floats.Sum(dists) / float64(len(points))
	if mean == 0 {
		return centroid, 1
	}
	return centroid, math.Sqrt2 / mean
}

// nullVector returns the right singular vector of a with the smallest singular value.
func nullVector(a *mat.Dense) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFullV); !ok {
		return nil, errors.Wrap(ErrNoSolution, "failed to factorize linear system")
	}
	var v mat.Dense
	svd.VTo(&v)
	_, cols := v.Dims()
	return mat.Col(nil, cols-1, &v), nil
}

func apply(rotation mat.Matrix, t, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: rotation.At(0, 0)*p.X + rotation.At(0, 1)*p.Y + rotation.At(0, 2)*p.Z + t.X,
		Y: rotation.At(1, 0)*p.X + rotation.At(1, 1)*p.Y + rotation.At(1, 2)*p.Z + t.Y,
		Z: rotation.At(2, 0)*p.X + rotation.At(2, 1)*p.Y + rotation.At(2, 2)*p.Z + t.Z,
	}
}

func depth(rotation mat.Matrix, t, p r3.Vector) float64 {
	return apply(rotation, t, p).Z
}
