package camera

import (
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/multiview/logging"
	"go.viam.com/multiview/ray"
	"go.viam.com/multiview/referenceframe"
	"go.viam.com/multiview/spatialmath"
)

const tol = 1e-9

var testIntrinsics = Intrinsics{Width: 640, Height: 480, Fx: 1000, Fy: 1000, Ppx: 320, Ppy: 240}

// fakeSolver returns a fixed pose, or err, and counts its calls.
type fakeSolver struct {
	mu          sync.Mutex
	rotation    *mat.Dense
	translation r3.Vector
	err         error
	calls       int
}

func (s *fakeSolver) SolvePose(world []r3.Vector, pixels []r2.Point, intr Intrinsics, distortion []float64) (*mat.Dense, r3.Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, r3.Vector{}, s.err
	}
	return s.rotation, s.translation, nil
}

func testPose() (*mat.Dense, r3.Vector) {
	return spatialmath.RotationMatrixFromVector(r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}), r3.Vector{X: 0.5, Y: -1, Z: 8}
}

func newCalibratedCamera(t *testing.T, id referenceframe.CameraID, stationary bool, solver PoseSolver) *Camera {
	t.Helper()
	cam, err := New(id, stationary, solver, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Calibrate(NewCalibrationFromIntrinsics(testIntrinsics, nil)), test.ShouldBeNil)
	return cam
}

func newPosedCamera(t *testing.T, id referenceframe.CameraID) *Camera {
	t.Helper()
	rotation, translation := testPose()
	cam := newCalibratedCamera(t, id, false, &fakeSolver{rotation: rotation, translation: translation})
	test.That(t, cam.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4)), test.ShouldBeNil)
	return cam
}

func TestNew(t *testing.T) {
	_, err := New("", false, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(referenceframe.World, false, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)

	cam, err := New("left", true, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.ID(), test.ShouldEqual, referenceframe.CameraID("left"))
	test.That(t, cam.Stationary(), test.ShouldBeTrue)
	test.That(t, cam.State(), test.ShouldEqual, StateUncalibrated)
	test.That(t, cam.State().String(), test.ShouldEqual, "uncalibrated")

	_, err = cam.Intrinsics()
	test.That(t, errors.Is(err, ErrNotCalibrated), test.ShouldBeTrue)
	_, err = cam.PointImageToCamera(r2.Point{})
	test.That(t, errors.Is(err, ErrNotCalibrated), test.ShouldBeTrue)
}

func TestCalibrate(t *testing.T) {
	cam, err := New("left", false, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	err = cam.Calibrate(nil)
	test.That(t, errors.Is(err, ErrInvalidCalibration), test.ShouldBeTrue)

	bad := NewCalibrationFromIntrinsics(testIntrinsics, nil)
	bad.Distortion = mat.NewDense(3, 1, nil)
	err = cam.Calibrate(bad)
	test.That(t, errors.Is(err, ErrInvalidCalibration), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3x1")

	bad = NewCalibrationFromIntrinsics(testIntrinsics, nil)
	bad.CameraMatrix = mat.NewDense(3, 4, nil)
	test.That(t, errors.Is(cam.Calibrate(bad), ErrInvalidCalibration), test.ShouldBeTrue)

	bad = NewCalibrationFromIntrinsics(Intrinsics{Width: 640, Height: 480, Fx: -1, Fy: 1000}, nil)
	test.That(t, errors.Is(cam.Calibrate(bad), ErrInvalidCalibration), test.ShouldBeTrue)
	test.That(t, cam.State(), test.ShouldEqual, StateUncalibrated)

	for _, n := range []int{4, 5, 8} {
		distortion := make([]float64, n)
		distortion[0] = 0.1
		test.That(t, cam.Calibrate(NewCalibrationFromIntrinsics(testIntrinsics, distortion)), test.ShouldBeNil)
		got, err := cam.Distortion()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, distortion)
	}
	params, err := cam.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params, test.ShouldResemble, testIntrinsics)
	test.That(t, cam.State(), test.ShouldEqual, StateCalibrated)
}

func TestRecalibrateDropsPose(t *testing.T) {
	rotation, translation := testPose()
	logger, logs := logging.NewObservedTestLogger(t)
	cam, err := New("left", true, &fakeSolver{rotation: rotation, translation: translation}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Calibrate(NewCalibrationFromIntrinsics(testIntrinsics, nil)), test.ShouldBeNil)
	test.That(t, cam.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4)), test.ShouldBeNil)
	test.That(t, cam.State(), test.ShouldEqual, StatePosed)

	test.That(t, cam.Calibrate(NewCalibrationFromIntrinsics(testIntrinsics, nil)), test.ShouldBeNil)
	test.That(t, cam.State(), test.ShouldEqual, StateCalibrated)
	_, err = cam.CameraToWorld()
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("recalibrating posed camera, extrinsics dropped").Len(), test.ShouldEqual, 1)
}

func TestPrincipalPointUnprojection(t *testing.T) {
	cam := newCalibratedCamera(t, "left", false, nil)

	r, err := cam.PointImageToCamera(r2.Point{X: 320, Y: 240})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.A, test.ShouldResemble, spatialmath.Point{X: 0, Y: 0, Z: 0, W: 1})
	test.That(t, r.B, test.ShouldResemble, spatialmath.Point{X: 0, Y: 0, Z: 1000, W: 1})
	test.That(t, r.Frame.IsCamera("left"), test.ShouldBeTrue)
	test.That(t, r.Origin, test.ShouldEqual, referenceframe.CameraID("left"))
	test.That(t, r.OriginPixel, test.ShouldResemble, r2.Point{X: 320, Y: 240})

	r, err = cam.PointImageToCamera(r2.Point{X: 420, Y: 140})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.B, test.ShouldResemble, spatialmath.Point{X: 100, Y: -100, Z: 1000, W: 1})
}

func TestPointCameraToImage(t *testing.T) {
	cam := newCalibratedCamera(t, "left", false, nil)

	px, err := cam.PointCameraToImage(spatialmath.Point{X: 1, Y: -2, Z: 10, W: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px.X, test.ShouldAlmostEqual, 420, tol)
	test.That(t, px.Y, test.ShouldAlmostEqual, 40, tol)

	// the same point with W = 2
	px, err = cam.PointCameraToImage(spatialmath.Point{X: 2, Y: -4, Z: 20, W: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px.X, test.ShouldAlmostEqual, 420, tol)

	_, err = cam.PointCameraToImage(spatialmath.Point{X: 1, Y: 1, Z: 0, W: 1})
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)
	_, err = cam.PointCameraToImage(spatialmath.Point{X: 1, Y: 1, Z: 1, W: 0})
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)
}

func TestExtrinsicsUnset(t *testing.T) {
	cam := newCalibratedCamera(t, "left", false, nil)

	_, err := cam.PointCameraToWorld(spatialmath.NewPoint(r3.Vector{}))
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
	_, err = cam.PointWorldToCamera(spatialmath.NewPoint(r3.Vector{}))
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
	_, err = cam.PointImageToWorld(r2.Point{X: 1, Y: 1})
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
	_, err = cam.PointWorldToImage(spatialmath.NewPoint(r3.Vector{}))
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
	_, err = cam.CameraCenter()
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
	_, err = cam.ProjectAxes(1)
	test.That(t, errors.Is(err, ErrExtrinsicsUnset), test.ShouldBeTrue)
}

func TestRoundTrips(t *testing.T) {
	cam := newPosedCamera(t, "left")

	for _, px := range []r2.Point{{X: 320, Y: 240}, {X: 0, Y: 0}, {X: 639.5, Y: 12.25}, {X: 100, Y: 470}} {
		r, err := cam.PointImageToWorld(px)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, r.Frame.IsWorld(), test.ShouldBeTrue)
		test.That(t, r.OriginPixel, test.ShouldResemble, px)

		back, err := cam.PointWorldToImage(r.B)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.X, test.ShouldAlmostEqual, px.X, 1e-6)
		test.That(t, back.Y, test.ShouldAlmostEqual, px.Y, 1e-6)
	}

	for _, p := range []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: -1, Z: 2}, {X: -0.5, Y: 0.25, Z: -3}} {
		camPoint, err := cam.PointWorldToCamera(spatialmath.NewPoint(p))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, camPoint.Z, test.ShouldBeGreaterThan, 0)

		px, err := cam.PointWorldToImage(spatialmath.NewPoint(p))
		test.That(t, err, test.ShouldBeNil)
		r, err := cam.PointImageToWorld(px)
		test.That(t, err, test.ShouldBeNil)

		// the point sits on the ray at the depth it was seen at
		dist, err := r.Distance(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, dist, test.ShouldAlmostEqual, 0, 1e-6)

		a, dir, err := r.Line()
		test.That(t, err, test.ShouldBeNil)
		depth := camPoint.Z * r3.Vector{X: px.X - 320, Y: px.Y - 240, Z: 1000}.Norm() / 1000
		test.That(t, a.Add(dir.Mul(depth)).Sub(p).Norm(), test.ShouldAlmostEqual, 0, 1e-6)
	}
}

func TestInverseLaw(t *testing.T) {
	cam := newPosedCamera(t, "left")
	for _, p := range []spatialmath.Point{
		{X: 0, Y: 0, Z: 0, W: 1},
		{X: 3, Y: -7, Z: 11, W: 1},
		{X: 2, Y: 4, Z: 6, W: 2},
		{X: 1, Y: 0, Z: 0, W: 0},
	} {
		world, err := cam.PointCameraToWorld(p)
		test.That(t, err, test.ShouldBeNil)
		back, err := cam.PointWorldToCamera(world)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.X, test.ShouldAlmostEqual, p.X, tol)
		test.That(t, back.Y, test.ShouldAlmostEqual, p.Y, tol)
		test.That(t, back.Z, test.ShouldAlmostEqual, p.Z, tol)
		test.That(t, back.W, test.ShouldAlmostEqual, p.W, tol)
	}

	// camera to world is the inverse of [R | t]
	rotation, translation := testPose()
	worldToCamera, err := spatialmath.NewTransform(rotation, translation)
	test.That(t, err, test.ShouldBeNil)
	cameraToWorld, err := cam.CameraToWorld()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cameraToWorld.Compose(worldToCamera).ApproxEqual(spatialmath.NewIdentityTransform(), tol), test.ShouldBeTrue)

	center, err := cam.CameraCenter()
	test.That(t, err, test.ShouldBeNil)
	camCenter, err := cam.PointWorldToCamera(spatialmath.NewPoint(center))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, camCenter.ApproxEqual(spatialmath.NewPoint(r3.Vector{}), tol), test.ShouldBeTrue)
}

func TestRayFrames(t *testing.T) {
	left := newPosedCamera(t, "left")
	right := newCalibratedCamera(t, "right", false, nil)
	shift, err := spatialmath.NewTransform(spatialmath.RotationMatrixFromVector(r3.Vector{Y: -0.1}), r3.Vector{X: 1})
	test.That(t, err, test.ShouldBeNil)
	leftToWorld, err := left.CameraToWorld()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, right.SetExtrinsics(leftToWorld.Compose(shift)), test.ShouldBeNil)

	camRay, err := left.PointImageToCamera(r2.Point{X: 300, Y: 200})
	test.That(t, err, test.ShouldBeNil)

	// only the origin frame can be moved to the world
	_, err = right.RayCameraToWorld(camRay)
	test.That(t, errors.Is(err, ErrFrameMismatch), test.ShouldBeTrue)
	worldRay, err := left.RayCameraToWorld(camRay)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, worldRay.Origin, test.ShouldEqual, referenceframe.CameraID("left"))
	_, err = left.RayCameraToWorld(worldRay)
	test.That(t, errors.Is(err, ErrFrameMismatch), test.ShouldBeTrue)

	// a ray never goes back into its own camera
	_, err = left.RayWorldToCamera(worldRay)
	test.That(t, errors.Is(err, ErrOriginCamera), test.ShouldBeTrue)
	_, err = right.RayWorldToCamera(camRay)
	test.That(t, errors.Is(err, ErrFrameMismatch), test.ShouldBeTrue)

	inRight, err := right.RayWorldToCamera(worldRay)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inRight.Frame.IsCamera("right"), test.ShouldBeTrue)
	test.That(t, inRight.Origin, test.ShouldEqual, referenceframe.CameraID("left"))
	test.That(t, inRight.OriginPixel, test.ShouldResemble, r2.Point{X: 300, Y: 200})

	seg, err := right.RayCameraToImage(inRight)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seg.Camera, test.ShouldEqual, referenceframe.CameraID("right"))
	// the epipole is the image of the left camera's center
	leftCenter, err := left.CameraCenter()
	test.That(t, err, test.ShouldBeNil)
	epipole, err := right.PointWorldToImage(spatialmath.NewPoint(leftCenter))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seg.A.Sub(epipole).Norm(), test.ShouldAlmostEqual, 0, 1e-6)

	_, err = left.RayCameraToImage(camRay)
	test.That(t, errors.Is(err, ErrOriginCamera), test.ShouldBeTrue)
	_, err = right.RayCameraToImage(worldRay)
	test.That(t, errors.Is(err, ErrFrameMismatch), test.ShouldBeTrue)

	px, err := left.RayOriginToImage(inRight)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px, test.ShouldResemble, r2.Point{X: 300, Y: 200})
	_, err = right.RayOriginToImage(inRight)
	test.That(t, errors.Is(err, ErrNotOriginCamera), test.ShouldBeTrue)

	_, err = left.RayCameraToWorld(ray.Ray{})
	test.That(t, errors.Is(err, ErrFrameMismatch), test.ShouldBeTrue)
}

func TestEstimateExtrinsics(t *testing.T) {
	rotation, translation := testPose()
	solver := &fakeSolver{rotation: rotation, translation: translation}

	uncalibrated, err := New("left", false, solver, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	err = uncalibrated.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4))
	test.That(t, errors.Is(err, ErrNotCalibrated), test.ShouldBeTrue)

	cam := newCalibratedCamera(t, "left", false, solver)
	err = cam.EstimateExtrinsics(make([]r3.Vector, 3), make([]r2.Point, 3))
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)
	err = cam.EstimateExtrinsics(make([]r3.Vector, 5), make([]r2.Point, 4))
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)
	test.That(t, solver.calls, test.ShouldEqual, 0)

	test.That(t, cam.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4)), test.ShouldBeNil)
	test.That(t, cam.State(), test.ShouldEqual, StatePosed)
	before, err := cam.CameraToWorld()
	test.That(t, err, test.ShouldBeNil)

	// failures keep the previous pose
	solverErr := errors.New("no convergence")
	solver.err = solverErr
	err = cam.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4))
	test.That(t, errors.Is(err, ErrPoseSolverFailed), test.ShouldBeTrue)
	test.That(t, errors.Is(err, solverErr), test.ShouldBeTrue)
	var poseErr *PoseSolverError
	test.That(t, errors.As(err, &poseErr), test.ShouldBeTrue)
	test.That(t, poseErr.Camera, test.ShouldEqual, referenceframe.CameraID("left"))
	test.That(t, cam.State(), test.ShouldEqual, StatePosed)
	after, err := cam.CameraToWorld()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, after.ApproxEqual(before, 0), test.ShouldBeTrue)

	// a non rigid answer is a solver failure too
	solver.err = nil
	solver.rotation = mat.NewDense(3, 3, []float64{2, 0, 0, 0, 1, 0, 0, 0, 1})
	err = cam.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4))
	test.That(t, errors.Is(err, ErrPoseSolverFailed), test.ShouldBeTrue)

	fresh := newCalibratedCamera(t, "right", false, &fakeSolver{err: solverErr})
	err = fresh.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4))
	test.That(t, errors.Is(err, ErrPoseSolverFailed), test.ShouldBeTrue)
	test.That(t, fresh.State(), test.ShouldEqual, StateCalibrated)

	noSolver := newCalibratedCamera(t, "top", false, nil)
	err = noSolver.EstimateExtrinsics(make([]r3.Vector, 4), make([]r2.Point, 4))
	test.That(t, errors.Is(err, ErrPoseSolverFailed), test.ShouldBeTrue)
}

func TestEstimateExtrinsicsIfNeeded(t *testing.T) {
	rotation, translation := testPose()
	world, pixels := make([]r3.Vector, 4), make([]r2.Point, 4)

	t.Run("stationary", func(t *testing.T) {
		solver := &fakeSolver{rotation: rotation, translation: translation}
		cam := newCalibratedCamera(t, "left", true, solver)

		updated, err := cam.EstimateExtrinsicsIfNeeded(world, pixels)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, updated, test.ShouldBeTrue)
		updated, err = cam.EstimateExtrinsicsIfNeeded(world, pixels)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, updated, test.ShouldBeFalse)
		test.That(t, solver.calls, test.ShouldEqual, 1)

		// the explicit call always solves
		test.That(t, cam.EstimateExtrinsics(world, pixels), test.ShouldBeNil)
		test.That(t, solver.calls, test.ShouldEqual, 2)
	})

	t.Run("moving", func(t *testing.T) {
		solver := &fakeSolver{rotation: rotation, translation: translation}
		cam := newCalibratedCamera(t, "left", false, solver)
		for i := 0; i < 3; i++ {
			updated, err := cam.EstimateExtrinsicsIfNeeded(world, pixels)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, updated, test.ShouldBeTrue)
		}
		test.That(t, solver.calls, test.ShouldEqual, 3)
	})

	t.Run("failure", func(t *testing.T) {
		cam := newCalibratedCamera(t, "left", true, &fakeSolver{err: errors.New("boom")})
		updated, err := cam.EstimateExtrinsicsIfNeeded(world, pixels)
		test.That(t, errors.Is(err, ErrPoseSolverFailed), test.ShouldBeTrue)
		test.That(t, updated, test.ShouldBeFalse)
		test.That(t, cam.State(), test.ShouldEqual, StateCalibrated)
	})
}

func TestProjectAxes(t *testing.T) {
	cam := newCalibratedCamera(t, "left", false, nil)
	// camera 10 units behind the world origin, looking down +z
	cameraToWorld, err := spatialmath.NewTransform(mat.NewDiagDense(3, []float64{1, 1, 1}), r3.Vector{Z: -10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.SetExtrinsics(cameraToWorld), test.ShouldBeNil)

	_, err = cam.ProjectAxes(0)
	test.That(t, err, test.ShouldNotBeNil)

	axes, err := cam.ProjectAxes(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, axes.Origin.X, test.ShouldAlmostEqual, 320, tol)
	test.That(t, axes.Origin.Y, test.ShouldAlmostEqual, 240, tol)
	test.That(t, axes.X.X, test.ShouldAlmostEqual, 420, tol)
	test.That(t, axes.Y.Y, test.ShouldAlmostEqual, 340, tol)
	test.That(t, axes.Z.X, test.ShouldAlmostEqual, 320, tol)
	test.That(t, axes.Z.Y, test.ShouldAlmostEqual, 240, tol)

	center, err := cam.CameraCenter()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center, test.ShouldResemble, r3.Vector{Z: -10})
}

func TestSetExtrinsics(t *testing.T) {
	uncalibrated, err := New("left", false, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	err = uncalibrated.SetExtrinsics(spatialmath.NewIdentityTransform())
	test.That(t, errors.Is(err, ErrNotCalibrated), test.ShouldBeTrue)

	cam := newCalibratedCamera(t, "left", false, nil)
	test.That(t, cam.SetExtrinsics(nil), test.ShouldNotBeNil)
	test.That(t, cam.SetExtrinsics(&spatialmath.Transform{}), test.ShouldNotBeNil)
	test.That(t, cam.State(), test.ShouldEqual, StateCalibrated)
	test.That(t, cam.SetExtrinsics(spatialmath.NewIdentityTransform()), test.ShouldBeNil)
	test.That(t, cam.State(), test.ShouldEqual, StatePosed)
	test.That(t, cam.State().String(), test.ShouldEqual, "posed")
}

func TestConcurrentReaders(t *testing.T) {
	rotation, translation := testPose()
	cam := newCalibratedCamera(t, "left", false, &fakeSolver{rotation: rotation, translation: translation})
	world, pixels := make([]r3.Vector, 4), make([]r2.Point, 4)
	test.That(t, cam.EstimateExtrinsics(world, pixels), test.ShouldBeNil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				test.That(t, cam.EstimateExtrinsics(world, pixels), test.ShouldBeNil)
				return
			}
			_, err := cam.PointImageToWorld(r2.Point{X: float64(i), Y: float64(i)})
			test.That(t, err, test.ShouldBeNil)
		}(i)
	}
	wg.Wait()
}
