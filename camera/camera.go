// Package camera models a calibrated pinhole camera: the mapping between image pixels, rays in the
// camera's own frame and the shared world frame, and the estimation of the camera's pose.
package camera

import (
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/multiview/logging"
	"go.viam.com/multiview/referenceframe"
	"go.viam.com/multiview/spatialmath"
)

// State is where a camera is in its lifecycle.
type State int

const (
	// StateUncalibrated cameras have no intrinsics yet.
	StateUncalibrated State = iota
	// StateCalibrated cameras can unproject pixels into their own frame but know nothing about the world.
	StateCalibrated
	// StatePosed cameras also have a camera to world transform. For stationary cameras this state is
	// final until the camera is calibrated again.
	StatePosed
)

func (s State) String() string {
	switch s {
	case StateUncalibrated:
		return "uncalibrated"
	case StateCalibrated:
		return "calibrated"
	case StatePosed:
		return "posed"
	}
	return "unknown"
}

// Camera is a pinhole camera with square pixels.
//
// A Camera is safe for concurrent use. Extrinsic updates take the camera's write lock, so readers
// either see the previous pose or the new one.
type Camera struct {
	id         referenceframe.CameraID
	stationary bool
	solver     PoseSolver
	logger     logging.Logger

	mu            sync.RWMutex
	state         State
	intrinsics    Intrinsics
	distortion    []float64
	cameraToWorld *spatialmath.Transform
	worldToCamera *spatialmath.Transform
}

// New returns an uncalibrated camera. A stationary camera computes its extrinsics once; see
// EstimateExtrinsicsIfNeeded. solver may be nil for cameras whose pose is set with SetExtrinsics.
func New(id referenceframe.CameraID, stationary bool, solver PoseSolver, logger logging.Logger) (*Camera, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &Camera{
		id:         id,
		stationary: stationary,
		solver:     solver,
		logger:     logger.Sublogger(string(id)),
	}, nil
}

// ID returns the camera's identifier.
func (c *Camera) ID() referenceframe.CameraID {
	return c.id
}

// Frame returns the camera's own coordinate frame.
func (c *Camera) Frame() referenceframe.FrameID {
	return referenceframe.CameraFrame(c.id)
}

// Stationary reports whether the camera's pose is computed only once.
func (c *Camera) Stationary() bool {
	return c.stationary
}

// State returns the camera's lifecycle state.
func (c *Camera) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Calibrate sets the camera's intrinsics and distortion coefficients. Calibrating a posed camera
// drops its extrinsics, since a pose is only meaningful for the intrinsics it was solved with.
func (c *Camera) Calibrate(calib *Calibration) error {
	params, distortion, err := calib.Validate()
	if err != nil {
		return errors.Wrapf(err, "camera %q", c.id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePosed {
		c.logger.Infow("recalibrating posed camera, extrinsics dropped")
	}
	c.intrinsics = params
	c.distortion = distortion
	c.cameraToWorld = nil
	c.worldToCamera = nil
	c.state = StateCalibrated
	c.logger.Debugw("calibrated", "fx", params.Fx, "fy", params.Fy, "ppx", params.Ppx, "ppy", params.Ppy,
		"width", params.Width, "height", params.Height, "distortion", len(distortion))
	return nil
}

// Intrinsics returns the camera's intrinsic parameters.
func (c *Camera) Intrinsics() (Intrinsics, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkCalibrated(); err != nil {
		return Intrinsics{}, err
	}
	return c.intrinsics, nil
}

// Distortion returns a copy of the camera's distortion coefficients.
func (c *Camera) Distortion() ([]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkCalibrated(); err != nil {
		return nil, err
	}
	return append([]float64(nil), c.distortion...), nil
}

// CameraToWorld returns the transform mapping camera frame points to world frame points.
func (c *Camera) CameraToWorld() (*spatialmath.Transform, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkPosed(); err != nil {
		return nil, err
	}
	return c.cameraToWorld, nil
}

// SetExtrinsics sets the camera to world transform directly, for poses known from elsewhere.
func (c *Camera) SetExtrinsics(cameraToWorld *spatialmath.Transform) error {
	if !cameraToWorld.IsValid() {
		return errors.New("camera to world transform is not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkCalibrated(); err != nil {
		return err
	}
	c.commitPose(cameraToWorld, cameraToWorld.Inverse())
	return nil
}

func (c *Camera) commitPose(cameraToWorld, worldToCamera *spatialmath.Transform) {
	c.cameraToWorld = cameraToWorld
	c.worldToCamera = worldToCamera
	c.state = StatePosed
	center := cameraToWorld.Translation()
	c.logger.Debugw("posed", "center_x", center.X, "center_y", center.Y, "center_z", center.Z)
}

func (c *Camera) checkCalibrated() error {
	if c.state < StateCalibrated {
		return errors.Wrapf(ErrNotCalibrated, "camera %q", c.id)
	}
	return nil
}

func (c *Camera) checkPosed() error {
	if err := c.checkCalibrated(); err != nil {
		return err
	}
	if c.state < StatePosed {
		return errors.Wrapf(ErrExtrinsicsUnset, "camera %q", c.id)
	}
	return nil
}
