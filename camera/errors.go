package camera

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/multiview/referenceframe"
)

var (
	// ErrNotCalibrated is returned when intrinsics are needed before they were set.
	ErrNotCalibrated = errors.New("camera intrinsic parameters are not available")
	// ErrExtrinsicsUnset is returned when the camera to world transform is needed before it was computed.
	ErrExtrinsicsUnset = errors.New("camera extrinsics are unset")
	// ErrDegenerateProjection is returned when a point cannot be projected onto the image plane.
	ErrDegenerateProjection = errors.New("degenerate projection")
	// ErrFrameMismatch is returned when a ray is not expressed in the frame a transform starts from.
	ErrFrameMismatch = errors.New("ray is expressed in the wrong frame")
	// ErrOriginCamera is returned when a ray is reprojected into the camera that cast it.
	// RayOriginToImage returns the original pixel instead.
	ErrOriginCamera = errors.New("ray was cast by this camera, use RayOriginToImage")
	// ErrNotOriginCamera is returned by RayOriginToImage for rays cast by another camera.
	ErrNotOriginCamera = errors.New("ray was not cast by this camera, use RayCameraToImage")
	// ErrInsufficientCorrespondences is returned when fewer than MinCorrespondences pairs are given.
	ErrInsufficientCorrespondences = errors.New("not enough world to pixel correspondences")
	// ErrPoseSolverFailed matches every PoseSolverError.
	ErrPoseSolverFailed = errors.New("pose solver failed")
	// ErrInvalidCalibration is returned for calibration data of the wrong shape or range.
	ErrInvalidCalibration = errors.New("invalid calibration")
)

// NewInvalidCalibrationError is used when calibration data does not have the expected shape.
func NewInvalidCalibrationError(msg string) error {
	return errors.Wrap(ErrInvalidCalibration, msg)
}

// PoseSolverError is returned when the pose solver could not compute extrinsics. The camera's
// previous extrinsics, if any, are kept.
type PoseSolverError struct {
	Camera referenceframe.CameraID
	Err    error
}

func (e *PoseSolverError) Error() string {
	return fmt.Sprintf("camera %q: %v: %v", e.Camera, ErrPoseSolverFailed, e.Err)
}

// Unwrap returns the solver's error.
func (e *PoseSolverError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPoseSolverFailed) hold for every PoseSolverError.
func (e *PoseSolverError) Is(target error) bool {
	return target == ErrPoseSolverFailed
}
