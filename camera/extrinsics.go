package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/multiview/referenceframe"
	"go.viam.com/multiview/spatialmath"
)

// MinCorrespondences is the smallest number of world to pixel pairs a pose can be estimated from.
const MinCorrespondences = 4

var worldFrame = referenceframe.WorldFrame()

// PoseSolver computes a camera's pose from world to pixel correspondences. It returns the rotation R
// and translation t such that p_cam = R * p_world + t.
type PoseSolver interface {
	SolvePose(world []r3.Vector, pixels []r2.Point, intr Intrinsics, distortion []float64) (*mat.Dense, r3.Vector, error)
}

// EstimateExtrinsics solves for the camera's pose from corresponding world points and pixels. On
// failure the camera keeps whatever extrinsics it had before.
func (c *Camera) EstimateExtrinsics(world []r3.Vector, pixels []r2.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estimateExtrinsics(world, pixels)
}

// EstimateExtrinsicsIfNeeded is EstimateExtrinsics with the stationary camera policy applied: a
// stationary camera that is already posed is not solved again, and false is returned.
func (c *Camera) EstimateExtrinsicsIfNeeded(world []r3.Vector, pixels []r2.Point) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stationary && c.state == StatePosed {
		c.logger.Debug("stationary camera already posed, skipping pose estimation")
		return false, nil
	}
	if err := c.estimateExtrinsics(world, pixels); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Camera) estimateExtrinsics(world []r3.Vector, pixels []r2.Point) error {
	if err := c.checkCalibrated(); err != nil {
		return err
	}
	if len(world) != len(pixels) {
		return errors.Wrapf(ErrInsufficientCorrespondences, "%d world points but %d pixels", len(world), len(pixels))
	}
	if len(world) < MinCorrespondences {
		return errors.Wrapf(ErrInsufficientCorrespondences, "need at least %d, got %d", MinCorrespondences, len(world))
	}
	if c.solver == nil {
		return &PoseSolverError{Camera: c.id, Err: errors.New("no pose solver configured")}
	}

	rotation, translation, err := c.solver.SolvePose(world, pixels, c.intrinsics, c.distortion)
	if err != nil {
		c.logger.Warnw("pose estimation failed", "correspondences", len(world), "error", err)
		return &PoseSolverError{Camera: c.id, Err: err}
	}
	worldToCamera, err := spatialmath.NewTransform(rotation, translation)
	if err != nil {
		return &PoseSolverError{Camera: c.id, Err: errors.Wrap(err, "solver returned an invalid pose")}
	}
	c.commitPose(worldToCamera.Inverse(), worldToCamera)
	return nil
}
