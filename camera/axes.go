package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/multiview/spatialmath"
)

// Axes holds the image positions of the world origin and of the tips of the world X, Y and Z axes.
type Axes struct {
	Origin r2.Point `json:"origin"`
	X      r2.Point `json:"x"`
	Y      r2.Point `json:"y"`
	Z      r2.Point `json:"z"`
}

// ProjectAxes projects the world origin and the world axes, each of the given length, into the image.
// An overlay renderer draws the segments from Origin to each tip.
func (c *Camera) ProjectAxes(length float64) (Axes, error) {
	if length <= 0 {
		return Axes{}, errors.Errorf("axis length must be positive, got %v", length)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var axes Axes
	for _, tip := range []struct {
		dst *r2.Point
		v   r3.Vector
	}{
		{&axes.Origin, r3.Vector{}},
		{&axes.X, r3.Vector{X: length}},
		{&axes.Y, r3.Vector{Y: length}},
		{&axes.Z, r3.Vector{Z: length}},
	} {
		px, err := c.pointWorldToImage(spatialmath.NewPoint(tip.v))
		if err != nil {
			return Axes{}, errors.Wrapf(err, "projecting axis point %v", tip.v)
		}
		*tip.dst = px
	}
	return axes, nil
}

// CameraCenter returns the optical center's position in the world frame.
func (c *Camera) CameraCenter() (r3.Vector, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkPosed(); err != nil {
		return r3.Vector{}, err
	}
	return c.cameraToWorld.Translation(), nil
}
