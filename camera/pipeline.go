package camera

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/multiview/ray"
	"go.viam.com/multiview/spatialmath"
)

// PointImageToCamera unprojects a pixel into a ray in the camera's own frame. The ray starts at the
// optical center and passes through (px - ppx, py - ppy, fx), assuming square pixels. This is the
// only place a ray's origin camera and origin pixel are set.
func (c *Camera) PointImageToCamera(px r2.Point) (ray.Ray, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pointImageToCamera(px)
}

func (c *Camera) pointImageToCamera(px r2.Point) (ray.Ray, error) {
	if err := c.checkCalibrated(); err != nil {
		return ray.Ray{}, err
	}
	return ray.Ray{
		A:           spatialmath.Point{W: 1},
		B:           spatialmath.Point{X: px.X - c.intrinsics.Ppx, Y: px.Y - c.intrinsics.Ppy, Z: c.intrinsics.Fx, W: 1},
		Frame:       c.Frame(),
		Origin:      c.id,
		OriginPixel: px,
	}, nil
}

// PointCameraToImage projects a camera frame point onto the image plane. The result is not rounded and
// may lie outside the image.
func (c *Camera) PointCameraToImage(p spatialmath.Point) (r2.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pointCameraToImage(p)
}

func (c *Camera) pointCameraToImage(p spatialmath.Point) (r2.Point, error) {
	if err := c.checkCalibrated(); err != nil {
		return r2.Point{}, err
	}
	n, err := p.Normalize()
	if err != nil {
		return r2.Point{}, errors.Wrap(ErrDegenerateProjection, err.Error())
	}
	if n.Z == 0 {
		return r2.Point{}, errors.Wrapf(ErrDegenerateProjection, "point %v lies in the focal plane", p)
	}
	return r2.Point{
		X: c.intrinsics.Fx*n.X/n.Z + c.intrinsics.Ppx,
		Y: c.intrinsics.Fy*n.Y/n.Z + c.intrinsics.Ppy,
	}, nil
}

// PointCameraToWorld maps a camera frame point into the world frame.
func (c *Camera) PointCameraToWorld(p spatialmath.Point) (spatialmath.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkPosed(); err != nil {
		return spatialmath.Point{}, err
	}
	return c.cameraToWorld.Apply(p), nil
}

// PointWorldToCamera maps a world frame point into the camera's frame.
func (c *Camera) PointWorldToCamera(p spatialmath.Point) (spatialmath.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pointWorldToCamera(p)
}

func (c *Camera) pointWorldToCamera(p spatialmath.Point) (spatialmath.Point, error) {
	if err := c.checkPosed(); err != nil {
		return spatialmath.Point{}, err
	}
	return c.worldToCamera.Apply(p), nil
}

// RayCameraToWorld moves a ray from this camera's frame into the world frame.
func (c *Camera) RayCameraToWorld(r ray.Ray) (ray.Ray, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rayCameraToWorld(r)
}

func (c *Camera) rayCameraToWorld(r ray.Ray) (ray.Ray, error) {
	if !r.Frame.IsCamera(c.id) {
		return ray.Ray{}, errors.Wrapf(ErrFrameMismatch, "camera %q cannot move a ray in frame %v to the world", c.id, r.Frame)
	}
	if err := c.checkPosed(); err != nil {
		return ray.Ray{}, err
	}
	return r.WithPoints(c.cameraToWorld.Apply(r.A), c.cameraToWorld.Apply(r.B), worldFrame), nil
}

// RayWorldToCamera moves a world frame ray into this camera's frame. Rays cast by this camera are
// rejected with ErrOriginCamera: their image is already known, see RayOriginToImage.
func (c *Camera) RayWorldToCamera(r ray.Ray) (ray.Ray, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rayWorldToCamera(r)
}

func (c *Camera) rayWorldToCamera(r ray.Ray) (ray.Ray, error) {
	if !r.Frame.IsWorld() {
		return ray.Ray{}, errors.Wrapf(ErrFrameMismatch, "expected a world frame ray, got frame %v", r.Frame)
	}
	if r.Origin == c.id {
		return ray.Ray{}, errors.Wrapf(ErrOriginCamera, "camera %q", c.id)
	}
	if err := c.checkPosed(); err != nil {
		return ray.Ray{}, err
	}
	return r.WithPoints(c.worldToCamera.Apply(r.A), c.worldToCamera.Apply(r.B), c.Frame()), nil
}

// RayCameraToImage projects both points of a ray, already in this camera's frame, onto the image
// plane. The ray must have been cast by another camera.
func (c *Camera) RayCameraToImage(r ray.Ray) (ray.Ray2D, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rayCameraToImage(r)
}

func (c *Camera) rayCameraToImage(r ray.Ray) (ray.Ray2D, error) {
	if r.Origin == c.id {
		return ray.Ray2D{}, errors.Wrapf(ErrOriginCamera, "camera %q", c.id)
	}
	if !r.Frame.IsCamera(c.id) {
		return ray.Ray2D{}, errors.Wrapf(ErrFrameMismatch, "camera %q cannot image a ray in frame %v", c.id, r.Frame)
	}
	a, err := c.pointCameraToImage(r.A)
	if err != nil {
		return ray.Ray2D{}, errors.Wrap(err, "ray point A")
	}
	b, err := c.pointCameraToImage(r.B)
	if err != nil {
		return ray.Ray2D{}, errors.Wrap(err, "ray point B")
	}
	return ray.Ray2D{A: a, B: b, Camera: c.id}, nil
}

// RayOriginToImage returns the pixel a ray cast by this camera was unprojected from.
func (c *Camera) RayOriginToImage(r ray.Ray) (r2.Point, error) {
	if r.Origin != c.id {
		return r2.Point{}, errors.Wrapf(ErrNotOriginCamera, "camera %q, ray origin %q", c.id, r.Origin)
	}
	return r.OriginPixel, nil
}

// PointImageToWorld unprojects a pixel straight into a world frame ray.
func (c *Camera) PointImageToWorld(px r2.Point) (ray.Ray, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, err := c.pointImageToCamera(px)
	if err != nil {
		return ray.Ray{}, err
	}
	return c.rayCameraToWorld(r)
}

// PointWorldToImage projects a world frame point onto the image plane.
func (c *Camera) PointWorldToImage(p spatialmath.Point) (r2.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pointWorldToImage(p)
}

func (c *Camera) pointWorldToImage(p spatialmath.Point) (r2.Point, error) {
	camPoint, err := c.pointWorldToCamera(p)
	if err != nil {
		return r2.Point{}, err
	}
	return c.pointCameraToImage(camPoint)
}
