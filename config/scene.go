// Package config defines the scene file: the cameras taking part, the world to pixel correspondences
// each camera's pose is estimated from, and the observations to triangulate.
package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/multiview/calibration"
	"go.viam.com/multiview/camera"
	"go.viam.com/multiview/logging"
	"go.viam.com/multiview/referenceframe"
)

// Camera describes one camera of the scene. Attributes may carry the calibration inline, in the
// JSON calibration layout, instead of CalibrationPath.
type Camera struct {
	ID              referenceframe.CameraID `json:"id"`
	CalibrationPath string                  `json:"calibration_path,omitempty"`
	Stationary      bool                    `json:"stationary,omitempty"`
	Attributes      map[string]interface{}  `json:"attributes,omitempty"`
}

// Correspondence is a known world point and the pixel it was observed at.
type Correspondence struct {
	World [3]float64 `json:"world"`
	Pixel [2]float64 `json:"pixel"`
}

// Observation is a single scene point seen by several cameras.
type Observation struct {
	Name   string                                 `json:"name"`
	Pixels map[referenceframe.CameraID][2]float64 `json:"pixels"`
}

// Scene is the top level of a scene file.
type Scene struct {
	Cameras         []Camera                                     `json:"cameras"`
	Correspondences map[referenceframe.CameraID][]Correspondence `json:"correspondences,omitempty"`
	Observations    []Observation                                `json:"observations,omitempty"`

	// ConfigFilePath is where the scene was read from. Relative calibration paths are resolved
	// against its directory.
	ConfigFilePath string `json:"-"`
}

// Ensure validates the scene, collecting every problem found.
func (s *Scene) Ensure() error {
	var errs error
	if len(s.Cameras) == 0 {
		errs = multierr.Append(errs, errors.New("scene has no cameras"))
	}

	known := make(map[referenceframe.CameraID]bool, len(s.Cameras))
	for idx, cam := range s.Cameras {
		if err := cam.Validate(fmt.Sprintf("cameras.%d", idx)); err != nil {
			errs = multierr.Append(errs, err)
		}
		known[cam.ID] = true
	}
	for _, dup := range lo.Uniq(lo.Map(lo.FindDuplicatesBy(s.Cameras, func(c Camera) referenceframe.CameraID { return c.ID }),
		func(c Camera, _ int) referenceframe.CameraID { return c.ID })) {
		errs = multierr.Append(errs, errors.Errorf("camera %q is declared more than once", dup))
	}

	for _, id := range sortedIDs(s.Correspondences) {
		if !known[id] {
			errs = multierr.Append(errs, errors.Errorf("correspondences.%s: unknown camera", id))
			continue
		}
		if n := len(s.Correspondences[id]); n < camera.MinCorrespondences {
			errs = multierr.Append(errs, errors.Errorf("correspondences.%s: need at least %d, got %d",
				id, camera.MinCorrespondences, n))
		}
	}

	for idx, obs := range s.Observations {
		path := fmt.Sprintf("observations.%d", idx)
		if obs.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("%s: name is required", path))
		}
		if len(obs.Pixels) < 2 {
			errs = multierr.Append(errs, errors.Errorf("%s: needs pixels from at least two cameras, got %d", path, len(obs.Pixels)))
		}
		for _, id := range sortedIDs(obs.Pixels) {
			if !known[id] {
				errs = multierr.Append(errs, errors.Errorf("%s: unknown camera %q", path, id))
			}
		}
	}
	return errs
}

// Validate checks the camera's own fields. path locates the camera in the scene for error messages.
func (c *Camera) Validate(path string) error {
	if err := c.ID.Validate(); err != nil {
		return errors.Wrap(err, path)
	}
	if c.CalibrationPath == "" {
		if _, ok := c.Attributes["intrinsic_parameters"]; !ok {
			return errors.Errorf("%s: camera %q needs calibration_path or attributes.intrinsic_parameters", path, c.ID)
		}
	}
	return nil
}

// InlineCalibration decodes the calibration carried in the camera's attributes.
func (c *Camera) InlineCalibration() (*camera.Calibration, error) {
	var params calibration.Parameters
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &params,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(c.Attributes); err != nil {
		return nil, errors.Wrapf(err, "camera %q attributes", c.ID)
	}
	return params.Calibration()
}

// Calibration returns the calibration for cam, loading it from disk when the camera names a file.
func (s *Scene) Calibration(cam Camera) (*camera.Calibration, error) {
	if cam.CalibrationPath == "" {
		return cam.InlineCalibration()
	}
	path := cam.CalibrationPath
	if !filepath.IsAbs(path) && s.ConfigFilePath != "" {
		path = filepath.Join(filepath.Dir(s.ConfigFilePath), path)
	}
	return calibration.Load(path)
}

// BuildCameras creates and calibrates every camera of the scene. Poses are not estimated.
func (s *Scene) BuildCameras(solver camera.PoseSolver, logger logging.Logger) (map[referenceframe.CameraID]*camera.Camera, error) {
	cams := make(map[referenceframe.CameraID]*camera.Camera, len(s.Cameras))
	for _, conf := range s.Cameras {
		cam, err := camera.New(conf.ID, conf.Stationary, solver, logger)
		if err != nil {
			return nil, err
		}
		calib, err := s.Calibration(conf)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %q", conf.ID)
		}
		if err := cam.Calibrate(calib); err != nil {
			return nil, err
		}
		cams[conf.ID] = cam
	}
	return cams, nil
}

// CorrespondencesFor splits the correspondences of one camera into world points and pixels.
func (s *Scene) CorrespondencesFor(id referenceframe.CameraID) ([]r3.Vector, []r2.Point) {
	corrs := s.Correspondences[id]
	world := lo.Map(corrs, func(c Correspondence, _ int) r3.Vector {
		return r3.Vector{X: c.World[0], Y: c.World[1], Z: c.World[2]}
	})
	pixels := lo.Map(corrs, func(c Correspondence, _ int) r2.Point {
		return r2.Point{X: c.Pixel[0], Y: c.Pixel[1]}
	})
	return world, pixels
}

// Cameras returns the ids of the cameras that saw the observation, in sorted order.
func (o Observation) Cameras() []referenceframe.CameraID {
	return sortedIDs(o.Pixels)
}

// Pixel returns where the given camera saw the observation.
func (o Observation) Pixel(id referenceframe.CameraID) (r2.Point, bool) {
	px, ok := o.Pixels[id]
	if !ok {
		return r2.Point{}, false
	}
	return r2.Point{X: px[0], Y: px[1]}, true
}

func sortedIDs[V any](m map[referenceframe.CameraID]V) []referenceframe.CameraID {
	ids := lo.Keys(m)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
