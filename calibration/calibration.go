// Package calibration loads camera calibrations from disk.
//
// Three layouts are understood, chosen by file extension:
//
//	.xml          OpenCV FileStorage XML with Camera_Matrix, Distortion_Coefficients and Camera_Resolution
//	.yml, .yaml   the same content as OpenCV FileStorage YAML
//	.json         {"intrinsic_parameters": {...}, "distortion": [...]} as used in camera attributes
package calibration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/multiview/camera"
)

// ErrUnsupportedFormat is returned for calibration files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported calibration file format")

// BrownConrady holds the coefficients of the Brown-Conrady lens model under the names camera attributes use.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// Coefficients returns the coefficients in OpenCV order: k1 k2 p1 p2 k3.
func (bc *BrownConrady) Coefficients() []float64 {
	return []float64{bc.RadialK1, bc.RadialK2, bc.TangentialP1, bc.TangentialP2, bc.RadialK3}
}

// Parameters is the JSON form of a calibration.
type Parameters struct {
	Intrinsics   *camera.Intrinsics `json:"intrinsic_parameters"`
	Distortion   []float64          `json:"distortion,omitempty"`
	BrownConrady *BrownConrady      `json:"distortion_parameters,omitempty"`
}

// Calibration converts the parameters for a camera. Distortion, when given, wins over
// distortion_parameters.
func (p *Parameters) Calibration() (*camera.Calibration, error) {
	if p.Intrinsics == nil {
		return nil, camera.NewInvalidCalibrationError("intrinsic_parameters are missing")
	}
	distortion := p.Distortion
	if len(distortion) == 0 && p.BrownConrady != nil {
		distortion = p.BrownConrady.Coefficients()
	}
	calib := camera.NewCalibrationFromIntrinsics(*p.Intrinsics, distortion)
	if _, _, err := calib.Validate(); err != nil {
		return nil, err
	}
	return calib, nil
}

// Load reads the calibration stored at path.
func Load(path string) (*camera.Calibration, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	var calib *camera.Calibration
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xml":
		calib, err = readOpenCVXML(f)
	case ".yml", ".yaml":
		calib, err = readOpenCVYAML(f)
	case ".json":
		var params Parameters
		if err := json.NewDecoder(f).Decode(&params); err != nil {
			return nil, errors.Wrapf(err, "decoding %q", path)
		}
		calib, err = params.Calibration()
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading calibration %q", path)
	}
	return calib, nil
}
