package calibration

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"go.viam.com/multiview/camera"
)

// OpenCV stores double precision matrices with dt "d".
const openCVDouble = "d"

var (
	yamlDirective = regexp.MustCompile(`(?m)^%YAML.*$`)
	openCVTag     = regexp.MustCompile(`!!opencv-matrix`)
)

type resolution struct {
	Width  int `xml:"Width" yaml:"Width"`
	Height int `xml:"Height" yaml:"Height"`
}

type xmlMatrix struct {
	Rows int    `xml:"rows"`
	Cols int    `xml:"cols"`
	Dt   string `xml:"dt"`
	Data string `xml:"data"`
}

type xmlStorage struct {
	XMLName    xml.Name   `xml:"opencv_storage"`
	Camera     *xmlMatrix `xml:"Camera_Matrix"`
	Distortion *xmlMatrix `xml:"Distortion_Coefficients"`
	Resolution resolution `xml:"Camera_Resolution"`
}

type yamlMatrix struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Dt   string    `yaml:"dt"`
	Data []float64 `yaml:"data"`
}

type yamlStorage struct {
	Camera     *yamlMatrix `yaml:"Camera_Matrix"`
	Distortion *yamlMatrix `yaml:"Distortion_Coefficients"`
	Resolution resolution  `yaml:"Camera_Resolution"`
}

func readOpenCVXML(r io.Reader) (*camera.Calibration, error) {
	var storage xmlStorage
	if err := xml.NewDecoder(r).Decode(&storage); err != nil {
		return nil, err
	}
	if storage.Camera == nil {
		return nil, camera.NewInvalidCalibrationError("Camera_Matrix is missing")
	}
	if storage.Distortion == nil {
		return nil, camera.NewInvalidCalibrationError("Distortion_Coefficients is missing")
	}
	cameraMatrix, err := storage.Camera.dense("Camera_Matrix")
	if err != nil {
		return nil, err
	}
	distortion, err := storage.Distortion.dense("Distortion_Coefficients")
	if err != nil {
		return nil, err
	}
	return newCalibration(cameraMatrix, distortion, storage.Resolution)
}

func (m *xmlMatrix) dense(name string) (*mat.Dense, error) {
	fields := strings.Fields(m.Data)
	data := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s element %d", name, i)
		}
		data[i] = v
	}
	return denseFrom(name, m.Rows, m.Cols, m.Dt, data)
}

func readOpenCVYAML(r io.Reader) (*camera.Calibration, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// OpenCV writes a "%YAML:1.0" directive and a custom matrix tag, neither of which is standard YAML.
	raw = yamlDirective.ReplaceAll(raw, nil)
	raw = openCVTag.ReplaceAll(raw, nil)

	var storage yamlStorage
	if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&storage); err != nil {
		return nil, err
	}
	if storage.Camera == nil {
		return nil, camera.NewInvalidCalibrationError("Camera_Matrix is missing")
	}
	if storage.Distortion == nil {
		return nil, camera.NewInvalidCalibrationError("Distortion_Coefficients is missing")
	}
	cameraMatrix, err := denseFrom("Camera_Matrix", storage.Camera.Rows, storage.Camera.Cols, storage.Camera.Dt, storage.Camera.Data)
	if err != nil {
		return nil, err
	}
	distortion, err := denseFrom("Distortion_Coefficients",
		storage.Distortion.Rows, storage.Distortion.Cols, storage.Distortion.Dt, storage.Distortion.Data)
	if err != nil {
		return nil, err
	}
	return newCalibration(cameraMatrix, distortion, storage.Resolution)
}

func denseFrom(name string, rows, cols int, dt string, data []float64) (*mat.Dense, error) {
	if dt != openCVDouble {
		return nil, camera.NewInvalidCalibrationError(fmt.Sprintf("%s must hold doubles (dt: d), got dt: %q", name, dt))
	}
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, camera.NewInvalidCalibrationError(
			fmt.Sprintf("%s declares %dx%d but holds %d values", name, rows, cols, len(data)))
	}
	return mat.NewDense(rows, cols, data), nil
}

func newCalibration(cameraMatrix, distortion *mat.Dense, res resolution) (*camera.Calibration, error) {
	if res.Width == 0 || res.Height == 0 {
		return nil, camera.NewInvalidCalibrationError("Camera_Resolution is missing or zero")
	}
	calib := &camera.Calibration{
		CameraMatrix: cameraMatrix,
		Distortion:   distortion,
		Width:        res.Width,
		Height:       res.Height,
	}
	if _, _, err := calib.Validate(); err != nil {
		return nil, err
	}
	return calib, nil
}
