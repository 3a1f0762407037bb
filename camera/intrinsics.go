package camera

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Number of distortion coefficients a calibration may carry, following the OpenCV conventions
// (k1 k2 p1 p2 [k3 [k4 k5 k6]]).
var validDistortionLengths = map[int]bool{4: true, 5: true, 8: true}

// Intrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type Intrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for Intrinsics have valid inputs.
func (params *Intrinsics) CheckValid() error {
	if params == nil {
		return NewInvalidCalibrationError("intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// CameraMatrix returns the 3x3 camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *Intrinsics) CameraMatrix() *mat.Dense {
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// Calibration is what a calibration source hands to a camera: a 3x3 camera matrix, a column of 4, 5
// or 8 distortion coefficients, and the image resolution.
type Calibration struct {
	CameraMatrix *mat.Dense
	Distortion   *mat.Dense
	Width        int
	Height       int
}

// NewCalibrationFromIntrinsics builds a Calibration from already split out parameters. A lens without
// distortion coefficients gets five zeros.
func NewCalibrationFromIntrinsics(params Intrinsics, distortion []float64) *Calibration {
	if len(distortion) == 0 {
		distortion = make([]float64, 5)
	}
	return &Calibration{
		CameraMatrix: params.CameraMatrix(),
		Distortion:   mat.NewDense(len(distortion), 1, append([]float64(nil), distortion...)),
		Width:        params.Width,
		Height:       params.Height,
	}
}

// Validate checks the shapes of the calibration matrices and returns the intrinsics they describe
// together with the flattened distortion coefficients.
func (calib *Calibration) Validate() (Intrinsics, []float64, error) {
	if calib == nil {
		return Intrinsics{}, nil, NewInvalidCalibrationError("calibration is nil")
	}
	if calib.CameraMatrix == nil {
		return Intrinsics{}, nil, NewInvalidCalibrationError("camera matrix is missing")
	}
	if r, c := calib.CameraMatrix.Dims(); r != 3 || c != 3 {
		return Intrinsics{}, nil, NewInvalidCalibrationError(fmt.Sprintf("camera matrix must be 3x3, got %dx%d", r, c))
	}
	if calib.Distortion == nil {
		return Intrinsics{}, nil, NewInvalidCalibrationError("distortion coefficients are missing")
	}
	r, c := calib.Distortion.Dims()
	if c != 1 || !validDistortionLengths[r] {
		return Intrinsics{}, nil, NewInvalidCalibrationError(
			fmt.Sprintf("distortion coefficients must be a 4x1, 5x1 or 8x1 column, got %dx%d", r, c))
	}

	params := Intrinsics{
		Width:  calib.Width,
		Height: calib.Height,
		Fx:     calib.CameraMatrix.At(0, 0),
		Fy:     calib.CameraMatrix.At(1, 1),
		Ppx:    calib.CameraMatrix.At(0, 2),
		Ppy:    calib.CameraMatrix.At(1, 2),
	}
	if err := params.CheckValid(); err != nil {
		return Intrinsics{}, nil, err
	}
	return params, mat.Col(nil, 0, calib.Distortion), nil
}
