// Package referenceframe names the coordinate frames that points and rays are expressed in.
package referenceframe

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// World is the reserved name of the shared world frame.
const World = "world"

const cameraPrefix = "camera:"

// CameraID uniquely identifies a camera.
type CameraID string

// Validate checks that the id can be used to name a camera frame.
func (id CameraID) Validate() error {
	if id == "" {
		return errors.New("camera id cannot be empty")
	}
	if string(id) == World {
		return errors.Errorf("camera id cannot be the reserved frame name %q", World)
	}
	return nil
}

type frameKind int

const (
	invalidFrame frameKind = iota
	worldFrame
	cameraFrame
)

// FrameID is either the world frame or the local frame of one camera. The zero value is not a valid
// frame, so a ray that was never placed in a frame cannot be confused with a world space ray.
type FrameID struct {
	kind   frameKind
	camera CameraID
}

// WorldFrame returns the world frame.
func WorldFrame() FrameID {
	return FrameID{kind: worldFrame}
}

// CameraFrame returns the local frame of the given camera.
func CameraFrame(id CameraID) FrameID {
	return FrameID{kind: cameraFrame, camera: id}
}

// IsWorld reports whether the frame is the world frame.
func (f FrameID) IsWorld() bool {
	return f.kind == worldFrame
}

// Camera returns the camera whose frame this is. ok is false for the world frame.
func (f FrameID) Camera() (CameraID, bool) {
	if f.kind != cameraFrame {
		return "", false
	}
	return f.camera, true
}

// IsCamera reports whether the frame is the local frame of the given camera.
func (f FrameID) IsCamera(id CameraID) bool {
	return f.kind == cameraFrame && f.camera == id
}

// Valid reports whether the frame was built with WorldFrame or CameraFrame.
func (f FrameID) Valid() bool {
	return f.kind == worldFrame || f.kind == cameraFrame
}

func (f FrameID) String() string {
	switch f.kind {
	case worldFrame:
		return World
	case cameraFrame:
		return cameraPrefix + string(f.camera)
	case invalidFrame:
	}
	return "invalid"
}

// ParseFrameID is the inverse of FrameID.String.
func ParseFrameID(s string) (FrameID, error) {
	if s == World {
		return WorldFrame(), nil
	}
	if id, ok := strings.CutPrefix(s, cameraPrefix); ok {
		if err := CameraID(id).Validate(); err != nil {
			return FrameID{}, err
		}
		return CameraFrame(CameraID(id)), nil
	}
	return FrameID{}, errors.Errorf("unknown frame %q", s)
}

// MarshalJSON encodes the frame as its string form.
func (f FrameID) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, errors.New("cannot marshal invalid frame")
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a frame from its string form.
func (f *FrameID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFrameID(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
