package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/multiview/logging"
)

// Read reads a scene from the given file. Environment variables in the file are expanded first.
func Read(filePath string, logger logging.Logger) (*Scene, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a scene from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Scene, error) {
	scene := Scene{
		ConfigFilePath: originalPath,
	}
	if err := json.NewDecoder(r).Decode(&scene); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Scene from json")
	}
	if err := scene.Ensure(); err != nil {
		return nil, errors.Wrapf(err, "invalid scene %q", originalPath)
	}
	logger.Debugw("scene read",
		"path", originalPath,
		"cameras", len(scene.Cameras),
		"observations", len(scene.Observations))
	return &scene, nil
}

// Schema returns the JSON schema of a scene file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Scene{})
}
