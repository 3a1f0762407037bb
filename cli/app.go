// Package cli contains the multiview command line.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/multiview/logging"
)

const (
	// Flags.
	generalFlagDebug  = "debug"
	generalFlagScene  = "scene"
	generalFlagCamera = "camera"
	generalFlagPoint  = "point"
	generalFlagPixel  = "pixel"
	generalFlagLength = "length"
)

var sceneFlag = &cli.StringFlag{
	Name:     generalFlagScene,
	Aliases:  []string{"s"},
	Required: true,
	Usage:    "load the scene from `FILE`",
}

var cameraFlag = &cli.StringFlag{
	Name:     generalFlagCamera,
	Required: true,
	Usage:    "id of the camera to use",
}

type multiviewCLI struct {
	logger logging.Logger
}

// NewApp returns the multiview app writing to the given streams.
func NewApp(out, errOut io.Writer) *cli.App {
	mv := &multiviewCLI{logger: logging.NewBlankLogger("multiview")}
	return &cli.App{
		Name:            "multiview",
		Usage:           "pose calibrated cameras and triangulate what they see",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: mv.before,
		Commands: []*cli.Command{
			{
				Name:   "triangulate",
				Usage:  "estimate camera poses and triangulate every observation of a scene",
				Flags:  []cli.Flag{sceneFlag},
				Action: mv.triangulateAction,
			},
			{
				Name:  "pose",
				Usage: "estimate camera poses and print where each camera is",
				Flags: []cli.Flag{
					sceneFlag,
					&cli.Float64Flag{
						Name:  generalFlagLength,
						Value: 1,
						Usage: "length of the world axes projected into each posed camera",
					},
				},
				Action: mv.poseAction,
			},
			{
				Name:      "project",
				Usage:     "project a world point into a camera",
				UsageText: "multiview project --scene <file> --camera <id> --point x,y,z",
				Flags: []cli.Flag{
					sceneFlag,
					cameraFlag,
					&cli.StringFlag{
						Name:     generalFlagPoint,
						Required: true,
						Usage:    "world point as x,y,z",
					},
				},
				Action: mv.projectAction,
			},
			{
				Name:      "unproject",
				Usage:     "print the world ray through a pixel of a camera",
				UsageText: "multiview unproject --scene <file> --camera <id> --pixel u,v",
				Flags: []cli.Flag{
					sceneFlag,
					cameraFlag,
					&cli.StringFlag{
						Name:     generalFlagPixel,
						Required: true,
						Usage:    "pixel as u,v",
					},
				},
				Action: mv.unprojectAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of scene files",
				Action: mv.schemaAction,
			},
		},
	}
}

func (mv *multiviewCLI) before(c *cli.Context) error {
	if c.Bool(generalFlagDebug) {
		mv.logger = logging.NewDebugLogger("multiview")
	}
	return nil
}
