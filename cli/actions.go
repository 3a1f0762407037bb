package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/multiview/camera"
	"go.viam.com/multiview/config"
	"go.viam.com/multiview/pnp"
	"go.viam.com/multiview/ray"
	"go.viam.com/multiview/referenceframe"
	"go.viam.com/multiview/spatialmath"
	"go.viam.com/multiview/triangulation"
)

// posedScene is a scene whose cameras are calibrated and, where correspondences allow, posed.
type posedScene struct {
	scene   *config.Scene
	cameras map[referenceframe.CameraID]*camera.Camera
}

func (mv *multiviewCLI) loadScene(c *cli.Context) (*posedScene, error) {
	scene, err := config.Read(c.String(generalFlagScene), mv.logger)
	if err != nil {
		return nil, err
	}
	cams, err := scene.BuildCameras(pnp.NewSolver(mv.logger), mv.logger)
	if err != nil {
		return nil, err
	}
	// cameras are independent, pose them in parallel
	var poses errgroup.Group
	for _, id := range lo.Keys(scene.Correspondences) {
		id := id
		cam := cams[id]
		world, pixels := scene.CorrespondencesFor(id)
		poses.Go(func() error {
			_, err := cam.EstimateExtrinsicsIfNeeded(world, pixels)
			if errors.Is(err, camera.ErrPoseSolverFailed) {
				// the camera stays calibrated and is reported as unposed
				mv.logger.Warnw("cannot pose camera", "camera", id, "error", err)
				return nil
			}
			return err
		})
	}
	if err := poses.Wait(); err != nil {
		return nil, err
	}
	return &posedScene{scene: scene, cameras: cams}, nil
}

func (ps *posedScene) camera(id string) (*camera.Camera, error) {
	cam, ok := ps.cameras[referenceframe.CameraID(id)]
	if !ok {
		return nil, errors.Errorf("no camera %q in scene, have %s", id, strings.Join(ps.ids(), ", "))
	}
	return cam, nil
}

func (ps *posedScene) ids() []string {
	ids := lo.Map(ps.scene.Cameras, func(c config.Camera, _ int) string { return string(c.ID) })
	sort.Strings(ids)
	return ids
}

func (mv *multiviewCLI) triangulateAction(c *cli.Context) error {
	ps, err := mv.loadScene(c)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "X", "Y", "Z", "Rays", "RMS", "Max", "Note"})
	solved := 0
	for _, obs := range ps.scene.Observations {
		rays, skipped, err := ps.worldRays(obs)
		if err != nil {
			return err
		}
		note := ""
		if len(skipped) > 0 {
			note = "unposed: " + strings.Join(skipped, ", ")
		}
		p, err := triangulation.Triangulate(rays, 0)
		if err != nil {
			mv.logger.Warnw("cannot triangulate", "observation", obs.Name, "error", err)
			t.AppendRow(table.Row{obs.Name, "", "", "", len(rays), "", "", joinNote(note, err.Error())})
			continue
		}
		report, err := triangulation.Residuals(rays, 0, p)
		if err != nil {
			return err
		}
		solved++
		t.AppendRow(table.Row{
			obs.Name,
			fmt.Sprintf("%.4f", p.X),
			fmt.Sprintf("%.4f", p.Y),
			fmt.Sprintf("%.4f", p.Z),
			len(rays),
			fmt.Sprintf("%.2e", report.RMS),
			fmt.Sprintf("%.2e", report.Max),
			note,
		})
	}
	printf(c.App.Writer, "%s", t.Render())
	printf(c.App.Writer, "triangulated %d of %d observations", solved, len(ps.scene.Observations))
	return nil
}

// worldRays returns the world ray of every posed camera that saw the observation and the ids of the
// cameras that could not contribute because they have no pose.
func (ps *posedScene) worldRays(obs config.Observation) ([]ray.Ray, []string, error) {
	var (
		rays    []ray.Ray
		skipped []string
	)
	for _, id := range obs.Cameras() {
		cam := ps.cameras[id]
		if cam.State() != camera.StatePosed {
			skipped = append(skipped, string(id))
			continue
		}
		px, _ := obs.Pixel(id)
		r, err := cam.PointImageToWorld(px)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "observation %q camera %q", obs.Name, id)
		}
		rays = append(rays, r)
	}
	return rays, skipped, nil
}

func joinNote(notes ...string) string {
	return strings.Join(lo.Compact(notes), "; ")
}

func (mv *multiviewCLI) poseAction(c *cli.Context) error {
	ps, err := mv.loadScene(c)
	if err != nil {
		return err
	}
	length := c.Float64(generalFlagLength)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Camera", "State", "Center", "Rotation", "World axes (origin, x, y, z)"})
	for _, id := range ps.ids() {
		cam := ps.cameras[referenceframe.CameraID(id)]
		if cam.State() != camera.StatePosed {
			t.AppendRow(table.Row{id, cam.State(), "", "", ""})
			continue
		}
		center, err := cam.CameraCenter()
		if err != nil {
			return err
		}
		cameraToWorld, err := cam.CameraToWorld()
		if err != nil {
			return err
		}
		var axesCell string
		axes, err := cam.ProjectAxes(length)
		if err != nil {
			axesCell = err.Error()
		} else {
			axesCell = strings.Join(lo.Map([]r2.Point{axes.Origin, axes.X, axes.Y, axes.Z}, func(p r2.Point, _ int) string {
				return formatPixel(p)
			}), " ")
		}
		t.AppendRow(table.Row{
			id,
			cam.State(),
			formatVector(center),
			formatVector(spatialmath.RotationVectorFromMatrix(cameraToWorld.Rotation())),
			axesCell,
		})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func (mv *multiviewCLI) projectAction(c *cli.Context) error {
	values, err := parseFloats(c.String(generalFlagPoint), 3)
	if err != nil {
		return errors.Wrapf(err, "--%s", generalFlagPoint)
	}
	ps, err := mv.loadScene(c)
	if err != nil {
		return err
	}
	cam, err := ps.camera(c.String(generalFlagCamera))
	if err != nil {
		return err
	}
	px, err := cam.PointWorldToImage(spatialmath.NewPoint(r3.Vector{X: values[0], Y: values[1], Z: values[2]}))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", formatPixel(px))
	return nil
}

func (mv *multiviewCLI) unprojectAction(c *cli.Context) error {
	values, err := parseFloats(c.String(generalFlagPixel), 2)
	if err != nil {
		return errors.Wrapf(err, "--%s", generalFlagPixel)
	}
	ps, err := mv.loadScene(c)
	if err != nil {
		return err
	}
	cam, err := ps.camera(c.String(generalFlagCamera))
	if err != nil {
		return err
	}
	r, err := cam.PointImageToWorld(r2.Point{X: values[0], Y: values[1]})
	if err != nil {
		return err
	}
	origin, direction, err := r.Line()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "origin:    %s", formatVector(origin))
	printf(c.App.Writer, "direction: %s", formatVector(direction))
	return nil
}

func (mv *multiviewCLI) schemaAction(c *cli.Context) error {
	raw, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", raw)
	return nil
}

// parseFloats parses exactly n comma separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, errors.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	values := make([]float64, n)
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

func formatPixel(p r2.Point) string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}
