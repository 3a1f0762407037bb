package triangulation

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/multiview/ray"
	"go.viam.com/multiview/spatialmath"
)

// Report summarizes how far a triangulated point is from the rays it was computed from.
type Report struct {
	Distances []float64 `json:"distances"`
	Mean      float64   `json:"mean"`
	Max       float64   `json:"max"`
	RMS       float64   `json:"rms"`
}

// Residuals measures the perpendicular distance from p to each of rays[start:].
func Residuals(rays []ray.Ray, start int, p spatialmath.Point) (Report, error) {
	if start < 0 || start >= len(rays) {
		return Report{}, errors.Errorf("start index %d out of range for %d rays", start, len(rays))
	}
	v, err := p.Vector()
	if err != nil {
		return Report{}, err
	}
	distances := make([]float64, 0, len(rays)-start)
	for i, r := range rays[start:] {
		d, err := PerpendicularDistance(r, v)
		if err != nil {
			return Report{}, errors.Wrapf(err, "ray %d", i+start)
		}
		distances = append(distances, d)
	}

	report := Report{Distances: distances}
	if report.Mean, err = stats.Mean(distances); err != nil {
		return Report{}, err
	}
	if report.Max, err = stats.Max(distances); err != nil {
		return Report{}, err
	}
	squares := make([]float64, len(distances))
	for i, d := range distances {
		squares[i] = d * d
	}
	meanSquare, err := stats.Mean(squares)
	if err != nil {
		return Report{}, err
	}
	report.RMS = math.Sqrt(meanSquare)
	if math.IsNaN(report.RMS) {
		return Report{}, errors.New("residuals are not finite")
	}
	return report, nil
}
