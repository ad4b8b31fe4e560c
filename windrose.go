package epwcharts

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Wind speed bin edges in m/s, following the Beaufort-scale boundaries. The
// first bin catches calm observations, the last is open ended.
var windSpeedBins = []float64{-1, 0.5, 1.5, 3.3, 5.5, 7.9, 10.7, 13.8, 17.1, 20.7, math.Inf(1)}

const windSectors = 16
const windSectorWidth = 360.0 / windSectors

var compassNames = []string{
	"North", "N-N-E", "N-E", "E-N-E", "East", "E-S-E", "S-E", "S-S-E",
	"South", "S-S-W", "S-W", "W-S-W", "West", "W-N-W", "N-W", "N-N-W",
}

// windSpeedLabels names each speed bin: "calm", "a - b m/s", ... ">20.7 m/s".
func windSpeedLabels(bins []float64, units string) []string {
	labels := make([]string, 0, len(bins)-1)
	for i := 0; i < len(bins)-1; i++ {
		left, right := bins[i], bins[i+1]
		switch {
		case i == 0:
			labels = append(labels, "calm")
		case math.IsInf(right, 1):
			labels = append(labels, fmt.Sprintf(">%g %s", left, units))
		default:
			labels = append(labels, fmt.Sprintf("%g - %g %s", left, right, units))
		}
	}
	return labels
}

// WindRoseOptions tweak the wind rose.
type WindRoseOptions struct {
	Title      string
	HideLegend bool
	ColorSet   ColorSet

	// Period restricts the observations by month and hour of day; the zero
	// value means the full year.
	Period AnalysisPeriod
}

// WindRose builds a polar bar chart of wind frequency: 16 compass sectors,
// one stacked ring per speed bin, frequencies as percent of all observations
// in the analysis period. Calm hours (zero speed) have no direction and are
// spread evenly across the sectors.
func WindRose(speed, direction *HourlyCollection, opts WindRoseOptions) (*Figure, error) {
	if len(speed.Values) != len(direction.Values) {
		return nil, errors.Errorf("speed and direction length mismatch: %d vs %d", len(speed.Values), len(direction.Values))
	}

	if opts.ColorSet == "" {
		opts.ColorSet = ColorSetOriginal
	}
	if (opts.Period == AnalysisPeriod{}) {
		opts.Period = FullYear()
	}

	scale, err := ColorScale(opts.ColorSet)
	if err != nil {
		return nil, err
	}

	labels := windSpeedLabels(windSpeedBins, speed.Unit)

	// counts[bin][sector]
	counts := make([][]float64, len(labels))
	for i := range counts {
		counts[i] = make([]float64, windSectors)
	}

	total := 0
	calm := 0
	for hoy := range speed.Values {
		month, _, hour := calendarOfHour(hoy)
		if !opts.Period.Contains(month, hour) {
			continue
		}

		s := speed.Values[hoy]
		d := direction.Values[hoy]
		if math.IsNaN(s) || math.IsNaN(d) {
			continue
		}

		total++
		if s == 0 {
			calm++
		}

		counts[speedBinIndex(s)][directionSector(d)]++
	}

	if total == 0 {
		return nil, errors.New("no wind observations in the analysis period")
	}

	// The calm ring ignores direction entirely: the calm count is spread
	// evenly across the sectors.
	for sector := 0; sector < windSectors; sector++ {
		counts[0][sector] = float64(calm) / windSectors
	}

	sectorCenters := make([]float64, windSectors)
	for i := range sectorCenters {
		sectorCenters[i] = float64(i) * windSectorWidth
	}

	traces := make([]Trace, 0, len(labels))
	for i, label := range labels {
		r := make([]float64, windSectors)
		for sector := range r {
			r[sector] = counts[i][sector] / float64(total) * 100
		}

		traces = append(traces, Trace{
			Type:   "barpolar",
			Name:   label,
			R:      r,
			Theta:  sectorCenters,
			Text:   compassNames,
			Marker: &Marker{Color: scale[i%len(scale)]},
			Hover:  "frequency: %{r:.2f}%<br>direction: %{theta:.2f}° deg<br>",
		})
	}

	title := opts.Title
	if title == "" {
		title = "Wind Rose"
	}

	rotation := 90.0
	return &Figure{
		Data: traces,
		Layout: Layout{
			Title:      centeredTitle(title),
			AutoSize:   boolPtr(true),
			ShowLegend: boolPtr(!opts.HideLegend),
			DragMode:   false,
			Margin:     &Margin{L: 20, R: 20, T: 55, B: 20},
			Polar: &Polar{
				AngularAxis: &PolarAxis{Rotation: &rotation, Direction: "clockwise"},
			},
		},
	}, nil
}

func speedBinIndex(speed float64) int {
	for i := 0; i < len(windSpeedBins)-1; i++ {
		if speed > windSpeedBins[i] && speed <= windSpeedBins[i+1] {
			return i
		}
	}
	return len(windSpeedBins) - 2
}

// directionSector maps a direction in degrees to one of 16 sectors of 22.5
// degrees, with the first sector centered on north.
func directionSector(direction float64) int {
	sector := int(math.Floor((direction + windSectorWidth/2) / windSectorWidth))
	return sector % windSectors
}
