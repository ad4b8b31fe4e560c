package epwcharts

import (
	"fmt"
	"math"
	"sort"
)

// SunpathOptions tweak the sunpath chart.
type SunpathOptions struct {
	// Data overlays an hourly collection on the sun positions, coloring each
	// point by value.
	Data *HourlyCollection

	ColorSet ColorSet
	MinRange *float64
	MaxRange *float64
	Title    string
}

// Days whose full sun paths are drawn: the equinox and solstices, plus the
// 21st of the remaining months of the first half year (the second half
// mirrors them).
var sunpathKeyDays = []struct{ month, day int }{
	{3, 21}, {6, 21}, {12, 21},
	{1, 21}, {2, 21}, {4, 21}, {5, 21},
}

// SunpathChart builds the polar sunpath diagram: ten altitude circles, an
// hourly analemma cloud for the whole year and the day paths for the key
// dates. r = 90*cos(altitude), so the zenith sits at the center and the
// horizon on the outer edge.
func SunpathChart(sp *Sunpath, opts SunpathOptions) (*Figure, error) {
	if opts.ColorSet == "" {
		opts.ColorSet = ColorSetOriginal
	}

	scale, err := ColorScale(opts.ColorSet)
	if err != nil {
		return nil, err
	}

	traces := make([]Trace, 0, 12)

	// Altitude circles every 10 degrees.
	circleTheta := make([]float64, 361)
	for j := range circleTheta {
		circleTheta[j] = float64(j)
	}
	for i := 0; i < 10; i++ {
		r := make([]float64, 361)
		for j := range r {
			r[j] = 90 * math.Cos(radians(float64(i*10)))
		}
		traces = append(traces, Trace{
			Type:  "scatterpolar",
			Mode:  "lines",
			Line:  &Line{Color: "silver", Width: 1},
			R:     r,
			Theta: circleTheta,
			Hover: fmt.Sprintf("Altitude circle<br>%d°deg", i*10),
		})
	}

	// Hourly sun positions for the year, above the horizon only.
	type sunHour struct {
		pos   SunPosition
		month int
		day   int
		hour  int
		value float64
	}

	above := make([]sunHour, 0, HoursPerYear/2)
	for hoy := 0; hoy < HoursPerYear; hoy++ {
		month, day, hour := calendarOfHour(hoy)
		pos := sp.Position(month, day, hour, 0)
		if pos.Altitude <= 0 {
			continue
		}

		sh := sunHour{pos: pos, month: month, day: day, hour: hour}
		if opts.Data != nil {
			sh.value = opts.Data.Values[hoy]
		}
		above = append(above, sh)
	}

	r := make([]float64, len(above))
	theta := make([]float64, len(above))
	custom := make([][]interface{}, len(above))
	for i, sh := range above {
		r[i] = 90 * math.Cos(radians(sh.pos.Altitude))
		theta[i] = sh.pos.Azimuth
		custom[i] = []interface{}{sh.day, MonthName(sh.month), sh.hour, sh.pos.Altitude, sh.pos.Azimuth}
	}

	pathColor := "orange"
	title := opts.Title

	if opts.Data == nil {
		if title == "" {
			title = "Sunpath"
		}

		traces = append(traces, Trace{
			Type:       "scatterpolar",
			Mode:       "markers",
			R:          r,
			Theta:      theta,
			Marker:     &Marker{Color: pathColor, Size: 3, LineWidth: floatPtr(0)},
			CustomData: custom,
			Hover: "month: %{customdata[1]}<br>day: %{customdata[0]:.0f}<br>hour: %{customdata[2]:.0f}:00" +
				"<br>sun altitude: %{customdata[3]:.2f}°deg<br>sun azimuth: %{customdata[4]:.2f}°deg<br>",
		})
	} else {
		pathColor = "silver"
		if title == "" {
			title = "Sunpath - " + opts.Data.Name
		}

		valueMin := math.Inf(1)
		valueMax := math.Inf(-1)
		for _, sh := range above {
			if math.IsNaN(sh.value) {
				continue
			}
			if sh.value < valueMin {
				valueMin = sh.value
			}
			if sh.value > valueMax {
				valueMax = sh.value
			}
		}

		if valueMin > valueMax {
			// Every daylight hour is missing; nothing to scale against.
			valueMin, valueMax = 0, 0
		}

		valueRange := dataRange(valueMin, valueMax, opts.MinRange, opts.MaxRange)

		values := make([]*float64, len(above))
		sizes := make([]float64, len(above))
		for i, sh := range above {
			sizes[i] = 4
			if math.IsNaN(sh.value) {
				custom[i] = append(custom[i], nil)
				continue
			}

			value := sh.value
			values[i] = &value
			if valueMax > 0 {
				sizes[i] = ((sh.value-valueMin)/valueMax + 1) * 4
			}
			custom[i] = append(custom[i], sh.value)
		}

		traces = append(traces, Trace{
			Type:  "scatterpolar",
			Mode:  "markers",
			R:     r,
			Theta: theta,
			Marker: &Marker{
				Color:      values,
				Size:       sizes,
				LineWidth:  floatPtr(0),
				ColorScale: scale,
				ShowScale:  true,
				CMin:       &valueRange[0],
				CMax:       &valueRange[1],
				ColorBar:   &ColorBar{Thickness: 30, Title: opts.Data.Unit + "<br>  "},
			},
			CustomData: custom,
			Hover: "month: %{customdata[1]}<br>day: %{customdata[0]:.0f}<br>hour: %{customdata[2]:.0f}:00" +
				"<br>sun altitude: %{customdata[3]:.2f}°deg<br>sun azimuth: %{customdata[4]:.2f}°deg<br>" +
				fmt.Sprintf("<br><b>%s: %%{customdata[5]:.2f}%s</b>", opts.Data.Name, opts.Data.Unit),
		})
	}

	for _, keyDay := range sunpathKeyDays {
		traces = append(traces, dayPathTrace(sp, keyDay.month, keyDay.day, pathColor))
	}

	visible := false
	rotation := 90.0
	return &Figure{
		Data: traces,
		Layout: Layout{
			Template:   chartTemplate,
			ShowLegend: boolPtr(false),
			AutoSize:   boolPtr(false),
			DragMode:   false,
			Margin:     &chartMargin,
			Title:      centeredTitle(title),
			Polar: &Polar{
				RadialAxis:  &PolarAxis{TickFontSize: 10, Visible: &visible},
				AngularAxis: &PolarAxis{TickFontSize: 10, Rotation: &rotation, Direction: "clockwise"},
			},
		},
	}, nil
}

// dayPathTrace draws one day's sun path at 5 minute resolution, above the
// horizon only. Points are sorted by azimuth so the path renders as a single
// stroke.
func dayPathTrace(sp *Sunpath, month, day int, color string) Trace {
	type pathPoint struct {
		azimuth  float64
		r        float64
		altitude float64
	}

	points := make([]pathPoint, 0, 24*12)
	for minutes := 0; minutes < 24*60; minutes += 5 {
		pos := sp.Position(month, day, minutes/60, minutes%60)
		if pos.Altitude <= 0 {
			continue
		}
		points = append(points, pathPoint{
			azimuth:  pos.Azimuth,
			r:        90 * math.Cos(radians(pos.Altitude)),
			altitude: pos.Altitude,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].azimuth < points[j].azimuth })

	r := make([]float64, len(points))
	theta := make([]float64, len(points))
	altitudes := make([]float64, len(points))
	for i, p := range points {
		r[i] = p.r
		theta[i] = p.azimuth
		altitudes[i] = p.altitude
	}

	return Trace{
		Type:       "scatterpolar",
		Mode:       "lines",
		Line:       &Line{Color: color, Width: 1},
		R:          r,
		Theta:      theta,
		CustomData: altitudes,
		Hover:      "<br>sun altitude: %{customdata:.2f}°deg<br>sun azimuth: %{theta:.2f}°deg<br>",
	}
}
