package epwcharts

import (
	"fmt"
	"math"
)

// HourlyLineChart builds the daily band chart of an hourly collection: a
// translucent bar from each day's minimum to its maximum, with the daily mean
// drawn as a line on top.
func HourlyLineChart(data *HourlyCollection, color *Color) *Figure {
	c := RandomColor()
	if color != nil {
		c = *color
	}

	yRange := dataRange(data.Min(), data.Max(), nil, nil)
	stats := data.DailyStats()

	dates := make([]string, DaysPerYear)
	heights := make([]*float64, DaysPerYear)
	bases := make([]*float64, DaysPerYear)
	means := make([]*float64, DaysPerYear)
	custom := make([][]interface{}, DaysPerYear)

	for day, stat := range stats {
		dates[day] = dateOfDay(day)
		month, dayOfMonth, _ := calendarOfHour(day * 24)

		// A day with no valid hours has NaN stats and renders as a gap.
		if math.IsNaN(stat.Mean) {
			custom[day] = []interface{}{nil, MonthName(month), dayOfMonth}
			continue
		}

		height := stat.Max - stat.Min
		base := stat.Min
		mean := stat.Mean
		heights[day] = &height
		bases[day] = &base
		means[day] = &mean
		custom[day] = []interface{}{mean, MonthName(month), dayOfMonth}
	}

	band := Trace{
		Type:       "bar",
		Name:       data.Name + " Range",
		X:          dates,
		Y:          heights,
		Base:       bases,
		Marker:     &Marker{Color: c.Hex(), Opacity: 0.3},
		CustomData: custom,
		Hover: fmt.Sprintf(
			"Max: %%{y:.2f} %s<br>Min: %%{base:.2f} %s<br><b>Ave : %%{customdata[0]:.2f} %s</b>"+
				"<br>Month: %%{customdata[1]}<br>Day: %%{customdata[2]}<br><extra></extra>",
			data.Unit, data.Unit, data.Unit),
	}

	mean := Trace{
		Type:       "scatter",
		Name:       "Average " + data.Name,
		Mode:       "lines",
		X:          dates,
		Y:          means,
		Marker:     &Marker{Color: c.Hex(), Opacity: 1},
		CustomData: custom,
		Hover: fmt.Sprintf(
			"<b>Ave : %%{customdata[0]:.2f} %s</b><br>Month: %%{customdata[1]}<br>Day: %%{customdata[2]}<br><extra></extra>",
			data.Unit),
	}

	xAxis := mirroredAxis()
	xAxis.DTick = "M1"
	xAxis.TickFormat = "%b"
	xAxis.TickLabelMode = "period"

	yAxis := mirroredAxis()
	yAxis.Range = yRange
	yAxis.Title = "(" + data.Unit + ")"

	return &Figure{
		Data: []Trace{band, mean},
		Layout: Layout{
			Template: chartTemplate,
			Margin:   &chartMargin,
			BarMode:  "overlay",
			BarGap:   floatPtr(0),
			Legend:   &Legend{Orientation: "h", YAnchor: "bottom", Y: floatPtr(1.02), XAnchor: "right", X: floatPtr(1)},
			XAxis:    xAxis,
			YAxis:    yAxis,
		},
	}
}

// PerHourLineChart builds twelve month panels, each showing every hourly
// observation of the month as faint markers with the per-hour median drawn as
// a line through them.
func PerHourLineChart(data *HourlyCollection, color *Color) *Figure {
	c := RandomColor()
	if color != nil {
		c = *color
	}

	yRange := dataRange(data.Min(), data.Max(), nil, nil)
	medians := data.MonthlyHourMedians()

	// Group the observations by month.
	hoursByMonth := make([][]int, 12)
	valuesByMonth := make([][]float64, 12)
	for hoy, v := range data.Values {
		if math.IsNaN(v) {
			continue
		}
		month, _, hour := calendarOfHour(hoy)
		hoursByMonth[month-1] = append(hoursByMonth[month-1], hour)
		valuesByMonth[month-1] = append(valuesByMonth[month-1], v)
	}

	traces := make([]Trace, 0, 24)
	annotations := make([]Annotation, 0, 12)
	subXAxes := make(map[string]*Axis, 12)
	subYAxes := make(map[string]*Axis, 12)

	for m := 0; m < 12; m++ {
		axisRef := ""
		if m > 0 {
			axisRef = fmt.Sprintf("%d", m+1)
		}

		traces = append(traces, Trace{
			Type:        "scatter",
			Mode:        "markers",
			Name:        MonthName(m + 1),
			ShowLegend:  boolPtr(false),
			X:           hoursByMonth[m],
			Y:           valuesByMonth[m],
			Opacity:     0.5,
			Marker:      &Marker{Color: c.Hex(), Size: 3},
			XAxisAnchor: "x" + axisRef,
			YAxisAnchor: "y" + axisRef,
			Hover: fmt.Sprintf(
				"<b>%s: %%{y:.2f} %s</b><br>Month: %s<br>Hour: %%{x}:00<br>",
				data.Name, data.Unit, MonthName(m+1)),
		})

		medianHours := make([]int, 24)
		medianValues := make([]float64, 24)
		for h := 0; h < 24; h++ {
			medianHours[h] = h
			medianValues[h] = medians[m][h]
		}

		traces = append(traces, Trace{
			Type:        "scatter",
			Mode:        "lines",
			ShowLegend:  boolPtr(false),
			X:           medianHours,
			Y:           nullable(medianValues),
			Line:        &Line{Color: c.Hex(), Width: 3},
			XAxisAnchor: "x" + axisRef,
			YAxisAnchor: "y" + axisRef,
			Hover:       fmt.Sprintf("<b>%s: %%{y:.2f} %s</b><br>Hour: %%{x}:00<br>", data.Name, data.Unit),
		})

		xAxis := &Axis{
			Range:     []float64{0, 25},
			TickVals:  []interface{}{6, 12, 18},
			TickText:  []string{"6", "12", "18"},
			TickAngle: floatPtr(0),
		}
		yAxis := &Axis{Range: yRange}

		if m == 0 {
			subXAxes["xaxis"] = xAxis
			subYAxes["yaxis"] = yAxis
		} else {
			subXAxes["xaxis"+axisRef] = xAxis
			subYAxes["yaxis"+axisRef] = yAxis
		}

		// Panel title centered above each month's subplot.
		annotations = append(annotations, Annotation{
			Text:      MonthName(m + 1),
			X:         12.5,
			Y:         yRange[1],
			XRef:      "x" + axisRef,
			YRef:      "y" + axisRef,
			ShowArrow: false,
		})
	}

	return &Figure{
		Data: traces,
		Layout: Layout{
			Template:    chartTemplate,
			Margin:      &Margin{L: 20, R: 20, T: 55, B: 20},
			Title:       centeredTitle(fmt.Sprintf("%s (%s)", data.Name, data.Unit)),
			DragMode:    false,
			Grid:        &Grid{Rows: 1, Columns: 12, Pattern: "independent"},
			Annotations: annotations,
			SubXAxes:    subXAxes,
			SubYAxes:    subYAxes,
		},
	}
}
