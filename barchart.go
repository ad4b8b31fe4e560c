package epwcharts

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// BarChartOptions tweak the monthly and daily bar charts.
type BarChartOptions struct {
	// Title for the chart. If empty, the series names are joined with " - ".
	Title string

	// Colors per series. Must match the number of series if set; random
	// colors are used otherwise.
	Colors []Color

	// Stacked stacks the series instead of grouping them side by side.
	Stacked bool
}

// MonthlyBarChart builds a bar chart from one or more monthly collections.
func MonthlyBarChart(data []*MonthlyCollection, opts BarChartOptions) (*Figure, error) {
	if len(data) == 0 {
		return nil, errors.New("at least one monthly collection is required")
	}
	if opts.Colors != nil && len(opts.Colors) != len(data) {
		return nil, errors.Errorf("got %d colors for %d collections", len(opts.Colors), len(data))
	}

	traces := make([]Trace, 0, len(data))
	names := make([]string, 0, len(data))
	for i, collection := range data {
		traces = append(traces, monthlyBar(collection, seriesColor(opts.Colors, i)))
		names = append(names, collection.Name)
	}

	return barFigure(traces, opts, names, data[0].Unit), nil
}

// DailyBarChart builds a bar chart from one or more daily collections.
func DailyBarChart(data []*DailyCollection, opts BarChartOptions) (*Figure, error) {
	if len(data) == 0 {
		return nil, errors.New("at least one daily collection is required")
	}
	if opts.Colors != nil && len(opts.Colors) != len(data) {
		return nil, errors.Errorf("got %d colors for %d collections", len(opts.Colors), len(data))
	}

	traces := make([]Trace, 0, len(data))
	names := make([]string, 0, len(data))
	for i, collection := range data {
		traces = append(traces, dailyBar(collection, seriesColor(opts.Colors, i)))
		names = append(names, collection.Name)
	}

	return barFigure(traces, opts, names, data[0].Unit), nil
}

func seriesColor(colors []Color, i int) Color {
	if colors == nil {
		return RandomColor()
	}
	return colors[i]
}

func monthlyBar(data *MonthlyCollection, color Color) Trace {
	values := make([]*float64, len(data.Values))
	labels := make([]string, len(data.Values))
	custom := make([][]interface{}, len(data.Values))
	for i, v := range data.Values {
		custom[i] = []interface{}{MonthName(i + 1)}
		if math.IsNaN(v) {
			continue
		}
		rounded := round2(v)
		values[i] = &rounded
		labels[i] = fmt.Sprintf("%g %s", rounded, data.Unit)
	}

	return Trace{
		Type:       "bar",
		Name:       data.Name,
		X:          monthNames,
		Y:          values,
		Text:       labels,
		TextPos:    "auto",
		CustomData: custom,
		Hover:      fmt.Sprintf("<br>%%{y} %s in %%{customdata[0]}<extra></extra>", data.Unit),
		Marker:     &Marker{Color: color.Hex()},
	}
}

func dailyBar(data *DailyCollection, color Color) Trace {
	values := make([]*float64, len(data.Values))
	dates := make([]string, len(data.Values))
	custom := make([][]interface{}, len(data.Values))
	for i, v := range data.Values {
		dates[i] = dateOfDay(i)

		month, dayOfMonth, _ := calendarOfHour(i * 24)
		custom[i] = []interface{}{MonthName(month), dayOfMonth}

		if math.IsNaN(v) {
			continue
		}
		rounded := round2(v)
		values[i] = &rounded
	}

	return Trace{
		Type:       "bar",
		Name:       data.Name,
		X:          dates,
		Y:          values,
		CustomData: custom,
		Hover:      fmt.Sprintf("<br>%%{y} %s on %%{customdata[0]} %%{customdata[1]} <br><extra></extra>", data.Unit),
		Marker:     &Marker{Color: color.Hex()},
	}
}

func barFigure(traces []Trace, opts BarChartOptions, names []string, unit string) *Figure {
	title := opts.Title
	if title == "" {
		title = strings.Join(names, " - ")
	}

	barMode := "group"
	if opts.Stacked {
		barMode = "relative"
	}

	xAxis := mirroredAxis()
	xAxis.DTick = "M1"
	xAxis.TickFormat = "%b"
	xAxis.TickLabelMode = "period"

	yAxis := mirroredAxis()
	yAxis.NTicks = 13
	if len(names) == 1 {
		yAxis.Title = "(" + unit + ")"
	}

	return &Figure{
		Data: traces,
		Layout: Layout{
			Template: chartTemplate,
			Margin:   &chartMargin,
			BarMode:  barMode,
			Title:    centeredTitle(title),
			Legend:   &Legend{X: floatPtr(0), Y: floatPtr(1.2)},
			XAxis:    xAxis,
			YAxis:    yAxis,
		},
	}
}
