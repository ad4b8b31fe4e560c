package epwcharts

import "fmt"

// HeatMapOptions tweak the annual heat map.
type HeatMapOptions struct {
	// MinRange and MaxRange pin the legend range. An unset bound is computed
	// from the data, rounded outward to a multiple of 5.
	MinRange *float64
	MaxRange *float64

	ColorSet ColorSet
}

// HeatMap builds the annual hour-by-day heat map of an hourly collection:
// 365 columns of days, 24 rows of hours, colored by value.
func HeatMap(data *HourlyCollection, opts HeatMapOptions) (*Figure, error) {
	if opts.ColorSet == "" {
		opts.ColorSet = ColorSetOriginal
	}

	scale, err := ColorScale(opts.ColorSet)
	if err != nil {
		return nil, err
	}

	zRange := dataRange(data.Min(), data.Max(), opts.MinRange, opts.MaxRange)

	// z[hour][day], with one NaN-capable cell per hour of the year.
	z := make([][]*float64, 24)
	for hour := range z {
		z[hour] = make([]*float64, DaysPerYear)
	}

	dates := make([]string, DaysPerYear)
	custom := make([][]interface{}, DaysPerYear)
	for day := 0; day < DaysPerYear; day++ {
		dates[day] = dateOfDay(day)

		month, dayOfMonth, _ := calendarOfHour(day * 24)
		custom[day] = []interface{}{MonthName(month), dayOfMonth}

		for hour := 0; hour < 24; hour++ {
			v := data.Values[day*24+hour]
			if v == v { // NaN cells stay null in the JSON
				value := v
				z[hour][day] = &value
			}
		}
	}

	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}

	trace := Trace{
		Type:       "heatmap",
		X:          dates,
		Y:          hours,
		Z:          z,
		ZMin:       &zRange[0],
		ZMax:       &zRange[1],
		ColorScale: scale,
		CustomData: custom,
		Hover: fmt.Sprintf(
			"<b>%s: %%{z} %s</b><br>Month: %%{customdata[0]}<br>Day: %%{customdata[1]}<br>Hour: %%{y}:00<br>",
			data.Name, data.Unit),
		ColorBar: &ColorBar{Title: data.Unit},
	}

	xAxis := mirroredAxis()
	xAxis.DTick = "M1"
	xAxis.TickFormat = "%b"
	xAxis.TickLabelMode = "period"

	yAxis := mirroredAxis()
	yAxis.Title = "Hours of the day"
	yAxis.NTicks = 13

	return &Figure{
		Data: []Trace{trace},
		Layout: Layout{
			Template: chartTemplate,
			Margin:   &chartMargin,
			Title:    centeredTitle(data.Name),
			XAxis:    xAxis,
			YAxis:    yAxis,
		},
	}, nil
}
