package epwcharts

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Grid cell size of the frequency mesh: 1 degree C by 0.001 kg/kg.
const (
	psychCellWidth  = 1.0
	psychCellHeight = 0.001
)

// Comfort zone bounds of the base comfort polygon. This is a simplified
// still-air comfort zone; the strategy polygons offset it.
const (
	comfortTempMin = 20.0
	comfortTempMax = 26.7
	comfortHRMax   = 0.012
)

// PsychChartOptions tweak the psychrometric chart.
type PsychChartOptions struct {
	// Data colors the mesh by a variable's per-cell average instead of by
	// hour frequency.
	Data *HourlyCollection

	Title    string
	ColorSet ColorSet

	// ShowPolygons draws the comfort polygon (plus any Strategies) and
	// reports the share of hours each one covers.
	ShowPolygons       bool
	Strategies         []Strategy
	StrategyParameters *StrategyParameters

	// SolarData is the irradiance collection required by the passive solar
	// heating strategy.
	SolarData *HourlyCollection
}

type psychPoint struct {
	temp float64
	hr   float64
}

// PsychrometricChart builds the psychrometric chart from dry bulb temperature
// and relative humidity: constant-RH curves, a binned mesh of the year's
// hours colored by frequency (or by a data variable), and optional comfort
// polygons.
func PsychrometricChart(dbt, rh *HourlyCollection, opts PsychChartOptions) (*Figure, error) {
	if len(dbt.Values) != len(rh.Values) {
		return nil, errors.Errorf("temperature and humidity length mismatch: %d vs %d", len(dbt.Values), len(rh.Values))
	}

	if opts.ColorSet == "" {
		opts.ColorSet = ColorSetOriginal
	}

	palette, err := Palette(opts.ColorSet)
	if err != nil {
		return nil, err
	}

	points := make([]psychPoint, 0, len(dbt.Values))
	hourIndexes := make([]int, 0, len(dbt.Values))
	for hoy := range dbt.Values {
		t := dbt.Values[hoy]
		h := rh.Values[hoy]
		if math.IsNaN(t) || math.IsNaN(h) {
			continue
		}
		points = append(points, psychPoint{temp: t, hr: HumidityRatioAtStandardPressure(t, h)})
		hourIndexes = append(hourIndexes, hoy)
	}

	if len(points) == 0 {
		return nil, errors.New("no valid temperature/humidity observations")
	}

	tempMin, tempMax := math.Inf(1), math.Inf(-1)
	hrMin, hrMax := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		tempMin = math.Min(tempMin, p.temp)
		tempMax = math.Max(tempMax, p.temp)
		hrMin = math.Min(hrMin, p.hr)
		hrMax = math.Max(hrMax, p.hr)
	}

	xRange := []float64{floorTo5(tempMin), ceilTo5(tempMax)}
	yRange := []float64{floorTo5(hrMin*1000) / 1000, ceilTo5(hrMax*1000) / 1000}

	fig := &Figure{}

	// Constant relative humidity curves from 10% to 100%.
	curveTemps := make([]float64, 0, 120)
	for t := -60; t < 60; t++ {
		curveTemps = append(curveTemps, float64(t))
	}
	for rhLine := 10; rhLine <= 100; rhLine += 10 {
		hrValues := make([]float64, len(curveTemps))
		for i, t := range curveTemps {
			hrValues[i] = HumidityRatioAtStandardPressure(t, float64(rhLine))
		}

		fig.Data = append(fig.Data, Trace{
			Type:       "scatter",
			Mode:       "lines",
			ShowLegend: boolPtr(false),
			X:          curveTemps,
			Y:          hrValues,
			Hover:      fmt.Sprintf("RH %d%%", rhLine),
			Line:       &Line{Color: "#85837f", Width: 1},
		})
	}

	meshTraces, legendMin, legendMax, legendTitle := psychMesh(points, hourIndexes, opts, palette)
	fig.Data = append(fig.Data, meshTraces...)

	// Dummy trace carrying the colorbar legend.
	scale := make([]string, len(palette))
	for i, c := range palette {
		scale[i] = c.Hex()
	}
	fig.Data = append(fig.Data, Trace{
		Type:       "scatter",
		Mode:       "markers",
		ShowLegend: boolPtr(false),
		X:          []interface{}{nil},
		Y:          []interface{}{nil},
		Marker: &Marker{
			ColorScale: scale,
			ShowScale:  true,
			CMin:       &legendMin,
			CMax:       &legendMax,
			ColorBar:   &ColorBar{Thickness: 30, Title: legendTitle},
		},
	})

	title := opts.Title
	if title == "" {
		if opts.Data != nil {
			title = "Psychrometric Chart - " + opts.Data.Name
		} else {
			title = "Psychrometric Chart - Frequency"
		}
	}

	if opts.ShowPolygons {
		fig.Data = append(fig.Data, comfortPolygonTraces(dbt, points, hourIndexes, opts)...)
	}

	xAxis := mirroredAxis()
	xAxis.Title = "Temperature (°C)"
	xAxis.Range = xRange
	xAxis.DTick = 5

	yAxis := mirroredAxis()
	yAxis.Title = "Humidity Ratio (KG water/KG air)"
	yAxis.Range = yRange

	fig.Layout = Layout{
		Template: chartTemplate,
		Margin:   &chartMargin,
		Title:    centeredTitle(title),
		Legend:   &Legend{YAnchor: "top", Y: floatPtr(0.99), XAnchor: "left", X: floatPtr(0.01)},
		XAxis:    xAxis,
		YAxis:    yAxis,
	}

	return fig, nil
}

// psychMesh bins the observations on the chart grid and renders one filled
// square per occupied cell plus an invisible hover marker at its center,
// colored by hour count or by the average of opts.Data.
func psychMesh(points []psychPoint, hourIndexes []int, opts PsychChartOptions, palette []Color) ([]Trace, float64, float64, string) {
	type cellKey struct{ tx, ty int }

	counts := map[cellKey]int{}
	sums := map[cellKey]float64{}
	valid := map[cellKey]int{}
	for i, p := range points {
		key := cellKey{
			tx: int(math.Floor(p.temp / psychCellWidth)),
			ty: int(math.Floor(p.hr / psychCellHeight)),
		}
		counts[key]++
		if opts.Data != nil {
			v := opts.Data.Values[hourIndexes[i]]
			if !math.IsNaN(v) {
				sums[key] += v
				valid[key]++
			}
		}
	}

	// When coloring by a data variable, a cell whose hours all miss that
	// variable has no average to show and is left out of the mesh.
	hasValue := func(key cellKey) bool {
		return opts.Data == nil || valid[key] > 0
	}
	cellValue := func(key cellKey) float64 {
		if opts.Data != nil {
			return sums[key] / float64(valid[key])
		}
		return float64(counts[key])
	}

	legendMin, legendMax := math.Inf(1), math.Inf(-1)
	for key := range counts {
		if !hasValue(key) {
			continue
		}
		v := cellValue(key)
		legendMin = math.Min(legendMin, v)
		legendMax = math.Max(legendMax, v)
	}
	if legendMin > legendMax {
		legendMin, legendMax = 0, 0
	}

	legendTitle := "hours"
	if opts.Data != nil {
		legendTitle = opts.Data.Unit
	}

	traces := make([]Trace, 0, 2*len(counts))
	for key, count := range counts {
		if !hasValue(key) {
			continue
		}
		v := cellValue(key)

		colorIndex := 0
		if legendMax > legendMin {
			colorIndex = int((v - legendMin) / (legendMax - legendMin) * float64(len(palette)-1))
		}

		x0 := float64(key.tx) * psychCellWidth
		y0 := float64(key.ty) * psychCellHeight

		traces = append(traces, Trace{
			Type:       "scatter",
			Mode:       "lines",
			Fill:       "toself",
			FillColor:  palette[colorIndex].Hex(),
			ShowLegend: boolPtr(false),
			Line:       &Line{Width: 0},
			X:          []float64{x0, x0 + psychCellWidth, x0 + psychCellWidth, x0, x0},
			Y:          []float64{y0, y0, y0 + psychCellHeight, y0 + psychCellHeight, y0},
		})

		// Filled shapes take no hover text, so each cell gets an invisible
		// marker at its center to carry it.
		hover := fmt.Sprintf("%d hours<extra></extra>", count)
		if opts.Data != nil {
			hover = fmt.Sprintf("%d %s<extra></extra>", int(v), legendTitle)
		}
		traces = append(traces, Trace{
			Type:       "scatter",
			Mode:       "markers",
			Opacity:    0,
			ShowLegend: boolPtr(false),
			X:          []float64{x0 + psychCellWidth/2},
			Y:          []float64{y0 + psychCellHeight/2},
			Hover:      hover,
		})
	}

	return traces, legendMin, legendMax, legendTitle
}

// comfortHRCap bounds the comfort polygons from above: the smaller of the
// comfort humidity ratio limit and saturation.
func comfortHRCap(temp float64) float64 {
	return math.Min(comfortHRMax, HumidityRatioAtStandardPressure(temp, 100))
}

type comfortPolygon struct {
	name  string
	verts []psychPoint

	// extra per-hour condition on top of polygon containment, if any.
	applies func(hoy int) bool
}

// comfortPolygonTraces builds the comfort polygon plus the requested strategy
// polygons and reports for each the share of hours it covers.
func comfortPolygonTraces(dbt *HourlyCollection, points []psychPoint, hourIndexes []int, opts PsychChartOptions) []Trace {
	logger := logrus.WithField("tag", "PsychChart")

	params := DefaultStrategyParameters()
	if opts.StrategyParameters != nil {
		params = *opts.StrategyParameters
	}

	polygons := []comfortPolygon{{
		name: "Comfort",
		verts: []psychPoint{
			{comfortTempMin, 0}, {comfortTempMax, 0},
			{comfortTempMax, comfortHRCap(comfortTempMax)}, {comfortTempMin, comfortHRCap(comfortTempMin)},
		},
	}}

	dayMins := dbt.DailyStats()

	for _, strategy := range opts.Strategies {
		switch strategy {
		case StrategyEvaporativeCooling:
			// Hot dry air: the hotter it gets, the less moisture evaporative
			// cooling can compensate for.
			polygons = append(polygons, comfortPolygon{
				name: string(strategy),
				verts: []psychPoint{
					{comfortTempMax, 0}, {comfortTempMax + 12, 0},
					{comfortTempMax, comfortHRCap(comfortTempMax)},
				},
			})

		case StrategyFanUse:
			// Elevated air speed extends the warm edge by roughly 2.2 K per
			// m/s of air movement.
			extent := 2.2 * params.FanAirSpeed
			polygons = append(polygons, comfortPolygon{
				name: string(strategy),
				verts: []psychPoint{
					{comfortTempMax, 0}, {comfortTempMax + extent, 0},
					{comfortTempMax + extent, comfortHRCap(comfortTempMax + extent)},
					{comfortTempMax, comfortHRCap(comfortTempMax)},
				},
			})

		case StrategyNightVentilation:
			polygons = append(polygons, comfortPolygon{
				name: string(strategy),
				verts: []psychPoint{
					{comfortTempMax, 0}, {comfortTempMax + params.DayAboveComfort, 0},
					{comfortTempMax + params.DayAboveComfort, comfortHRCap(comfortTempMax + params.DayAboveComfort)},
					{comfortTempMax, comfortHRCap(comfortTempMax)},
				},
				// Only days whose nights drop far enough below comfort can be
				// flushed.
				applies: func(hoy int) bool {
					return dayMins[hoy/24].Min <= comfortTempMin-params.NightBelowComfort
				},
			})

		case StrategyInternalHeat:
			polygons = append(polygons, comfortPolygon{
				name: string(strategy),
				verts: []psychPoint{
					{params.BalanceTemperature, 0}, {comfortTempMin, 0},
					{comfortTempMin, comfortHRCap(comfortTempMin)},
					{params.BalanceTemperature, comfortHRCap(params.BalanceTemperature)},
				},
			})

		case StrategyPassiveSolarHeating:
			if opts.SolarData == nil {
				logger.Warn("passive solar heating strategy requires solar data, skipping")
				continue
			}

			// Thermal mass carries the collected solar heat: the longer the
			// time constant, the further below comfort solar gain can reach.
			delta := params.SolarHeatingCapacity * params.TimeConstant / 100
			solar := opts.SolarData
			capacity := params.SolarHeatingCapacity
			polygons = append(polygons, comfortPolygon{
				name: string(strategy),
				verts: []psychPoint{
					{comfortTempMin - delta, 0}, {comfortTempMin, 0},
					{comfortTempMin, comfortHRCap(comfortTempMin)},
					{comfortTempMin - delta, comfortHRCap(comfortTempMin - delta)},
				},
				applies: func(hoy int) bool {
					return solar.Values[hoy] >= capacity
				},
			})

		default:
			logger.WithField("strategy", strategy).Warn("unknown strategy, skipping")
		}
	}

	traces := make([]Trace, 0, len(polygons))
	for _, polygon := range polygons {
		covered := 0
		for i, p := range points {
			if !pointInPolygon(p, polygon.verts) {
				continue
			}
			if polygon.applies != nil && !polygon.applies(hourIndexes[i]) {
				continue
			}
			covered++
		}

		percent := math.Round(float64(covered) / float64(len(points)) * 100)

		x := make([]float64, 0, len(polygon.verts)+1)
		y := make([]float64, 0, len(polygon.verts)+1)
		for _, v := range polygon.verts {
			x = append(x, v.temp)
			y = append(y, v.hr)
		}
		x = append(x, polygon.verts[0].temp)
		y = append(y, polygon.verts[0].hr)

		traces = append(traces, Trace{
			Type:       "scatter",
			Mode:       "lines",
			ShowLegend: boolPtr(true),
			Name:       fmt.Sprintf("%s: %g%% of time", polygon.name, percent),
			Line:       &Line{Width: 4},
			X:          x,
			Y:          y,
		})
	}

	return traces
}

// pointInPolygon uses ray casting on the polygon edges.
func pointInPolygon(p psychPoint, verts []psychPoint) bool {
	inside := false
	n := len(verts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := verts[i], verts[j]
		if (vi.hr > p.hr) != (vj.hr > p.hr) &&
			p.temp < (vj.temp-vi.temp)*(p.hr-vi.hr)/(vj.hr-vi.hr)+vi.temp {
			inside = !inside
		}
	}
	return inside
}
