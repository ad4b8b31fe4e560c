package epwcharts

import (
	"encoding/json"
	"math"
)

// The figure model is a Plotly-shaped JSON document: a list of traces plus a
// layout. The server never rasterizes anything; the browser frontend hands
// the serialized figure to its charting library, which is also how the
// original Ladybug charts work.

// Figure is a complete, serializable chart specification.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one series of a figure. Only the fields relevant to the trace's
// Type should be set; everything else stays omitted from the JSON.
type Trace struct {
	Type        string      `json:"type"`
	Name        string      `json:"name,omitempty"`
	Mode        string      `json:"mode,omitempty"`
	X           interface{} `json:"x,omitempty"` // []float64, []string or []interface{}
	Y           interface{} `json:"y,omitempty"`
	Z           interface{} `json:"z,omitempty"`
	R           []float64   `json:"r,omitempty"`     // polar traces
	Theta       []float64   `json:"theta,omitempty"` // polar traces
	Base        interface{} `json:"base,omitempty"`  // floating bars
	Text        interface{} `json:"text,omitempty"`
	TextPos     string      `json:"textposition,omitempty"`
	Opacity     float64     `json:"opacity,omitempty"`
	Fill        string      `json:"fill,omitempty"`
	FillColor   string      `json:"fillcolor,omitempty"`
	ShowLegend  *bool       `json:"showlegend,omitempty"`
	Hover       string      `json:"hovertemplate,omitempty"`
	CustomData  interface{} `json:"customdata,omitempty"`
	Marker      *Marker     `json:"marker,omitempty"`
	Line        *Line       `json:"line,omitempty"`
	ColorScale  []string    `json:"colorscale,omitempty"` // heatmap traces
	ZMin        *float64    `json:"zmin,omitempty"`
	ZMax        *float64    `json:"zmax,omitempty"`
	ColorBar    *ColorBar   `json:"colorbar,omitempty"`
	XAxisAnchor string      `json:"xaxis,omitempty"` // subplot ref, e.g. "x2"
	YAxisAnchor string      `json:"yaxis,omitempty"`
}

type Marker struct {
	Color      interface{} `json:"color,omitempty"` // hex string or []float64 for value coloring
	Size       interface{} `json:"size,omitempty"`  // float64 or []float64
	Opacity    float64     `json:"opacity,omitempty"`
	LineWidth  *float64    `json:"line_width,omitempty"`
	ColorScale []string    `json:"colorscale,omitempty"`
	ShowScale  bool        `json:"showscale,omitempty"`
	CMin       *float64    `json:"cmin,omitempty"`
	CMax       *float64    `json:"cmax,omitempty"`
	ColorBar   *ColorBar   `json:"colorbar,omitempty"`
}

type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width"`
}

type ColorBar struct {
	Title     string  `json:"title,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
}

type Layout struct {
	Template    string        `json:"template,omitempty"`
	Title       *Title        `json:"title,omitempty"`
	Margin      *Margin       `json:"margin,omitempty"`
	BarMode     string        `json:"barmode,omitempty"`
	BarGap      *float64      `json:"bargap,omitempty"`
	ShowLegend  *bool         `json:"showlegend,omitempty"`
	Legend      *Legend       `json:"legend,omitempty"`
	XAxis       *Axis         `json:"xaxis,omitempty"`
	YAxis       *Axis         `json:"yaxis,omitempty"`
	Polar       *Polar        `json:"polar,omitempty"`
	Grid        *Grid         `json:"grid,omitempty"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	DragMode    interface{}   `json:"dragmode,omitempty"` // string or false
	AutoSize    *bool         `json:"autosize,omitempty"`
	SubXAxes    map[string]*Axis `json:"-"`
	SubYAxes    map[string]*Axis `json:"-"`
}

type Title struct {
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	XAnchor string  `json:"xanchor,omitempty"`
	YAnchor string  `json:"yanchor,omitempty"`
}

type Margin struct {
	L float64 `json:"l"`
	R float64 `json:"r"`
	T float64 `json:"t"`
	B float64 `json:"b"`
}

type Legend struct {
	Orientation string   `json:"orientation,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	XAnchor     string   `json:"xanchor,omitempty"`
	YAnchor     string   `json:"yanchor,omitempty"`
}

type Axis struct {
	Title         string        `json:"title,omitempty"`
	Range         []float64     `json:"range,omitempty"`
	DTick         interface{}   `json:"dtick,omitempty"`
	TickFormat    string        `json:"tickformat,omitempty"`
	TickLabelMode string        `json:"ticklabelmode,omitempty"`
	TickVals      []interface{} `json:"tickvals,omitempty"`
	TickText      []string      `json:"ticktext,omitempty"`
	TickAngle     *float64      `json:"tickangle,omitempty"`
	NTicks        int           `json:"nticks,omitempty"`
	ShowLine      bool          `json:"showline,omitempty"`
	LineWidth     float64       `json:"linewidth,omitempty"`
	LineColor     string        `json:"linecolor,omitempty"`
	Mirror        bool          `json:"mirror,omitempty"`
	Visible       *bool         `json:"visible,omitempty"`
}

type Polar struct {
	RadialAxis  *PolarAxis `json:"radialaxis,omitempty"`
	AngularAxis *PolarAxis `json:"angularaxis,omitempty"`
}

type PolarAxis struct {
	TickFontSize float64  `json:"tickfont_size,omitempty"`
	Rotation     *float64 `json:"rotation,omitempty"`
	Direction    string   `json:"direction,omitempty"`
	Visible      *bool    `json:"visible,omitempty"`
}

// Grid places traces into a row/column subplot grid (used by the per-hour
// line chart's 12 month panels).
type Grid struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Pattern string `json:"pattern,omitempty"`
}

// Annotation is a text label pinned to a subplot, used for panel titles.
type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref,omitempty"`
	YRef      string  `json:"yref,omitempty"`
	ShowArrow bool    `json:"showarrow"`
}

// MarshalJSON flattens the subplot axes (xaxis2, yaxis5, ...) into the layout
// object next to the regular fields.
func (l Layout) MarshalJSON() ([]byte, error) {
	type layoutAlias Layout
	base, err := json.Marshal(layoutAlias(l))
	if err != nil {
		return nil, err
	}

	if len(l.SubXAxes) == 0 && len(l.SubYAxes) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}

	for _, axes := range []map[string]*Axis{l.SubXAxes, l.SubYAxes} {
		for key, axis := range axes {
			raw, err := json.Marshal(axis)
			if err != nil {
				return nil, err
			}
			merged[key] = raw
		}
	}

	return json.Marshal(merged)
}

const chartTemplate = "plotly_white"

var chartMargin = Margin{L: 20, R: 20, T: 33, B: 20}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(v float64) *float64 { return &v }

// nullable converts a value slice into pointers with NaN mapped to nil, which
// serializes as JSON null. encoding/json refuses to encode NaN, so every trace
// built from data that can have missing hours must go through this.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		value := v
		out[i] = &value
	}
	return out
}

// centeredTitle places the title at the top center of the figure, matching
// every chart's title placement.
func centeredTitle(text string) *Title {
	return &Title{Text: text, X: 0.5, Y: 1, XAnchor: "center", YAnchor: "top"}
}

// mirroredAxis returns an axis with the standard black, mirrored border.
func mirroredAxis() *Axis {
	return &Axis{ShowLine: true, LineWidth: 1, LineColor: "black", Mirror: true}
}

// dataRange computes the [min, max] axis range for a collection's values,
// rounded outward to multiples of 5. Callers may pin either bound.
func dataRange(min, max float64, minOverride, maxOverride *float64) []float64 {
	lo := floorTo5(min)
	hi := ceilTo5(max)

	if minOverride != nil {
		lo = *minOverride
	}
	if maxOverride != nil {
		hi = *maxOverride
	}

	return []float64{lo, hi}
}
