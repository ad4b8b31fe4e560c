package epwcharts

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSunpathChart(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	fig, err := SunpathChart(sp, SunpathOptions{})
	if err != nil {
		t.Fatalf("SunpathChart failed: %v", err)
	}

	// 10 altitude circles, the hourly analemma cloud and 7 key day paths.
	if len(fig.Data) != 18 {
		t.Fatalf("trace count = %d, want 18", len(fig.Data))
	}
	for _, trace := range fig.Data {
		if trace.Type != "scatterpolar" {
			t.Fatalf("trace type = %q", trace.Type)
		}
	}

	// The outermost circle is the horizon at r=90, the innermost close to the
	// zenith.
	if r := fig.Data[0].R[0]; r != 90 {
		t.Errorf("horizon circle r = %v, want 90", r)
	}
	if r := fig.Data[9].R[0]; r > 20 {
		t.Errorf("innermost circle r = %v, want near center", r)
	}

	// All analemma points sit above the horizon, inside the chart.
	cloud := fig.Data[10]
	if cloud.Mode != "markers" {
		t.Fatalf("analemma mode = %q", cloud.Mode)
	}
	if len(cloud.R) == 0 {
		t.Fatal("no sun positions above the horizon")
	}
	for _, r := range cloud.R {
		if r < 0 || r >= 90 {
			t.Fatalf("analemma r = %v, want within (0, 90)", r)
		}
	}

	if fig.Layout.Title.Text != "Sunpath" {
		t.Errorf("title = %q", fig.Layout.Title.Text)
	}
}

func TestSunpathChartWithData(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}
	data := constantCollection(t, "Global Horizontal Radiation", 100)

	fig, err := SunpathChart(sp, SunpathOptions{Data: data})
	if err != nil {
		t.Fatalf("SunpathChart failed: %v", err)
	}

	if fig.Layout.Title.Text != "Sunpath - Global Horizontal Radiation" {
		t.Errorf("title = %q", fig.Layout.Title.Text)
	}

	// The analemma cloud is value-colored and carries the colorbar.
	cloud := fig.Data[10]
	if cloud.Marker == nil || !cloud.Marker.ShowScale {
		t.Fatalf("overlay marker = %+v, want colorbar", cloud.Marker)
	}
	values := cloud.Marker.Color.([]*float64)
	if len(values) != len(cloud.R) {
		t.Fatalf("value count = %d, point count = %d", len(values), len(cloud.R))
	}
	for _, v := range values {
		if v == nil || *v != 100 {
			t.Fatalf("overlay value = %v, want 100", v)
		}
	}
}

func TestSunpathChartWithSparseData(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	// Only June has observations, the rest of the year is missing.
	data := constantCollection(t, "Global Horizontal Radiation", 100)
	for hoy := range data.Values {
		if month, _, _ := calendarOfHour(hoy); month != 6 {
			data.Values[hoy] = math.NaN()
		}
	}

	fig, err := SunpathChart(sp, SunpathOptions{Data: data})
	if err != nil {
		t.Fatalf("SunpathChart failed: %v", err)
	}

	cloud := fig.Data[10]
	values := cloud.Marker.Color.([]*float64)
	sizes := cloud.Marker.Size.([]float64)

	withValue := 0
	for i, v := range values {
		if v == nil {
			continue
		}
		withValue++
		if *v != 100 {
			t.Fatalf("overlay value = %v, want 100", *v)
		}
		if sizes[i] <= 0 {
			t.Fatalf("marker size = %v at point %d", sizes[i], i)
		}
	}
	if withValue == 0 || withValue == len(values) {
		t.Fatalf("got %d valued points out of %d, want a partial overlay", withValue, len(values))
	}

	if _, err := json.Marshal(fig); err != nil {
		t.Fatalf("figure with missing overlay hours did not serialize: %v", err)
	}
}

func TestSunpathChartDayPaths(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	fig, err := SunpathChart(sp, SunpathOptions{})
	if err != nil {
		t.Fatalf("SunpathChart failed: %v", err)
	}

	// Day paths follow the analemma cloud; each is sorted by azimuth so it
	// renders as one stroke.
	for _, trace := range fig.Data[11:] {
		if trace.Mode != "lines" {
			t.Fatalf("day path mode = %q", trace.Mode)
		}
		if len(trace.Theta) == 0 {
			t.Fatal("empty day path")
		}
		for i := 1; i < len(trace.Theta); i++ {
			if trace.Theta[i] < trace.Theta[i-1] {
				t.Fatal("day path not sorted by azimuth")
			}
		}
	}

	// The June solstice path reaches higher (smaller r) than the December one.
	juneMin, decemberMin := math.Inf(1), math.Inf(1)
	for _, r := range fig.Data[12].R { // key day {6, 21}
		juneMin = math.Min(juneMin, r)
	}
	for _, r := range fig.Data[13].R { // key day {12, 21}
		decemberMin = math.Min(decemberMin, r)
	}
	if juneMin >= decemberMin {
		t.Errorf("june min r = %v, december min r = %v; june should be closer to the zenith", juneMin, decemberMin)
	}
}

func TestSunpathChartUnknownColorSet(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	if _, err := SunpathChart(sp, SunpathOptions{ColorSet: "bogus"}); err == nil {
		t.Fatal("expected error for unknown color set, got nil")
	}
}
