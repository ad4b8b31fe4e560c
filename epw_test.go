package epwcharts

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// testEPWOptions overrides parts of the synthetic EPW built by buildTestEPW.
type testEPWOptions struct {
	locationLine string
	year         func(hoy int) int
	dryBulb      func(hoy int) float64
	windSpeed    func(hoy int) float64
	windDir      func(hoy int) float64
	shortRows    bool // emit rows truncated after wind speed
}

const testLocationLine = "LOCATION,Boston Logan IntL Arpt,MA,USA,TMY3,725090,42.37,-71.02,-5.0,6.0"

// buildTestEPW renders a complete synthetic EPW file: 8 header lines and 8760
// hourly rows with deterministic values.
func buildTestEPW(opts testEPWOptions) string {
	if opts.locationLine == "" {
		opts.locationLine = testLocationLine
	}
	if opts.year == nil {
		opts.year = func(int) int { return 2017 }
	}
	if opts.dryBulb == nil {
		opts.dryBulb = func(hoy int) float64 {
			return 10 + 10*math.Sin(2*math.Pi*float64(hoy)/float64(HoursPerYear))
		}
	}
	if opts.windSpeed == nil {
		opts.windSpeed = func(hoy int) float64 { return float64(hoy % 10) }
	}
	if opts.windDir == nil {
		opts.windDir = func(hoy int) float64 { return float64((hoy * 10) % 360) }
	}

	var b strings.Builder
	b.WriteString(opts.locationLine + "\n")
	b.WriteString("DESIGN CONDITIONS,0\n")
	b.WriteString("TYPICAL/EXTREME PERIODS,0\n")
	b.WriteString("GROUND TEMPERATURES,0\n")
	b.WriteString("HOLIDAYS/DAYLIGHT SAVINGS,No,0,0,0\n")
	b.WriteString("COMMENTS 1,synthetic data\n")
	b.WriteString("COMMENTS 2,\n")
	b.WriteString("DATA PERIODS,1,1,Data,Sunday, 1/ 1,12/31\n")

	for hoy := 0; hoy < HoursPerYear; hoy++ {
		month, day, hour := calendarOfHour(hoy)

		cols := []string{
			fmt.Sprintf("%d", opts.year(hoy)),
			fmt.Sprintf("%d", month),
			fmt.Sprintf("%d", day),
			fmt.Sprintf("%d", hour+1),
			"0",
			"?9?9?9?9E0?9?9?9?9?9?9?9?9?9?9?9?9?9?9?9*9*9?9?9?9",
			fmt.Sprintf("%.1f", opts.dryBulb(hoy)), // 6: dry bulb
			"5.0",    // 7: dew point
			"50",     // 8: relative humidity
			"101325", // 9: pressure
			"0",      // 10: extraterrestrial horizontal
			"0",      // 11: extraterrestrial direct normal
			"300",    // 12: horizontal infrared
			fmt.Sprintf("%d", hoy%100), // 13: global horizontal radiation
			"100",  // 14: direct normal radiation
			"50",   // 15: diffuse horizontal radiation
			"999999", // 16: global horizontal illuminance
			"999999", // 17: direct normal illuminance
			"999999", // 18: diffuse horizontal illuminance
			"9999",   // 19: zenith luminance
			fmt.Sprintf("%.0f", opts.windDir(hoy)),   // 20: wind direction
			fmt.Sprintf("%.1f", opts.windSpeed(hoy)), // 21: wind speed
		}

		if !opts.shortRows {
			cols = append(cols,
				"5",     // 22: total sky cover
				"3",     // 23: opaque sky cover
				"20",    // 24: visibility
				"77777", // 25: ceiling height
				"9",     // 26: present weather observation
				"999999999", // 27: present weather codes
				"15",        // 28: precipitable water
				"0.1",       // 29: aerosol optical depth
				"0",         // 30: snow depth
			)
		}

		b.WriteString(strings.Join(cols, ",") + "\n")
	}

	return b.String()
}

func parseTestEPW(t *testing.T, opts testEPWOptions) *WeatherData {
	t.Helper()

	weather, err := ParseEPW(strings.NewReader(buildTestEPW(opts)))
	if err != nil {
		t.Fatalf("ParseEPW failed: %v", err)
	}
	return weather
}

func TestParseEPWLocation(t *testing.T) {
	weather := parseTestEPW(t, testEPWOptions{})

	want := Location{
		City:      "Boston Logan IntL Arpt",
		State:     "MA",
		Country:   "USA",
		Latitude:  42.37,
		Longitude: -71.02,
		TimeZone:  -5,
		Elevation: 6,
	}
	if weather.Location != want {
		t.Fatalf("location mismatch:\nwant %+v\ngot  %+v", want, weather.Location)
	}
}

func TestParseEPWLocationWithoutSourceFields(t *testing.T) {
	// Older files omit the data source and WMO fields; the numeric fields are
	// found from the end of the line.
	weather := parseTestEPW(t, testEPWOptions{
		locationLine: "LOCATION,Sydney,NSW,AUS,-33.95,151.18,10.0,3.0",
	})

	if weather.Location.City != "Sydney" {
		t.Errorf("city = %q, want Sydney", weather.Location.City)
	}
	if weather.Location.Latitude != -33.95 || weather.Location.Longitude != 151.18 {
		t.Errorf("coordinates = %v, %v", weather.Location.Latitude, weather.Location.Longitude)
	}
	if weather.Location.TimeZone != 10 || weather.Location.Elevation != 3 {
		t.Errorf("timezone/elevation = %v, %v", weather.Location.TimeZone, weather.Location.Elevation)
	}
}

func TestParseEPWSeries(t *testing.T) {
	weather := parseTestEPW(t, testEPWOptions{})

	dbt := weather.DryBulbTemperature()
	if dbt == nil {
		t.Fatal("no dry bulb temperature series")
	}
	if dbt.Name != "Dry Bulb Temperature" || dbt.Unit != "C" {
		t.Fatalf("series labels = %q %q", dbt.Name, dbt.Unit)
	}
	if len(dbt.Values) != HoursPerYear {
		t.Fatalf("series length = %d, want %d", len(dbt.Values), HoursPerYear)
	}

	// Values are rendered with one decimal, so compare against the rounded
	// generator output.
	wantFirst := 10.0
	if dbt.Values[0] != wantFirst {
		t.Errorf("first dry bulb value = %v, want %v", dbt.Values[0], wantFirst)
	}

	rh := weather.RelativeHumidity()
	if rh.Values[100] != 50 {
		t.Errorf("relative humidity = %v, want 50", rh.Values[100])
	}

	if got := len(weather.SeriesKeys()); got != len(epwFields) {
		t.Errorf("series count = %d, want %d", got, len(epwFields))
	}
}

func TestParseEPWMissingValues(t *testing.T) {
	// 99.9 is the dry bulb missing marker and must come through as NaN.
	weather := parseTestEPW(t, testEPWOptions{
		dryBulb: func(hoy int) float64 {
			if hoy == 0 {
				return 99.9
			}
			return 20
		},
	})

	dbt := weather.DryBulbTemperature()
	if !math.IsNaN(dbt.Values[0]) {
		t.Errorf("missing dry bulb = %v, want NaN", dbt.Values[0])
	}
	if dbt.Values[1] != 20 {
		t.Errorf("dry bulb = %v, want 20", dbt.Values[1])
	}

	// The zenith luminance column in the fixture holds its missing marker.
	zenith, _ := weather.Series("zenith_luminance")
	if !math.IsNaN(zenith.Values[0]) {
		t.Errorf("zenith luminance = %v, want NaN", zenith.Values[0])
	}
}

func TestParseEPWShortRows(t *testing.T) {
	weather := parseTestEPW(t, testEPWOptions{shortRows: true})

	// Fields past the truncation point become NaN.
	snow, _ := weather.Series("snow_depth")
	if !math.IsNaN(snow.Values[0]) {
		t.Errorf("snow depth = %v, want NaN for short row", snow.Values[0])
	}

	// Fields before it parse normally.
	wind := weather.WindSpeed()
	if wind.Values[3] != 3 {
		t.Errorf("wind speed = %v, want 3", wind.Values[3])
	}
}

func TestParseEPWPeriod(t *testing.T) {
	t.Run("single year rounds up to its decade", func(t *testing.T) {
		weather := parseTestEPW(t, testEPWOptions{})
		if weather.Period != "2010-2020" {
			t.Fatalf("period = %q, want 2010-2020", weather.Period)
		}
	})

	t.Run("multiple years round outward", func(t *testing.T) {
		weather := parseTestEPW(t, testEPWOptions{
			year: func(hoy int) int {
				if hoy < 4000 {
					return 2007
				}
				return 2018
			},
		})
		if weather.Period != "2000-2020" {
			t.Fatalf("period = %q, want 2000-2020", weather.Period)
		}
	})
}

func TestParseEPWErrors(t *testing.T) {
	t.Run("truncated data", func(t *testing.T) {
		full := buildTestEPW(testEPWOptions{})
		lines := strings.Split(strings.TrimSpace(full), "\n")
		truncated := strings.Join(lines[:epwHeaderLines+100], "\n")

		_, err := ParseEPW(strings.NewReader(truncated))
		if err == nil {
			t.Fatal("expected error for truncated EPW, got nil")
		}
		if !strings.Contains(err.Error(), "ended early") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("malformed location header", func(t *testing.T) {
		_, err := ParseEPW(strings.NewReader("NOT A LOCATION LINE\n"))
		if err == nil {
			t.Fatal("expected error for bad header, got nil")
		}
	})

	t.Run("non-numeric data value", func(t *testing.T) {
		full := buildTestEPW(testEPWOptions{})
		lines := strings.Split(full, "\n")
		cols := strings.Split(lines[epwHeaderLines], ",")
		cols[6] = "not-a-number"
		lines[epwHeaderLines] = strings.Join(cols, ",")

		_, err := ParseEPW(strings.NewReader(strings.Join(lines, "\n")))
		if err == nil {
			t.Fatal("expected error for bad value, got nil")
		}
	})
}
