package epwcharts

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestMonthlyBarChart(t *testing.T) {
	temp := constantCollection(t, "Dry Bulb Temperature", 10).AverageMonthly()
	humidity := constantCollection(t, "Relative Humidity", 50).AverageMonthly()

	fig, err := MonthlyBarChart([]*MonthlyCollection{temp, humidity}, BarChartOptions{})
	if err != nil {
		t.Fatalf("MonthlyBarChart failed: %v", err)
	}

	if len(fig.Data) != 2 {
		t.Fatalf("trace count = %d, want 2", len(fig.Data))
	}
	for _, trace := range fig.Data {
		if trace.Type != "bar" {
			t.Fatalf("trace type = %q, want bar", trace.Type)
		}
		if len(trace.Y.([]*float64)) != 12 {
			t.Fatalf("monthly bar length = %d", len(trace.Y.([]*float64)))
		}
	}
	if fig.Data[0].Name != "Dry Bulb Temperature" {
		t.Errorf("trace name = %q", fig.Data[0].Name)
	}

	// Default title joins the series names; side-by-side bars by default.
	if fig.Layout.Title.Text != "Dry Bulb Temperature - Relative Humidity" {
		t.Errorf("title = %q", fig.Layout.Title.Text)
	}
	if fig.Layout.BarMode != "group" {
		t.Errorf("barmode = %q, want group", fig.Layout.BarMode)
	}
}

func TestMonthlyBarChartStacked(t *testing.T) {
	temp := constantCollection(t, "x", 1).AverageMonthly()

	fig, err := MonthlyBarChart([]*MonthlyCollection{temp}, BarChartOptions{
		Title:   "Custom",
		Stacked: true,
		Colors:  []Color{{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("MonthlyBarChart failed: %v", err)
	}

	if fig.Layout.BarMode != "relative" {
		t.Errorf("barmode = %q, want relative", fig.Layout.BarMode)
	}
	if fig.Layout.Title.Text != "Custom" {
		t.Errorf("title = %q", fig.Layout.Title.Text)
	}
	if fig.Data[0].Marker.Color != "#010203" {
		t.Errorf("bar color = %v", fig.Data[0].Marker.Color)
	}

	// A single series puts its unit on the y axis.
	if fig.Layout.YAxis.Title != "(C)" {
		t.Errorf("y axis title = %q", fig.Layout.YAxis.Title)
	}
}

func TestMonthlyBarChartErrors(t *testing.T) {
	if _, err := MonthlyBarChart(nil, BarChartOptions{}); err == nil {
		t.Fatal("expected error for no collections, got nil")
	}

	temp := constantCollection(t, "x", 1).AverageMonthly()
	_, err := MonthlyBarChart([]*MonthlyCollection{temp}, BarChartOptions{
		Colors: []Color{{0, 0, 0}, {1, 1, 1}},
	})
	if err == nil {
		t.Fatal("expected error for color count mismatch, got nil")
	}
}

func TestDailyBarChart(t *testing.T) {
	temp := constantCollection(t, "Dry Bulb Temperature", 10).AverageDaily()

	fig, err := DailyBarChart([]*DailyCollection{temp}, BarChartOptions{})
	if err != nil {
		t.Fatalf("DailyBarChart failed: %v", err)
	}

	if len(fig.Data) != 1 {
		t.Fatalf("trace count = %d, want 1", len(fig.Data))
	}
	if got := len(fig.Data[0].Y.([]*float64)); got != DaysPerYear {
		t.Fatalf("daily bar length = %d, want %d", got, DaysPerYear)
	}

	dates := fig.Data[0].X.([]string)
	if dates[0] != "2019-01-01" || dates[DaysPerYear-1] != "2019-12-31" {
		t.Errorf("date range = %q .. %q", dates[0], dates[DaysPerYear-1])
	}
}

func TestDailyBarChartErrors(t *testing.T) {
	if _, err := DailyBarChart(nil, BarChartOptions{}); err == nil {
		t.Fatal("expected error for no collections, got nil")
	}
}

func TestBarChartsWithMissingMonths(t *testing.T) {
	// Blank out all of January so its aggregate is NaN.
	collection := constantCollection(t, "Dry Bulb Temperature", 10)
	for hoy := 0; hoy < 31*24; hoy++ {
		collection.Values[hoy] = math.NaN()
	}

	t.Run("monthly", func(t *testing.T) {
		fig, err := MonthlyBarChart([]*MonthlyCollection{collection.AverageMonthly()}, BarChartOptions{})
		if err != nil {
			t.Fatalf("MonthlyBarChart failed: %v", err)
		}

		values := fig.Data[0].Y.([]*float64)
		if values[0] != nil {
			t.Errorf("january bar = %v, want nil", *values[0])
		}
		if values[1] == nil || *values[1] != 10 {
			t.Errorf("february bar = %v, want 10", values[1])
		}

		buf, err := json.Marshal(fig)
		if err != nil {
			t.Fatalf("figure with missing months did not serialize: %v", err)
		}
		if !strings.Contains(string(buf), "null") {
			t.Error("expected null for the missing month in the JSON")
		}
	})

	t.Run("daily", func(t *testing.T) {
		fig, err := DailyBarChart([]*DailyCollection{collection.AverageDaily()}, BarChartOptions{})
		if err != nil {
			t.Fatalf("DailyBarChart failed: %v", err)
		}

		values := fig.Data[0].Y.([]*float64)
		if values[0] != nil {
			t.Errorf("january 1 bar = %v, want nil", *values[0])
		}
		if values[31] == nil || *values[31] != 10 {
			t.Errorf("february 1 bar = %v, want 10", values[31])
		}

		if _, err := json.Marshal(fig); err != nil {
			t.Fatalf("figure with missing days did not serialize: %v", err)
		}
	})
}
