package epwcharts

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// All charts are laid out on a fixed non-leap calendar (2019), regardless of
// the years recorded in the EPW file. This mirrors the hourly index the
// original Ladybug charts are built on.
const (
	CalendarYear = 2019
	HoursPerYear = 8760
	DaysPerYear  = 365
)

var monthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var daysInMonth = []int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// MonthName returns the abbreviated name for a 1-based month.
func MonthName(month int) string {
	return monthNames[month-1]
}

// dayOfYear converts a 1-based month and day into a 0-based day of year.
func dayOfYear(month, day int) int {
	doy := 0
	for m := 1; m < month; m++ {
		doy += daysInMonth[m-1]
	}
	return doy + day - 1
}

// calendarOfHour converts a 0-based hour of year into its 1-based month,
// 1-based day of month and 0-based hour of day.
func calendarOfHour(hoy int) (month, day, hour int) {
	doy := hoy / 24
	hour = hoy % 24

	month = 1
	for doy >= daysInMonth[month-1] {
		doy -= daysInMonth[month-1]
		month++
	}

	return month, doy + 1, hour
}

// timestampOfHour returns the UTC unix timestamp (seconds) of a 0-based hour
// of year on the chart calendar.
func timestampOfHour(hoy int) float64 {
	month, day, hour := calendarOfHour(hoy)
	t := time.Date(CalendarYear, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	return float64(t.Unix())
}

// dateOfDay returns the ISO date string of a 0-based day of year on the chart
// calendar. Used for chart x axes.
func dateOfDay(doy int) string {
	t := time.Date(CalendarYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	return t.AddDate(0, 0, doy).Format("2006-01-02")
}

// HourlyCollection is one year of hourly values for a single weather variable.
type HourlyCollection struct {
	Name   string
	Unit   string
	Values []float64
}

func NewHourlyCollection(name, unit string, values []float64) (*HourlyCollection, error) {
	if len(values) != HoursPerYear {
		return nil, errors.Errorf("hourly collection %q needs %d values, got %d", name, HoursPerYear, len(values))
	}

	return &HourlyCollection{Name: name, Unit: unit, Values: values}, nil
}

// FillGaps builds a continuous hourly collection from values keyed by hour of
// year. Hours without a value become NaN, so discontinuous data (for example a
// conditionally filtered collection) can still be drawn on a full-year chart.
func FillGaps(name, unit string, valuesByHour map[int]float64) *HourlyCollection {
	values := make([]float64, HoursPerYear)
	for hoy := range values {
		if v, ok := valuesByHour[hoy]; ok {
			values[hoy] = v
		} else {
			values[hoy] = math.NaN()
		}
	}

	return &HourlyCollection{Name: name, Unit: unit, Values: values}
}

// Min returns the smallest non-NaN value.
func (c *HourlyCollection) Min() float64 {
	min := math.Inf(1)
	for _, v := range c.Values {
		if !math.IsNaN(v) && v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest non-NaN value.
func (c *HourlyCollection) Max() float64 {
	max := math.Inf(-1)
	for _, v := range c.Values {
		if !math.IsNaN(v) && v > max {
			max = v
		}
	}
	return max
}

// DayStat summarizes one day of hourly values.
type DayStat struct {
	Min  float64
	Max  float64
	Mean float64
}

// DailyStats returns the min, max and mean of each day of the year. NaN hours
// are excluded; a day with no valid hours yields NaN stats.
func (c *HourlyCollection) DailyStats() []DayStat {
	stats := make([]DayStat, DaysPerYear)

	for day := 0; day < DaysPerYear; day++ {
		min := math.Inf(1)
		max := math.Inf(-1)
		sum := 0.0
		n := 0

		for hour := 0; hour < 24; hour++ {
			v := c.Values[day*24+hour]
			if math.IsNaN(v) {
				continue
			}

			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
			n++
		}

		if n == 0 {
			stats[day] = DayStat{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
			continue
		}

		stats[day] = DayStat{Min: min, Max: max, Mean: sum / float64(n)}
	}

	return stats
}

// DailyCollection is one year of daily values.
type DailyCollection struct {
	Name   string
	Unit   string
	Values []float64 // length 365
}

// MonthlyCollection is one year of monthly values.
type MonthlyCollection struct {
	Name   string
	Unit   string
	Values []float64 // length 12
}

func (c *HourlyCollection) AverageDaily() *DailyCollection {
	return &DailyCollection{Name: c.Name, Unit: c.Unit, Values: c.aggregateDaily(false)}
}

func (c *HourlyCollection) TotalDaily() *DailyCollection {
	return &DailyCollection{Name: c.Name, Unit: c.Unit, Values: c.aggregateDaily(true)}
}

func (c *HourlyCollection) AverageMonthly() *MonthlyCollection {
	return &MonthlyCollection{Name: c.Name, Unit: c.Unit, Values: c.aggregateMonthly(false)}
}

func (c *HourlyCollection) TotalMonthly() *MonthlyCollection {
	return &MonthlyCollection{Name: c.Name, Unit: c.Unit, Values: c.aggregateMonthly(true)}
}

func (c *HourlyCollection) aggregateDaily(total bool) []float64 {
	out := make([]float64, DaysPerYear)

	for day := 0; day < DaysPerYear; day++ {
		sum := 0.0
		n := 0
		for hour := 0; hour < 24; hour++ {
			v := c.Values[day*24+hour]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}

		switch {
		case n == 0:
			out[day] = math.NaN()
		case total:
			out[day] = sum
		default:
			out[day] = sum / float64(n)
		}
	}

	return out
}

func (c *HourlyCollection) aggregateMonthly(total bool) []float64 {
	sums := make([]float64, 12)
	counts := make([]int, 12)

	for hoy, v := range c.Values {
		if math.IsNaN(v) {
			continue
		}
		month, _, _ := calendarOfHour(hoy)
		sums[month-1] += v
		counts[month-1]++
	}

	out := make([]float64, 12)
	for i := range out {
		switch {
		case counts[i] == 0:
			out[i] = math.NaN()
		case total:
			out[i] = sums[i]
		default:
			out[i] = sums[i] / float64(counts[i])
		}
	}

	return out
}

// MonthlyHourMedians returns, for each month and hour of the day, the median
// value across the month. Used for the per-hour line chart.
func (c *HourlyCollection) MonthlyHourMedians() [12][24]float64 {
	var buckets [12][24][]float64

	for hoy, v := range c.Values {
		if math.IsNaN(v) {
			continue
		}
		month, _, hour := calendarOfHour(hoy)
		buckets[month-1][hour] = append(buckets[month-1][hour], v)
	}

	var out [12][24]float64
	for m := 0; m < 12; m++ {
		for h := 0; h < 24; h++ {
			out[m][h] = median(buckets[m][h])
		}
	}

	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// AnalysisPeriod selects a slice of the year by month and hour of day. Both
// ranges are inclusive and may wrap: {StartMonth: 11, EndMonth: 2} selects
// November through February, {StartHour: 22, EndHour: 4} the night hours.
type AnalysisPeriod struct {
	StartMonth int // 1-12
	EndMonth   int // 1-12
	StartHour  int // 0-23
	EndHour    int // 0-23
}

// FullYear covers every hour of the year.
func FullYear() AnalysisPeriod {
	return AnalysisPeriod{StartMonth: 1, EndMonth: 12, StartHour: 0, EndHour: 23}
}

// Contains reports whether the given 1-based month and 0-based hour of day
// fall within the period.
func (p AnalysisPeriod) Contains(month, hour int) bool {
	var monthOK, hourOK bool

	if p.StartMonth <= p.EndMonth {
		monthOK = month >= p.StartMonth && month <= p.EndMonth
	} else {
		monthOK = month >= p.StartMonth || month <= p.EndMonth
	}

	if p.StartHour <= p.EndHour {
		hourOK = hour >= p.StartHour && hour <= p.EndHour
	} else {
		hourOK = hour >= p.StartHour || hour <= p.EndHour
	}

	return monthOK && hourOK
}
