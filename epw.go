package epwcharts

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// The number of header lines before the hourly data block in an EPW file.
const epwHeaderLines = 8

// Location is the site described by the LOCATION header of an EPW file.
type Location struct {
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  float64 `json:"timeZone"` // UTC offset in hours
	Elevation float64 `json:"elevation"`
}

// epwField describes one hourly column of the EPW data block that we turn
// into a collection. Index is the raw column index within a data row;
// missing is the field's missing-value marker, which becomes NaN.
type epwField struct {
	key     string
	name    string
	unit    string
	index   int
	missing float64
}

var epwFields = []epwField{
	{"dry_bulb_temperature", "Dry Bulb Temperature", "C", 6, 99.9},
	{"dew_point_temperature", "Dew Point Temperature", "C", 7, 99.9},
	{"relative_humidity", "Relative Humidity", "%", 8, 999},
	{"atmospheric_station_pressure", "Atmospheric Station Pressure", "Pa", 9, 999999},
	{"extraterrestrial_horizontal_radiation", "Extraterrestrial Horizontal Radiation", "Wh/m2", 10, 9999},
	{"horizontal_infrared_radiation", "Horizontal Infrared Radiation Intensity", "W/m2", 12, 9999},
	{"global_horizontal_radiation", "Global Horizontal Radiation", "Wh/m2", 13, 9999},
	{"direct_normal_radiation", "Direct Normal Radiation", "Wh/m2", 14, 9999},
	{"diffuse_horizontal_radiation", "Diffuse Horizontal Radiation", "Wh/m2", 15, 9999},
	{"global_horizontal_illuminance", "Global Horizontal Illuminance", "lux", 16, 999999},
	{"direct_normal_illuminance", "Direct Normal Illuminance", "lux", 17, 999999},
	{"diffuse_horizontal_illuminance", "Diffuse Horizontal Illuminance", "lux", 18, 999999},
	{"zenith_luminance", "Zenith Luminance", "cd/m2", 19, 9999},
	{"wind_direction", "Wind Direction", "degrees", 20, 999},
	{"wind_speed", "Wind Speed", "m/s", 21, 999},
	{"total_sky_cover", "Total Sky Cover", "tenths", 22, 99},
	{"opaque_sky_cover", "Opaque Sky Cover", "tenths", 23, 99},
	{"visibility", "Visibility", "km", 24, 9999},
	{"ceiling_height", "Ceiling Height", "m", 25, 99999},
	{"precipitable_water", "Precipitable Water", "mm", 28, 999},
	{"snow_depth", "Snow Depth", "cm", 30, 999},
}

// WeatherData is a parsed EPW file: the site location, the inferred reference
// period and one hourly collection per weather variable.
type WeatherData struct {
	Location Location
	Period   string // reference years, e.g. "2000-2010"
	Name     string // file stem, if loaded from disk

	series map[string]*HourlyCollection
	keys   []string // series keys in EPW column order
}

// Series returns the hourly collection for a series key such as
// "dry_bulb_temperature".
func (w *WeatherData) Series(key string) (*HourlyCollection, bool) {
	c, ok := w.series[key]
	return c, ok
}

// SeriesKeys returns all series keys in EPW column order.
func (w *WeatherData) SeriesKeys() []string {
	return w.keys
}

// DryBulbTemperature is the most commonly charted series, so it gets a named
// accessor.
func (w *WeatherData) DryBulbTemperature() *HourlyCollection {
	return w.series["dry_bulb_temperature"]
}

func (w *WeatherData) RelativeHumidity() *HourlyCollection {
	return w.series["relative_humidity"]
}

func (w *WeatherData) WindSpeed() *HourlyCollection {
	return w.series["wind_speed"]
}

func (w *WeatherData) WindDirection() *HourlyCollection {
	return w.series["wind_direction"]
}

// Sunpath returns a sun position model for the site.
func (w *WeatherData) Sunpath() *Sunpath {
	return &Sunpath{Location: w.Location}
}

// LoadEPW parses the EPW file at the given path.
func LoadEPW(path string) (*WeatherData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open EPW file")
	}
	defer f.Close()

	weather, err := ParseEPW(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	weather.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return weather, nil
}

// ParseEPW parses EPW data from a reader. The input must contain the 8 header
// lines followed by 8760 hourly data rows. An EPW is a fixed-shape archive,
// so unlike a live stream, a malformed data row is an error rather than a row
// to skip.
func ParseEPW(input io.Reader) (*WeatherData, error) {
	logger := logrus.WithField("tag", "ParseEPW")

	csvReader := csv.NewReader(input)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	locationLine, err := csvReader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read LOCATION header")
	}

	location, err := parseLocation(locationLine)
	if err != nil {
		return nil, err
	}

	for i := 1; i < epwHeaderLines; i++ {
		if _, err := csvReader.Read(); err != nil {
			return nil, errors.Wrapf(err, "read header line %d", i+1)
		}
	}

	values := make(map[string][]float64, len(epwFields))
	for _, field := range epwFields {
		values[field.key] = make([]float64, 0, HoursPerYear)
	}

	yearsSeen := map[int]bool{}

	for row := 0; row < HoursPerYear; row++ {
		line, err := csvReader.Read()
		if err == io.EOF {
			return nil, errors.Errorf("EPW data ended early: expected %d rows, got %d", HoursPerYear, row)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read data row %d", row+1)
		}

		year, err := strconv.Atoi(strings.TrimSpace(line[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "data row %d: bad year %q", row+1, line[0])
		}
		yearsSeen[year] = true

		for _, field := range epwFields {
			if field.index >= len(line) {
				// Short row: older files omit trailing fields.
				values[field.key] = append(values[field.key], math.NaN())
				continue
			}

			v, err := strconv.ParseFloat(strings.TrimSpace(line[field.index]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "data row %d: bad %s %q", row+1, field.key, line[field.index])
			}
			if v == field.missing {
				v = math.NaN()
			}
			values[field.key] = append(values[field.key], v)
		}
	}

	weather := &WeatherData{
		Location: location,
		Period:   inferPeriod(yearsSeen),
		series:   make(map[string]*HourlyCollection, len(epwFields)),
		keys:     make([]string, 0, len(epwFields)),
	}

	for _, field := range epwFields {
		collection, err := NewHourlyCollection(field.name, field.unit, values[field.key])
		if err != nil {
			return nil, err
		}
		weather.series[field.key] = collection
		weather.keys = append(weather.keys, field.key)
	}

	logger.WithFields(logrus.Fields{
		"city":   location.City,
		"period": weather.Period,
	}).Debug("parsed EPW")

	return weather, nil
}

func parseLocation(line []string) (Location, error) {
	// LOCATION,City,State,Country,Source,WMO,lat,lon,tz,elevation. The source
	// and WMO fields are not always present, so the numeric fields are indexed
	// from the end.
	if len(line) < 8 || !strings.EqualFold(line[0], "LOCATION") {
		return Location{}, errors.Errorf("malformed LOCATION header: %v", line)
	}

	n := len(line)
	numbers := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(line[n-4+i]), 64)
		if err != nil {
			return Location{}, errors.Wrapf(err, "LOCATION header: bad numeric field %q", line[n-4+i])
		}
		numbers[i] = v
	}

	return Location{
		City:      strings.TrimSpace(line[1]),
		State:     strings.TrimSpace(line[2]),
		Country:   strings.TrimSpace(line[3]),
		Latitude:  numbers[0],
		Longitude: numbers[1],
		TimeZone:  numbers[2],
		Elevation: numbers[3],
	}, nil
}

// inferPeriod derives the reference period from the data years: a single year
// rounds up to its decade, multiple years round outward to decades.
func inferPeriod(years map[int]bool) string {
	if len(years) == 0 {
		return ""
	}

	minYear := math.MaxInt32
	maxYear := math.MinInt32
	for y := range years {
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}

	if len(years) == 1 {
		upper := int(math.Ceil(float64(minYear)/10)) * 10
		return fmt.Sprintf("%d-%d", upper-10, upper)
	}

	lower := int(math.Floor(float64(minYear)/10)) * 10
	upper := int(math.Ceil(float64(maxYear)/10)) * 10
	return fmt.Sprintf("%d-%d", lower, upper)
}
