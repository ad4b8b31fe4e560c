package epwcharts

import "math"

// Sunpath computes sun positions for a site. The model is the standard
// NOAA-style approximation: Fourier series for declination and the equation
// of time, then hour angle geometry for altitude and azimuth.
type Sunpath struct {
	Location Location
}

// SunPosition is a sun position in horizon coordinates, in degrees. Azimuth
// is measured clockwise from north.
type SunPosition struct {
	Altitude float64
	Azimuth  float64
}

// Position returns the sun position at the given local standard time on the
// chart calendar. month and day are 1-based, hour is 0-23.
func (s *Sunpath) Position(month, day, hour, minute int) SunPosition {
	lat := radians(s.Location.Latitude)

	doy := dayOfYear(month, day)
	fractionalHour := float64(hour) + float64(minute)/60

	// Fractional year in radians.
	gamma := 2 * math.Pi / 365 * (float64(doy) + (fractionalHour-12)/24)

	// Equation of time in minutes.
	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))

	// Solar declination in radians.
	decl := 0.006918 -
		0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	// True solar time in minutes, correcting local standard time for the
	// site's offset from its time zone meridian.
	offset := eqTime + 4*s.Location.Longitude - 60*s.Location.TimeZone
	trueSolarTime := fractionalHour*60 + offset

	// Hour angle in radians: zero at solar noon, afternoon positive.
	ha := radians(trueSolarTime/4 - 180)

	cosZenith := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(ha)
	cosZenith = clamp(cosZenith, -1, 1)
	zenith := math.Acos(cosZenith)

	altitude := 90 - degrees(zenith)

	// Azimuth from north, clockwise. The atan2 form is measured from south
	// with west positive, so shift by 180.
	azimuth := degrees(math.Atan2(
		math.Sin(ha),
		math.Cos(ha)*math.Sin(lat)-math.Tan(decl)*math.Cos(lat),
	)) + 180

	if azimuth < 0 {
		azimuth += 360
	}
	if azimuth >= 360 {
		azimuth -= 360
	}

	return SunPosition{Altitude: altitude, Azimuth: azimuth}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
