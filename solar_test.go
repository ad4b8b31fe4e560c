package epwcharts

import (
	"math"
	"testing"
)

var bostonSite = Location{
	City:      "Boston",
	Latitude:  42.37,
	Longitude: -71.02,
	TimeZone:  -5,
}

var sydneySite = Location{
	City:      "Sydney",
	Latitude:  -33.95,
	Longitude: 151.18,
	TimeZone:  10,
}

func TestSunPositionDayAndNight(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	noon := sp.Position(6, 21, 12, 0)
	if noon.Altitude < 60 || noon.Altitude > 75 {
		t.Errorf("june solstice noon altitude = %v, want around 71", noon.Altitude)
	}

	midnight := sp.Position(6, 21, 0, 0)
	if midnight.Altitude >= 0 {
		t.Errorf("midnight altitude = %v, want below horizon", midnight.Altitude)
	}
}

func TestSunPositionSeasons(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	summer := sp.Position(6, 21, 12, 0)
	winter := sp.Position(12, 21, 12, 0)

	if summer.Altitude <= winter.Altitude {
		t.Fatalf("summer noon (%v) must be higher than winter noon (%v)", summer.Altitude, winter.Altitude)
	}

	// The noon altitude difference between the solstices is twice the
	// obliquity, about 47 degrees.
	diff := summer.Altitude - winter.Altitude
	if diff < 44 || diff > 50 {
		t.Fatalf("solstice altitude difference = %v, want around 47", diff)
	}
}

func TestSunPositionAzimuthDirection(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	// Northern hemisphere: sun in the east in the morning, south around noon,
	// west in the evening.
	morning := sp.Position(3, 21, 8, 0)
	if morning.Azimuth < 70 || morning.Azimuth > 140 {
		t.Errorf("morning azimuth = %v, want easterly", morning.Azimuth)
	}

	noon := sp.Position(3, 21, 12, 0)
	if noon.Azimuth < 150 || noon.Azimuth > 210 {
		t.Errorf("noon azimuth = %v, want southerly", noon.Azimuth)
	}

	evening := sp.Position(3, 21, 17, 0)
	if evening.Azimuth < 230 || evening.Azimuth > 290 {
		t.Errorf("evening azimuth = %v, want westerly", evening.Azimuth)
	}
}

func TestSunPositionSouthernHemisphere(t *testing.T) {
	sp := &Sunpath{Location: sydneySite}

	// December is summer in Sydney; the noon sun stands high and to the
	// north (azimuth near 0/360).
	noon := sp.Position(12, 21, 12, 0)
	if noon.Altitude < 70 {
		t.Errorf("sydney december noon altitude = %v, want above 70", noon.Altitude)
	}
	northerly := noon.Azimuth < 60 || noon.Azimuth > 300
	if !northerly {
		t.Errorf("sydney december noon azimuth = %v, want northerly", noon.Azimuth)
	}

	// June is winter: much lower sun.
	winterNoon := sp.Position(6, 21, 12, 0)
	if winterNoon.Altitude > 40 {
		t.Errorf("sydney june noon altitude = %v, want low", winterNoon.Altitude)
	}
}

func TestSunPositionAltitudeBounds(t *testing.T) {
	sp := &Sunpath{Location: bostonSite}

	for month := 1; month <= 12; month++ {
		for hour := 0; hour < 24; hour++ {
			pos := sp.Position(month, 15, hour, 0)
			if pos.Altitude < -90 || pos.Altitude > 90 {
				t.Fatalf("altitude out of range: %v at month %d hour %d", pos.Altitude, month, hour)
			}
			if pos.Azimuth < 0 || pos.Azimuth >= 360 || math.IsNaN(pos.Azimuth) {
				t.Fatalf("azimuth out of range: %v at month %d hour %d", pos.Azimuth, month, hour)
			}
		}
	}
}
