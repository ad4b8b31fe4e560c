package epwcharts

import "math"

// Psychrometric relations used by the psychrometric chart. Magnus-form
// saturation pressure; the humidity ratio relation is the standard
// 0.621945 * pw / (p - pw).

// Standard atmospheric pressure at sea level in Pa.
const standardPressure = 101325.0

// SaturationPressure returns the saturation vapor pressure in Pa over liquid
// water for a dry bulb temperature in Celsius.
func SaturationPressure(dbTemp float64) float64 {
	return 610.94 * math.Exp(17.625*dbTemp/(dbTemp+243.04))
}

// HumidityRatio returns the humidity ratio (kg water / kg dry air) for a dry
// bulb temperature in Celsius, relative humidity in percent and air pressure
// in Pa.
func HumidityRatio(dbTemp, relHumidity, pressure float64) float64 {
	pw := relHumidity / 100 * SaturationPressure(dbTemp)
	return 0.621945 * pw / (pressure - pw)
}

// HumidityRatioAtStandardPressure is HumidityRatio at sea level pressure.
func HumidityRatioAtStandardPressure(dbTemp, relHumidity float64) float64 {
	return HumidityRatio(dbTemp, relHumidity, standardPressure)
}

// DewPoint returns the dew point temperature in Celsius for a dry bulb
// temperature in Celsius and relative humidity in percent.
func DewPoint(dbTemp, relHumidity float64) float64 {
	alpha := math.Log(relHumidity/100) + 17.625*dbTemp/(243.04+dbTemp)
	return 243.04 * alpha / (17.625 - alpha)
}
