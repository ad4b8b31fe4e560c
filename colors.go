package epwcharts

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
)

// Color is an RGB color.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Hex formats the color as an uppercase #RRGGBB string, the form the chart
// frontend expects.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RandomColor picks a random color. Bar and line charts fall back to this
// when the caller does not provide one.
func RandomColor() Color {
	return Color{
		R: uint8(rand.Intn(256)),
		G: uint8(rand.Intn(256)),
		B: uint8(rand.Intn(256)),
	}
}

// ColorSet names an ordered legend palette.
type ColorSet string

const (
	ColorSetOriginal       ColorSet = "original"
	ColorSetNuanced        ColorSet = "nuanced"
	ColorSetMultiColored   ColorSet = "multi_colored"
	ColorSetEcotect        ColorSet = "ecotect"
	ColorSetThermalComfort ColorSet = "thermal_comfort"
	ColorSetCloudCover     ColorSet = "cloud_cover"
	ColorSetBlackToWhite   ColorSet = "black_to_white"
	ColorSetBenefitHarm    ColorSet = "benefit_harm"
	ColorSetEnergyBalance  ColorSet = "energy_balance"
	ColorSetShadowStudy    ColorSet = "shadow_study"
	ColorSetHeatSensation  ColorSet = "heat_sensation"
	ColorSetColdSensation  ColorSet = "cold_sensation"
)

var colorSets = map[ColorSet][]Color{
	ColorSetOriginal: {
		{75, 107, 169}, {115, 147, 202}, {170, 200, 247}, {193, 213, 208},
		{245, 239, 103}, {252, 230, 74}, {239, 156, 21}, {234, 123, 0},
		{234, 74, 0}, {234, 38, 0},
	},
	ColorSetNuanced: {
		{49, 54, 149}, {69, 117, 180}, {116, 173, 209}, {171, 217, 233},
		{224, 243, 248}, {255, 255, 191}, {254, 224, 144}, {253, 174, 97},
		{244, 109, 67}, {215, 48, 39},
	},
	ColorSetMultiColored: {
		{4, 25, 145}, {7, 48, 224}, {7, 88, 255}, {1, 232, 255},
		{97, 246, 156}, {166, 249, 86}, {254, 244, 1}, {255, 121, 0},
		{239, 39, 0}, {138, 17, 0},
	},
	ColorSetEcotect: {
		{0, 0, 255}, {53, 0, 202}, {107, 0, 148}, {160, 0, 95},
		{214, 0, 41}, {255, 12, 0}, {255, 66, 0}, {255, 119, 0},
		{255, 173, 0}, {255, 226, 0},
	},
	ColorSetThermalComfort: {
		{0, 136, 255}, {67, 168, 255}, {134, 199, 255}, {174, 219, 255},
		{215, 239, 255}, {255, 235, 235}, {255, 177, 177}, {255, 118, 118},
		{255, 60, 60}, {255, 0, 0},
	},
	ColorSetCloudCover: {
		{0, 251, 255}, {64, 204, 216}, {128, 158, 179}, {179, 179, 179},
		{217, 217, 217}, {255, 255, 255},
	},
	ColorSetBlackToWhite: {
		{0, 0, 0}, {42, 42, 42}, {85, 85, 85}, {127, 127, 127},
		{170, 170, 170}, {212, 212, 212}, {255, 255, 255},
	},
	ColorSetBenefitHarm: {
		{0, 191, 48}, {91, 212, 115}, {177, 233, 182}, {255, 255, 255},
		{245, 178, 178}, {236, 89, 89}, {227, 0, 0},
	},
	ColorSetEnergyBalance: {
		{87, 74, 132}, {64, 78, 178}, {54, 120, 208}, {88, 184, 222},
		{185, 222, 236}, {255, 255, 234}, {252, 222, 153}, {244, 157, 66},
		{228, 100, 31}, {191, 38, 21},
	},
	ColorSetShadowStudy: {
		{120, 75, 190}, {148, 110, 202}, {175, 145, 214}, {203, 180, 226},
		{230, 215, 238}, {255, 250, 250},
	},
	ColorSetHeatSensation: {
		{255, 255, 255}, {255, 222, 179}, {255, 189, 121}, {255, 142, 61},
		{255, 92, 9}, {204, 51, 0}, {153, 19, 0}, {102, 0, 0},
	},
	ColorSetColdSensation: {
		{255, 255, 255}, {204, 228, 255}, {153, 196, 255}, {101, 158, 255},
		{58, 110, 255}, {21, 58, 226}, {0, 25, 153}, {0, 13, 102},
	},
}

// Palette returns the ordered colors of a named color set.
func Palette(cs ColorSet) ([]Color, error) {
	colors, ok := colorSets[cs]
	if !ok {
		return nil, errors.Errorf("unknown color set %q", cs)
	}
	return colors, nil
}

// ColorScale returns the palette as hex strings, usable directly as a chart
// colorscale.
func ColorScale(cs ColorSet) ([]string, error) {
	colors, err := Palette(cs)
	if err != nil {
		return nil, err
	}

	scale := make([]string, len(colors))
	for i, c := range colors {
		scale[i] = c.Hex()
	}
	return scale, nil
}
