package epwcharts

import (
	"strings"
	"testing"
)

func TestColorHex(t *testing.T) {
	cases := []struct {
		color Color
		want  string
	}{
		{Color{0, 0, 0}, "#000000"},
		{Color{255, 255, 255}, "#FFFFFF"},
		{Color{75, 107, 169}, "#4B6BA9"},
	}

	for _, c := range cases {
		if got := c.color.Hex(); got != c.want {
			t.Errorf("Hex(%+v) = %q, want %q", c.color, got, c.want)
		}
	}
}

func TestPalette(t *testing.T) {
	allSets := []ColorSet{
		ColorSetOriginal, ColorSetNuanced, ColorSetMultiColored, ColorSetEcotect,
		ColorSetThermalComfort, ColorSetCloudCover, ColorSetBlackToWhite,
		ColorSetBenefitHarm, ColorSetEnergyBalance, ColorSetShadowStudy,
		ColorSetHeatSensation, ColorSetColdSensation,
	}

	for _, cs := range allSets {
		colors, err := Palette(cs)
		if err != nil {
			t.Errorf("Palette(%q) failed: %v", cs, err)
			continue
		}
		if len(colors) == 0 {
			t.Errorf("Palette(%q) is empty", cs)
		}
	}

	if _, err := Palette("no-such-set"); err == nil {
		t.Fatal("expected error for unknown color set, got nil")
	}
}

func TestColorScale(t *testing.T) {
	scale, err := ColorScale(ColorSetOriginal)
	if err != nil {
		t.Fatalf("ColorScale failed: %v", err)
	}

	colors, _ := Palette(ColorSetOriginal)
	if len(scale) != len(colors) {
		t.Fatalf("scale length = %d, palette length = %d", len(scale), len(colors))
	}
	for _, hex := range scale {
		if !strings.HasPrefix(hex, "#") || len(hex) != 7 {
			t.Fatalf("bad hex color %q", hex)
		}
	}

	if _, err := ColorScale("no-such-set"); err == nil {
		t.Fatal("expected error for unknown color set, got nil")
	}
}
