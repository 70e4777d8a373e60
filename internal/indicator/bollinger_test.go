package indicator

import (
	"math"
	"testing"
)

func TestBollinger(t *testing.T) {
	prices := []float64{10, 20, 30, 40}
	bands := Bollinger(prices, 3, 2)

	if !math.IsNaN(bands.Upper[0]) || !math.IsNaN(bands.Lower[1]) {
		t.Error("entries before a full window should be NaN")
	}

	// Window {10,20,30}: mean 20, population sigma sqrt(200/3).
	sigma := math.Sqrt(200.0 / 3.0)
	if math.Abs(bands.Middle[2]-20) > 1e-9 {
		t.Errorf("Middle[2] = %v, want 20", bands.Middle[2])
	}
	if math.Abs(bands.Upper[2]-(20+2*sigma)) > 1e-9 {
		t.Errorf("Upper[2] = %v, want %v", bands.Upper[2], 20+2*sigma)
	}
	if math.Abs(bands.Lower[2]-(20-2*sigma)) > 1e-9 {
		t.Errorf("Lower[2] = %v, want %v", bands.Lower[2], 20-2*sigma)
	}
}

func TestBollinger_FlatPrices(t *testing.T) {
	prices := []float64{50, 50, 50, 50}
	bands := Bollinger(prices, 3, 2)

	// Zero variance collapses the bands onto the average.
	if bands.Upper[3] != 50 || bands.Lower[3] != 50 {
		t.Errorf("flat prices should collapse bands, got upper %v lower %v",
			bands.Upper[3], bands.Lower[3])
	}
}
