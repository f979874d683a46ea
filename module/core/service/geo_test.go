package service

import (
	"math"
	"testing"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    domain.GeoPoint
		wantMin float64
		wantMax float64
	}{
		{"same point", domain.GeoPoint{Lat: 20.9463, Lon: 85.2190}, domain.GeoPoint{Lat: 20.9463, Lon: 85.2190}, 0, 0},
		{"one degree latitude", domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 1, Lon: 0}, 111190, 111200},
		{"talcher to chandilkhol", domain.GeoPoint{Lat: 20.9463, Lon: 85.2190}, domain.GeoPoint{Lat: 20.8739, Lon: 86.0891}, 90000, 91000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(tt.a, tt.b)
			if d < tt.wantMin || d > tt.wantMax {
				t.Errorf("distance = %f, want between %f and %f", d, tt.wantMin, tt.wantMax)
			}
			if back := Distance(tt.b, tt.a); math.Abs(back-d) > 1e-6 {
				t.Errorf("distance not symmetric: %f vs %f", d, back)
			}
		})
	}
}

func TestDistance_NaNPropagates(t *testing.T) {
	d := Distance(domain.GeoPoint{Lat: math.NaN(), Lon: 85}, domain.GeoPoint{Lat: 20, Lon: 85})
	if !math.IsNaN(d) {
		t.Errorf("expected NaN, got %f", d)
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		p    domain.GeoPoint
		want bool
	}{
		{domain.GeoPoint{Lat: 20.9463, Lon: 85.2190}, true},
		{domain.GeoPoint{Lat: 90, Lon: -180}, true},
		{domain.GeoPoint{Lat: 91, Lon: 0}, false},
		{domain.GeoPoint{Lat: 0, Lon: 181}, false},
		{domain.GeoPoint{Lat: math.NaN(), Lon: 0}, false},
		{domain.GeoPoint{Lat: 0, Lon: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		if got := ValidCoordinate(tt.p); got != tt.want {
			t.Errorf("ValidCoordinate(%+v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
