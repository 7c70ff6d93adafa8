package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForIdenticalPoints(t *testing.T) {
	p := Point{Lat: 28.7001, Lng: 77.1001}
	assert.Equal(t, 0.0, DistanceKm(p, p))
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := Point{Lat: 28.7000, Lng: 77.1000}
	b := Point{Lat: 28.7050, Lng: 77.1050}
	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-12)
}

func TestDistanceKmKnownValue(t *testing.T) {
	// Connaught Place to India Gate, roughly 2.2 km.
	a := Point{Lat: 28.6315, Lng: 77.2167}
	b := Point{Lat: 28.6129, Lng: 77.2295}
	d := DistanceKm(a, b)
	assert.InDelta(t, 2.4, d, 0.3)
}

func TestDistanceKmOneDegreeLatitude(t *testing.T) {
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 1, Lng: 0}
	assert.InDelta(t, 111.19, DistanceKm(a, b), 0.1)
}

func TestBearingDeg(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
	}{
		{"due north", Point{0, 0}, Point{1, 0}, 0},
		{"due east", Point{0, 0}, Point{0, 1}, 90},
		{"due south", Point{1, 0}, Point{0, 0}, 180},
		{"due west", Point{0, 1}, Point{0, 0}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, BearingDeg(tt.a, tt.b), 0.01)
		})
	}
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 28.7, Lng: 77.1}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: math.Inf(1)}.Valid())
}
