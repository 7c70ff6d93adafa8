// Package fare holds the tariff tables used for ride-hailing estimates and
// the slab-based bus fares.
package fare

import (
	"math"
	"math/rand"
)

// VehicleClass identifies a ride-hailing vehicle category.
type VehicleClass string

const (
	Bike  VehicleClass = "bike"
	Auto  VehicleClass = "auto"
	Mini  VehicleClass = "mini"
	Sedan VehicleClass = "sedan"
	SUV   VehicleClass = "suv"
)

// Tariff is the pricing rule for one vehicle class, in whole currency units.
type Tariff struct {
	BaseFare float64
	PerKm    float64
	MinFare  float64
}

var tariffs = map[VehicleClass]Tariff{
	Bike:  {BaseFare: 15, PerKm: 5, MinFare: 25},
	Auto:  {BaseFare: 25, PerKm: 8, MinFare: 30},
	Mini:  {BaseFare: 40, PerKm: 10, MinFare: 60},
	Sedan: {BaseFare: 50, PerKm: 12, MinFare: 80},
	SUV:   {BaseFare: 80, PerKm: 16, MinFare: 120},
}

// TariffFor returns the tariff for the given class and whether it exists.
func TariffFor(class VehicleClass) (Tariff, bool) {
	t, ok := tariffs[class]
	return t, ok
}

// Rand supplies the randomness behind surge pricing. Tests pin it to return
// zero so surge is exactly 1.0.
type Rand interface {
	Float64() float64
}

// SystemRand draws from the shared math/rand source, which is safe for
// concurrent use.
type SystemRand struct{}

func (SystemRand) Float64() float64 { return rand.Float64() }

// Surge returns a multiplier in [1.0, 1.2).
func Surge(rng Rand) float64 {
	return 1.0 + 0.2*rng.Float64()
}

// Estimate prices a trip of distanceKm for the given class:
// max(minFare, round(base + perKm*distance) * surge). The result is in whole
// currency units. Unknown classes price as zero.
func Estimate(class VehicleClass, distanceKm float64, surge float64) int {
	t, ok := tariffs[class]
	if !ok {
		return 0
	}
	price := math.Round(t.BaseFare+t.PerKm*distanceKm) * surge
	return int(math.Max(t.MinFare, price))
}

// BusFare returns the slab fare for a bus leg of the given distance.
func BusFare(distanceKm float64) int {
	switch {
	case distanceKm <= 4:
		return 5
	case distanceKm <= 10:
		return 10
	case distanceKm <= 15:
		return 15
	case distanceKm <= 20:
		return 20
	default:
		return 25
	}
}
