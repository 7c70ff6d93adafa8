package quotes

import (
	"fmt"
	"math"

	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/fare"
	"urbanyatra.in/internal/geo"
)

// Typical in-traffic speeds per vehicle class, km/h, used only for the
// synthetic ETA label on fallback quotes.
var fallbackSpeedsKmph = map[fare.VehicleClass]float64{
	fare.Bike:  25,
	fare.Auto:  22,
	fare.Mini:  24,
	fare.Sedan: 24,
	fare.SUV:   24,
}

// FallbackEstimator produces rule-based synthetic quotes when a platform
// cannot be queried. Deterministic except for the surge randomization, which
// is injected so tests can pin it.
type FallbackEstimator struct {
	rng fare.Rand
	clk clock.Clock
}

func NewFallbackEstimator(rng fare.Rand, clk clock.Clock) *FallbackEstimator {
	return &FallbackEstimator{rng: rng, clk: clk}
}

// Estimate emits one quote per vehicle class in menu using the tariff table
// over the great-circle distance, marked provenance=estimate with medium
// confidence.
func (e *FallbackEstimator) Estimate(platform string, menu []fare.VehicleClass, pickup, drop geo.Point) []FareQuote {
	distanceKm := geo.DistanceKm(pickup, drop)
	nowMs := e.clk.Now().UnixMilli()

	quotes := make([]FareQuote, 0, len(menu))
	for _, class := range menu {
		q := FareQuote{
			Platform:     platform,
			VehicleClass: string(class),
			Price:        fare.Estimate(class, distanceKm, fare.Surge(e.rng)),
			Currency:     "INR",
			Confidence:   ConfidenceMedium,
			Provenance:   ProvenanceEstimate,
			TimestampMs:  nowMs,
		}
		if speed, ok := fallbackSpeedsKmph[class]; ok {
			q.ETA = fmt.Sprintf("%d min", int(math.Ceil(distanceKm/speed*60)))
		}
		quotes = append(quotes, q)
	}
	return quotes
}
