// Package quotes aggregates ride-hailing fare quotes from several upstream
// platforms. Each platform sits behind the Producer interface; producers are
// slow and unreliable, so every failure is absorbed into rule-based fallback
// estimates and the aggregator only ever sees complete quote lists.
package quotes

// Provenance records where a quote came from.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceEstimate Provenance = "estimate"
	ProvenanceCached   Provenance = "cached"
)

// Confidence grades how much a quote should be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// FareQuote is one priced vehicle option on one platform.
type FareQuote struct {
	Platform     string
	VehicleClass string
	Price        int
	Currency     string
	ETA          string
	Confidence   Confidence
	Provenance   Provenance
	TimestampMs  int64
}
