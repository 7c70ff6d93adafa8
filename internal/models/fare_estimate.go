// Package models holds the JSON wire shapes served by the REST API and the
// converters from the internal domain types.
package models

import (
	"urbanyatra.in/internal/quotes"
)

// FareEstimate is one priced option on a ride-hailing platform.
type FareEstimate struct {
	Platform    string `json:"platform"`
	VehicleType string `json:"vehicleType"`
	Price       int    `json:"price"`
	Currency    string `json:"currency"`
	ETA         string `json:"eta,omitempty"`
	Source      string `json:"source"`
	Confidence  string `json:"confidence"`
}

// CompareFaresResponse is the envelope for POST /api/compare-fares.
type CompareFaresResponse struct {
	Success   bool           `json:"success"`
	Count     int            `json:"count"`
	Estimates []FareEstimate `json:"estimates"`
}

// NewCompareFaresResponse converts aggregator quotes to the wire shape,
// preserving order.
func NewCompareFaresResponse(fareQuotes []quotes.FareQuote) CompareFaresResponse {
	estimates := make([]FareEstimate, len(fareQuotes))
	for i, q := range fareQuotes {
		estimates[i] = FareEstimate{
			Platform:    q.Platform,
			VehicleType: q.VehicleClass,
			Price:       q.Price,
			Currency:    q.Currency,
			ETA:         q.ETA,
			Source:      string(q.Provenance),
			Confidence:  string(q.Confidence),
		}
	}
	return CompareFaresResponse{
		Success:   true,
		Count:     len(estimates),
		Estimates: estimates,
	}
}
