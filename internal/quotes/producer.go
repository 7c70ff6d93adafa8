package quotes

import (
	"context"

	"urbanyatra.in/internal/geo"
)

// Producer fetches fare quotes for one platform. Implementations may take
// seconds and may fail internally; they must absorb their own failures and
// return fallback estimates instead of an error. An empty list is a valid
// result.
type Producer interface {
	Platform() string
	Quotes(ctx context.Context, pickup, drop geo.Point) []FareQuote
}
