package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/metrics"
)

// CacheTTL is how long a fan-out result answers follow-up requests for the
// same coordinate grid cell.
const CacheTTL = 30 * time.Second

// Aggregator fans a quote request out to every registered producer in
// parallel and merges the results in registration order. Results are cached
// keyed by coordinates rounded to 4 decimal places (roughly 11 m); entries
// are immutable once stored and stale ones are overwritten wholesale, so no
// eviction sweep is needed at this key cardinality.
type Aggregator struct {
	producers []Producer
	cache     sync.Map // string -> cacheEntry
	clk       clock.Clock
	logger    *slog.Logger
}

type cacheEntry struct {
	quotes   []FareQuote
	storedAt time.Time
}

func NewAggregator(producers []Producer, clk clock.Clock, logger *slog.Logger) *Aggregator {
	return &Aggregator{producers: producers, clk: clk, logger: logger}
}

// Platforms returns the registered platform names in registration order.
func (a *Aggregator) Platforms() []string {
	names := make([]string, len(a.producers))
	for i, p := range a.producers {
		names[i] = p.Platform()
	}
	return names
}

// GetQuotes returns the merged quote list for the trip. A fresh cache entry
// is returned with provenance rewritten to cached; otherwise all producers
// run concurrently and their lists are concatenated in producer order. A
// producer failing internally is invisible here: it already substituted
// fallback estimates.
func (a *Aggregator) GetQuotes(ctx context.Context, pickup, drop geo.Point) []FareQuote {
	key := cacheKey(pickup, drop)

	if value, ok := a.cache.Load(key); ok {
		entry := value.(cacheEntry)
		if a.clk.Now().Sub(entry.storedAt) < CacheTTL {
			metrics.QuoteCacheHits.Inc()
			return markCached(entry.quotes)
		}
	}
	metrics.QuoteCacheMisses.Inc()

	results := make([][]FareQuote, len(a.producers))
	var wg sync.WaitGroup
	for i, producer := range a.producers {
		wg.Add(1)
		go func(i int, producer Producer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("producer panicked", "platform", producer.Platform(), "panic", r)
				}
			}()
			results[i] = producer.Quotes(ctx, pickup, drop)
		}(i, producer)
	}
	wg.Wait()

	var merged []FareQuote
	for _, list := range results {
		merged = append(merged, list...)
	}

	if len(merged) > 0 {
		a.cache.Store(key, cacheEntry{quotes: merged, storedAt: a.clk.Now()})
	}
	return merged
}

func cacheKey(pickup, drop geo.Point) string {
	return fmt.Sprintf("%.4f,%.4f|%.4f,%.4f", pickup.Lat, pickup.Lng, drop.Lat, drop.Lng)
}

func markCached(quotes []FareQuote) []FareQuote {
	out := make([]FareQuote, len(quotes))
	copy(out, quotes)
	for i := range out {
		out[i].Provenance = ProvenanceCached
	}
	return out
}
