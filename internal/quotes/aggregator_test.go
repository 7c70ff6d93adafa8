package quotes

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanyatra.in/internal/fare"
	"urbanyatra.in/internal/geo"
)

type stubProducer struct {
	name   string
	quotes []FareQuote
	delay  time.Duration

	mu    sync.Mutex
	calls int
}

func (s *stubProducer) Platform() string { return s.name }

func (s *stubProducer) Quotes(ctx context.Context, pickup, drop geo.Point) []FareQuote {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.quotes
}

func (s *stubProducer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type panickyProducer struct{}

func (panickyProducer) Platform() string { return "broken" }

func (panickyProducer) Quotes(ctx context.Context, pickup, drop geo.Point) []FareQuote {
	panic("upstream session corrupted")
}

// stepClock is a fixed clock that tests can advance.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func liveQuote(platform, class string, price int) FareQuote {
	return FareQuote{
		Platform:     platform,
		VehicleClass: class,
		Price:        price,
		Currency:     "INR",
		Confidence:   ConfidenceHigh,
		Provenance:   ProvenanceLive,
	}
}

func TestGetQuotesMergesInProducerOrder(t *testing.T) {
	a := NewAggregator([]Producer{
		&stubProducer{name: "uber", quotes: []FareQuote{liveQuote("uber", "mini", 120), liveQuote("uber", "sedan", 180)}, delay: 20 * time.Millisecond},
		&stubProducer{name: "ola", quotes: []FareQuote{liveQuote("ola", "auto", 80)}},
	}, &stepClock{t: time.Now()}, testLogger())

	quotes := a.GetQuotes(context.Background(), testPickup, testDrop)
	require.Len(t, quotes, 3)

	// Producer order is registration order regardless of completion order.
	assert.Equal(t, "uber", quotes[0].Platform)
	assert.Equal(t, "uber", quotes[1].Platform)
	assert.Equal(t, "ola", quotes[2].Platform)
}

func TestGetQuotesPartialFailure(t *testing.T) {
	// Producer B fails internally: its own contract substitutes fallback
	// estimates, so the aggregator sees a normal list.
	fallback := NewFallbackEstimator(zeroRand{}, fixedClock())
	failing := NewPlatformProducer(PlatformConfig{
		Name:    "ola",
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Menu:    PlatformMenus["ola"],
		Timeout: time.Second,
	}, fallback, fixedClock(), testLogger())

	a := NewAggregator([]Producer{
		&stubProducer{name: "uber", quotes: []FareQuote{liveQuote("uber", "mini", 120)}},
		failing,
	}, &stepClock{t: time.Now()}, testLogger())

	quotes := a.GetQuotes(context.Background(), testPickup, testDrop)
	require.Len(t, quotes, 1+len(PlatformMenus["ola"]))

	assert.Equal(t, ProvenanceLive, quotes[0].Provenance)
	for _, q := range quotes[1:] {
		assert.Equal(t, "ola", q.Platform)
		assert.Equal(t, ProvenanceEstimate, q.Provenance)
		assert.Equal(t, ConfidenceMedium, q.Confidence)
	}
}

func TestGetQuotesSurvivesPanickingProducer(t *testing.T) {
	a := NewAggregator([]Producer{
		&stubProducer{name: "uber", quotes: []FareQuote{liveQuote("uber", "mini", 120)}},
		panickyProducer{},
	}, &stepClock{t: time.Now()}, testLogger())

	quotes := a.GetQuotes(context.Background(), testPickup, testDrop)
	require.Len(t, quotes, 1)
	assert.Equal(t, "uber", quotes[0].Platform)
}

func TestGetQuotesCacheHitWithin30Seconds(t *testing.T) {
	clk := &stepClock{t: time.Now()}
	producer := &stubProducer{name: "uber", quotes: []FareQuote{liveQuote("uber", "mini", 120)}}
	a := NewAggregator([]Producer{producer}, clk, testLogger())

	first := a.GetQuotes(context.Background(), testPickup, testDrop)
	clk.Advance(10 * time.Second)
	second := a.GetQuotes(context.Background(), testPickup, testDrop)

	assert.Equal(t, 1, producer.callCount(), "second call must not reach the producer")
	require.Len(t, second, len(first))
	for i := range second {
		assert.Equal(t, ProvenanceCached, second[i].Provenance)

		want := first[i]
		want.Provenance = ProvenanceCached
		assert.Equal(t, want, second[i])
	}
}

func TestGetQuotesCacheExpiresAfter30Seconds(t *testing.T) {
	clk := &stepClock{t: time.Now()}
	producer := &stubProducer{name: "uber", quotes: []FareQuote{liveQuote("uber", "mini", 120)}}
	a := NewAggregator([]Producer{producer}, clk, testLogger())

	a.GetQuotes(context.Background(), testPickup, testDrop)
	clk.Advance(31 * time.Second)
	refreshed := a.GetQuotes(context.Background(), testPickup, testDrop)

	assert.Equal(t, 2, producer.callCount())
	assert.Equal(t, ProvenanceLive, refreshed[0].Provenance)
}

func TestGetQuotesCacheKeyedByCoarsenedCoordinates(t *testing.T) {
	clk := &stepClock{t: time.Now()}
	producer := &stubProducer{name: "uber", quotes: []FareQuote{liveQuote("uber", "mini", 120)}}
	a := NewAggregator([]Producer{producer}, clk, testLogger())

	a.GetQuotes(context.Background(), testPickup, testDrop)
	// ~1 m away: same 4-decimal grid cell, served from cache.
	nudged := geo.Point{Lat: testPickup.Lat + 0.00001, Lng: testPickup.Lng}
	cached := a.GetQuotes(context.Background(), nudged, testDrop)

	assert.Equal(t, 1, producer.callCount())
	assert.Equal(t, ProvenanceCached, cached[0].Provenance)

	// A different grid cell misses the cache.
	far := geo.Point{Lat: testPickup.Lat + 0.01, Lng: testPickup.Lng}
	a.GetQuotes(context.Background(), far, testDrop)
	assert.Equal(t, 2, producer.callCount())
}

func TestGetQuotesEmptyResultNotCached(t *testing.T) {
	clk := &stepClock{t: time.Now()}
	producer := &stubProducer{name: "uber"}
	a := NewAggregator([]Producer{producer}, clk, testLogger())

	assert.Empty(t, a.GetQuotes(context.Background(), testPickup, testDrop))
	a.GetQuotes(context.Background(), testPickup, testDrop)
	assert.Equal(t, 2, producer.callCount())
}

func TestPlatformsInRegistrationOrder(t *testing.T) {
	a := NewAggregator([]Producer{
		&stubProducer{name: "uber"},
		&stubProducer{name: "ola"},
		&stubProducer{name: "rapido"},
	}, &stepClock{t: time.Now()}, testLogger())

	assert.Equal(t, []string{"uber", "ola", "rapido"}, a.Platforms())
}

func TestEveryPlatformMenuPricesAllClasses(t *testing.T) {
	// All producers on fallback still yield one quote per menu entry.
	fallback := NewFallbackEstimator(zeroRand{}, fixedClock())
	var producers []Producer
	for _, name := range []string{"uber", "ola", "rapido"} {
		producers = append(producers, NewPlatformProducer(PlatformConfig{
			Name: name,
			Menu: PlatformMenus[name],
		}, fallback, fixedClock(), testLogger()))
	}
	a := NewAggregator(producers, &stepClock{t: time.Now()}, testLogger())

	quotes := a.GetQuotes(context.Background(), testPickup, testDrop)

	perPlatform := map[string]int{}
	for _, q := range quotes {
		perPlatform[q.Platform]++
		var found bool
		for _, class := range PlatformMenus[q.Platform] {
			if string(class) == q.VehicleClass {
				found = true
			}
		}
		assert.True(t, found, "unexpected class %s for %s", q.VehicleClass, q.Platform)
		_ = fare.VehicleClass(q.VehicleClass)
	}
	for name, menu := range PlatformMenus {
		assert.Equal(t, len(menu), perPlatform[name], "platform %s", name)
	}
}
