package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/fare"
	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/logging"
	"urbanyatra.in/internal/metrics"
)

const (
	// DefaultProducerTimeout bounds one upstream round trip. Upstreams
	// include browser-automation gateways, so this is generous.
	DefaultProducerTimeout = 12 * time.Second
	// MaxProducerTimeout is the hard ceiling regardless of configuration.
	MaxProducerTimeout = 20 * time.Second
)

// Vehicle menus offered per platform. Fallback estimates cover exactly this
// menu when the upstream cannot be reached.
var PlatformMenus = map[string][]fare.VehicleClass{
	"uber":   {fare.Bike, fare.Mini, fare.Sedan, fare.SUV},
	"ola":    {fare.Bike, fare.Auto, fare.Mini, fare.Sedan},
	"rapido": {fare.Bike, fare.Auto},
}

// PlatformConfig configures one upstream quote source.
type PlatformConfig struct {
	Name    string
	BaseURL string
	Menu    []fare.VehicleClass
	Timeout time.Duration
}

// platformProducer queries one upstream pricing gateway over HTTP. Any
// transport error, non-2xx status or malformed body is absorbed and replaced
// with fallback estimates; the caller never sees a failure.
type platformProducer struct {
	name     string
	baseURL  string
	menu     []fare.VehicleClass
	client   *http.Client
	fallback *FallbackEstimator
	clk      clock.Clock
	logger   *slog.Logger
}

// NewPlatformProducer builds a producer for one platform. An empty BaseURL
// yields a producer that always answers with fallback estimates, which keeps
// a platform present in responses when its upstream is not configured.
func NewPlatformProducer(cfg PlatformConfig, fallback *FallbackEstimator, clk clock.Clock, logger *slog.Logger) Producer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProducerTimeout
	}
	if timeout > MaxProducerTimeout {
		timeout = MaxProducerTimeout
	}
	return &platformProducer{
		name:     cfg.Name,
		baseURL:  cfg.BaseURL,
		menu:     cfg.Menu,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		clk:      clk,
		logger:   logger.With("platform", cfg.Name),
	}
}

func (p *platformProducer) Platform() string {
	return p.name
}

func (p *platformProducer) Quotes(ctx context.Context, pickup, drop geo.Point) []FareQuote {
	if p.baseURL == "" {
		return p.fallback.Estimate(p.name, p.menu, pickup, drop)
	}

	quotes, err := p.fetchLive(ctx, pickup, drop)
	if err != nil {
		p.logger.Warn("live quote fetch failed, using fallback estimates", "error", err)
		metrics.ProducerFallbacks.WithLabelValues(p.name).Inc()
		return p.fallback.Estimate(p.name, p.menu, pickup, drop)
	}
	return quotes
}

type estimateRequest struct {
	Pickup       coordinateBody `json:"pickup"`
	Drop         coordinateBody `json:"drop"`
	VehicleTypes []string       `json:"vehicle_types"`
}

type coordinateBody struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type estimateResponse struct {
	Estimates []struct {
		VehicleType string `json:"vehicle_type"`
		Price       int    `json:"price"`
		Currency    string `json:"currency"`
		ETA         string `json:"eta"`
	} `json:"estimates"`
}

func (p *platformProducer) fetchLive(ctx context.Context, pickup, drop geo.Point) ([]FareQuote, error) {
	classes := make([]string, len(p.menu))
	for i, class := range p.menu {
		classes[i] = string(class)
	}

	body, err := json.Marshal(estimateRequest{
		Pickup:       coordinateBody{Lat: pickup.Lat, Lng: pickup.Lng},
		Drop:         coordinateBody{Lat: drop.Lat, Lng: drop.Lng},
		VehicleTypes: classes,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding estimate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/estimates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating estimate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", p.name, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, p.logger, "estimate_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	var decoded estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", p.name, err)
	}

	nowMs := p.clk.Now().UnixMilli()
	quotes := make([]FareQuote, 0, len(decoded.Estimates))
	for _, e := range decoded.Estimates {
		currency := e.Currency
		if currency == "" {
			currency = "INR"
		}
		quotes = append(quotes, FareQuote{
			Platform:     p.name,
			VehicleClass: e.VehicleType,
			Price:        e.Price,
			Currency:     currency,
			ETA:          e.ETA,
			Confidence:   ConfidenceHigh,
			Provenance:   ProvenanceLive,
			TimestampMs:  nowMs,
		})
	}
	return quotes, nil
}
