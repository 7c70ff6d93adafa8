package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"urbanyatra.in/internal/app"
	"urbanyatra.in/internal/appconf"
	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/fare"
	"urbanyatra.in/internal/gtfs"
	"urbanyatra.in/internal/logging"
	"urbanyatra.in/internal/metro"
	"urbanyatra.in/internal/planner"
	"urbanyatra.in/internal/quotes"
	"urbanyatra.in/internal/restapi"
)

// ServiceConfig carries the domain-service settings that sit outside the
// shared appconf.Config.
type ServiceConfig struct {
	GtfsDir       string
	Platforms     string
	UberBaseURL   string
	OlaBaseURL    string
	RapidoBaseURL string
	MetroAPIKey   string
}

// ParsePlatforms splits a comma-separated platform list and trims whitespace
// from each name. Returns an empty slice if the input is empty.
func ParsePlatforms(platformsFlag string) []string {
	if platformsFlag == "" {
		return []string{}
	}

	names := strings.Split(platformsFlag, ",")
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func logLevelFor(cfg appconf.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// BuildApplication creates and initializes the Application with all
// dependencies. A missing or empty GTFS feed is not fatal: the bus planner
// starts disabled and the fare endpoints keep working.
func BuildApplication(cfg appconf.Config, svcCfg ServiceConfig) (*app.Application, error) {
	logger := logging.NewStructuredLogger(os.Stdout, logLevelFor(cfg))
	clk := clock.SystemClock{}

	var idx *gtfs.ScheduleIndex
	static, err := gtfs.Load(svcCfg.GtfsDir, logger)
	switch {
	case err == nil:
		idx = gtfs.BuildIndex(static)
		logger.Info("schedule index built",
			"stops", len(static.Stops),
			"routes", len(static.Routes),
			"trips", len(static.Trips),
		)
	case errors.Is(err, gtfs.ErrFeedUnavailable):
		logger.Warn("GTFS feed unavailable, bus itineraries disabled", "dir", svcCfg.GtfsDir, "error", err)
	default:
		return nil, fmt.Errorf("loading GTFS feed: %w", err)
	}

	producers, err := buildProducers(svcCfg, clk, logger)
	if err != nil {
		return nil, err
	}

	var metroSvc *metro.Service
	if svcCfg.MetroAPIKey != "" {
		metroSvc = metro.NewService(svcCfg.MetroAPIKey, clk, logger)
	}

	coreApp := &app.Application{
		Config:     cfg,
		Logger:     logger,
		Clock:      clk,
		Planner:    planner.New(idx, clk, logger),
		Aggregator: quotes.NewAggregator(producers, clk, logger),
		Metro:      metroSvc,
	}

	return coreApp, nil
}

func buildProducers(svcCfg ServiceConfig, clk clock.Clock, logger *slog.Logger) ([]quotes.Producer, error) {
	baseURLs := map[string]string{
		"uber":   svcCfg.UberBaseURL,
		"ola":    svcCfg.OlaBaseURL,
		"rapido": svcCfg.RapidoBaseURL,
	}

	fallback := quotes.NewFallbackEstimator(fare.SystemRand{}, clk)

	var producers []quotes.Producer
	for _, name := range ParsePlatforms(svcCfg.Platforms) {
		menu, ok := quotes.PlatformMenus[name]
		if !ok {
			return nil, fmt.Errorf("unknown platform %q", name)
		}
		producers = append(producers, quotes.NewPlatformProducer(quotes.PlatformConfig{
			Name:    name,
			BaseURL: baseURLs[name],
			Menu:    menu,
		}, fallback, clk, logger))
	}
	return producers, nil
}

// CreateServer creates and configures the HTTP server with routes and
// middleware. The returned RestAPI must be shut down when the server stops.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	// Middleware chain, outermost first: recovery -> request logging ->
	// request ID -> security headers -> routes.
	handler := api.WithSecurityHeaders(mux)
	handler = restapi.RequestIDMiddleware(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.NewRecoveryMiddleware(coreApp.Logger)(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// Run manages the server lifecycle with graceful shutdown. It starts the
// server, waits for SIGINT or SIGTERM, then drains in-flight requests with a
// 30-second timeout before stopping transport middleware.
func Run(srv *http.Server, api *restapi.RestAPI, logger *slog.Logger) error {
	logger.Info("starting server", "addr", srv.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if api != nil {
		api.Shutdown()
	}

	logger.Info("server exited")
	return nil
}
