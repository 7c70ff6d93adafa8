package main

import (
	"flag"
	"log/slog"
	"os"

	"urbanyatra.in/internal/appconf"
)

func main() {
	var cfg appconf.Config
	var svcCfg ServiceConfig
	var envFlag string

	// Parse command-line flags; env vars act as defaults for deploys that
	// cannot pass flags.
	flag.IntVar(&cfg.Port, "port", envIntOrDefault("PORT", 4000), "API server port")
	flag.StringVar(&envFlag, "env", envOrDefault("APP_ENV", "development"), "Environment (development|test|production)")
	flag.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second per client for rate limiting")
	flag.BoolVar(&cfg.Verbose, "verbose", os.Getenv("VERBOSE") == "1", "Enable debug logging")
	flag.StringVar(&svcCfg.GtfsDir, "gtfs-dir", envOrDefault("GTFS_DIR", "./data/gtfs"), "Directory holding the static GTFS feed")
	flag.StringVar(&svcCfg.Platforms, "producers", envOrDefault("PRODUCERS", "uber,ola,rapido"), "Comma separated ride-hailing platforms to query")
	flag.StringVar(&svcCfg.UberBaseURL, "uber-base-url", os.Getenv("UBER_BASE_URL"), "Uber estimates endpoint base URL (empty = fallback pricing)")
	flag.StringVar(&svcCfg.OlaBaseURL, "ola-base-url", os.Getenv("OLA_BASE_URL"), "Ola estimates endpoint base URL (empty = fallback pricing)")
	flag.StringVar(&svcCfg.RapidoBaseURL, "rapido-base-url", os.Getenv("RAPIDO_BASE_URL"), "Rapido estimates endpoint base URL (empty = fallback pricing)")
	flag.StringVar(&svcCfg.MetroAPIKey, "metro-api-key", os.Getenv("GOOGLE_MAPS_API_KEY"), "Directions provider API key for metro routing (empty = disabled)")
	flag.Parse()

	cfg.Env = appconf.EnvFlagToEnvironment(envFlag)

	// Build application with dependencies
	coreApp, err := BuildApplication(cfg, svcCfg)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Create HTTP server
	srv, api := CreateServer(coreApp, cfg)

	// Run server with graceful shutdown
	if err := Run(srv, api, coreApp.Logger); err != nil {
		coreApp.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
