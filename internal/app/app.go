// Package app holds the dependency container shared by the HTTP handlers.
package app

import (
	"log/slog"

	"urbanyatra.in/internal/appconf"
	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/metro"
	"urbanyatra.in/internal/planner"
	"urbanyatra.in/internal/quotes"
)

// Application wires configuration and the domain services together. It is
// built once at startup and treated as read-only afterwards.
type Application struct {
	Config     appconf.Config
	Logger     *slog.Logger
	Clock      clock.Clock
	Planner    *planner.Planner
	Aggregator *quotes.Aggregator
	Metro      *metro.Service
}
