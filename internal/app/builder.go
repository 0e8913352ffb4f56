package app

import (
	"errors"

	"go.trai.ch/txlog/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/txlog/internal/adapters/metrics" //nolint:depguard // Wired in app layer
	"go.trai.ch/txlog/internal/adapters/store"   //nolint:depguard // Wired in app layer
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App     *App
	Logger  *logger.Logger
	Metrics *metrics.Prometheus
	store   store.Store
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, log *logger.Logger, m *metrics.Prometheus, s store.Store) *Components {
	return &Components{
		App:     app,
		Logger:  log,
		Metrics: m,
		store:   s,
	}
}

// Close releases the store and flushes the logger.
func (c *Components) Close() error {
	return errors.Join(c.store.Close(), c.Logger.Close())
}
