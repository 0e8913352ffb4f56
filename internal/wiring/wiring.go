// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/txlog/internal/adapters/config"
	_ "go.trai.ch/txlog/internal/adapters/logger"
	_ "go.trai.ch/txlog/internal/adapters/metrics"
	_ "go.trai.ch/txlog/internal/adapters/store"
	// Register app and engine nodes.
	_ "go.trai.ch/txlog/internal/app"
	_ "go.trai.ch/txlog/internal/engine/repository"
)
