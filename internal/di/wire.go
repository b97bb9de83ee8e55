//go:build wireinject
// +build wireinject

package di

import (
	"StrideSense/pkg/config"
	"StrideSense/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Pipeline
		ProvideSampleBuffer,
		ProvideSampleStream,
		ProvideEstimators,
		ProvideSession,
		ProvideSampleCollector,

		// Readout and API
		ProvideReadoutCache,
		ProvideReadout,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
