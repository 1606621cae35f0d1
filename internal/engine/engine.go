package engine

import (
	"context"
)

// Engine defines the interface for periodic background engines.
// Engines are long-running tasks owned by a Supervisor; they never occupy a
// request-handling path.
//
//go:generate mockgen -source=engine.go -destination=../mocks/engine.go -package=mocks -mock_names=Engine=MockEngine
type Engine interface {
	// Start begins the engine's main loop
	// This is a blocking call that runs until the context is canceled
	Start(ctx context.Context) error

	// Stop gracefully stops the engine
	// This should wait for any in-progress cycle to complete
	Stop(ctx context.Context) error

	// Name returns the engine's name for logging and identification
	Name() string
}
