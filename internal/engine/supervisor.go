package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/logger"
)

// Supervisor owns a set of engines and runs each in its own goroutine.
// It exists so periodic loops can be started once at bootstrap and stopped
// deterministically in tests and on shutdown, instead of the engines
// rescheduling themselves through ambient timers.
type Supervisor struct {
	engines []Engine

	mu      sync.Mutex
	wg      sync.WaitGroup
	started bool
}

// NewSupervisor creates a supervisor over the given engines
func NewSupervisor(engines ...Engine) *Supervisor {
	return &Supervisor{engines: engines}
}

// Start launches every engine. It returns immediately; engines run until
// ctx is canceled or Stop is called.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("supervisor already started")
	}
	s.started = true

	for _, e := range s.engines {
		s.wg.Add(1)
		go func(e Engine) {
			defer s.wg.Done()
			logger.InfoCtx(ctx, "Starting engine", zap.String("engine", e.Name()))
			if err := e.Start(ctx); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("engine", e.Name()))
			}
		}(e)
	}
	return nil
}

// Stop stops every engine and waits for their loops to exit, bounded by ctx
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	for _, e := range s.engines {
		if err := e.Stop(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("engine", e.Name()))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.started = false
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
