package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modhaven/mh-aggregator/internal/engine"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/mocks"
)

func setupSupervisorTest(t *testing.T) *gomock.Controller {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	return gomock.NewController(t)
}

func TestSupervisor_StartAndStop(t *testing.T) {
	ctrl := setupSupervisorTest(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// Two engines that block until their Stop is called, like the real
	// periodic loops do
	makeEngine := func(name string) *mocks.MockEngine {
		e := mocks.NewMockEngine(ctrl)
		stopped := make(chan struct{})
		e.EXPECT().Name().Return(name).AnyTimes()
		e.EXPECT().Start(gomock.Any()).DoAndReturn(func(context.Context) error {
			<-stopped
			return nil
		})
		e.EXPECT().Stop(gomock.Any()).DoAndReturn(func(context.Context) error {
			close(stopped)
			return nil
		})
		return e
	}

	sup := engine.NewSupervisor(makeEngine("a"), makeEngine("b"))
	require.NoError(t, sup.Start(ctx))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sup.Stop(stopCtx))
}

func TestSupervisor_DoubleStart(t *testing.T) {
	ctrl := setupSupervisorTest(t)
	defer ctrl.Finish()

	ctx := context.Background()

	e := mocks.NewMockEngine(ctrl)
	stopped := make(chan struct{})
	e.EXPECT().Name().Return("a").AnyTimes()
	e.EXPECT().Start(gomock.Any()).DoAndReturn(func(context.Context) error {
		<-stopped
		return nil
	})
	e.EXPECT().Stop(gomock.Any()).DoAndReturn(func(context.Context) error {
		close(stopped)
		return nil
	})

	sup := engine.NewSupervisor(e)
	require.NoError(t, sup.Start(ctx))
	assert.Error(t, sup.Start(ctx))
	require.NoError(t, sup.Stop(ctx))
}

func TestSupervisor_StopWithoutStart(t *testing.T) {
	ctrl := setupSupervisorTest(t)
	defer ctrl.Finish()

	sup := engine.NewSupervisor()
	require.NoError(t, sup.Stop(context.Background()))
}

func TestSupervisor_EngineStartErrorDoesNotBlockStop(t *testing.T) {
	ctrl := setupSupervisorTest(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// An engine whose loop exits with an error: the supervisor logs it and
	// Stop still returns cleanly
	e := mocks.NewMockEngine(ctrl)
	e.EXPECT().Name().Return("broken").AnyTimes()
	e.EXPECT().Start(gomock.Any()).Return(errors.New("bind: address already in use"))
	e.EXPECT().Stop(gomock.Any()).Return(nil)

	sup := engine.NewSupervisor(e)
	require.NoError(t, sup.Start(ctx))
	require.NoError(t, sup.Stop(ctx))
}
