package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Muscledia/gamification-service/internal/core/health"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// mockShutdowner is a mock implementation of fx.Shutdowner
type mockShutdowner struct {
	shutdownCalled atomic.Bool
}

func (m *mockShutdowner) Shutdown(opts ...fx.ShutdownOption) error {
	m.shutdownCalled.Store(true)
	return nil
}

func newTestReadiness(markReady bool) health.Readiness {
	r := health.NewReadiness(zap.NewNop())
	r.AddComponent("test")
	if markReady {
		r.MarkReady("test")
	}
	return r
}

func TestOptions(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		opts := Options{}
		assert.False(t, opts.WaitReady)
		assert.False(t, opts.ShutdownOnError)
	})

	t.Run("WithReady", func(t *testing.T) {
		opts := Options{}
		WithReady()(&opts)
		assert.True(t, opts.WaitReady)
	})

	t.Run("WithShutdown", func(t *testing.T) {
		opts := Options{}
		WithShutdown()(&opts)
		assert.True(t, opts.ShutdownOnError)
	})
}

func TestBaseWorker(t *testing.T) {
	t.Run("runs function and stops cleanly", func(t *testing.T) {
		var ran atomic.Bool
		var wg sync.WaitGroup
		wg.Add(1)

		w := &baseWorker{
			name: "test-worker",
			log:  zap.NewNop(),
			runFunc: func(ctx context.Context) error {
				ran.Store(true)
				wg.Done()
				<-ctx.Done()
				return nil
			},
		}

		w.Start()
		wg.Wait()
		w.Stop()

		assert.True(t, ran.Load())
	})

	t.Run("waits for readiness before running", func(t *testing.T) {
		readiness := health.NewReadiness(zap.NewNop())
		readiness.AddComponent("dep")

		started := make(chan struct{})
		w := &baseWorker{
			name:      "test-worker",
			log:       zap.NewNop(),
			readiness: readiness,
			options:   Options{WaitReady: true},
			runFunc: func(ctx context.Context) error {
				close(started)
				return nil
			},
		}

		w.Start()
		defer w.Stop()

		select {
		case <-started:
			t.Fatal("worker ran before readiness")
		case <-time.After(50 * time.Millisecond):
		}

		readiness.MarkReady("dep")

		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("worker did not run after readiness")
		}
	})

	t.Run("fatal error triggers shutdown when configured", func(t *testing.T) {
		shutdowner := &mockShutdowner{}

		w := &baseWorker{
			name:       "test-worker",
			log:        zap.NewNop(),
			shutdowner: shutdowner,
			options:    Options{ShutdownOnError: true},
			runFunc: func(ctx context.Context) error {
				return errors.New("boom")
			},
		}

		w.Start()
		w.Stop()

		assert.Eventually(t, shutdowner.shutdownCalled.Load, time.Second, 10*time.Millisecond)
	})

	t.Run("fatal error without shutdown option does not shut down", func(t *testing.T) {
		shutdowner := &mockShutdowner{}

		w := &baseWorker{
			name:       "test-worker",
			log:        zap.NewNop(),
			shutdowner: shutdowner,
			runFunc: func(ctx context.Context) error {
				return errors.New("boom")
			},
		}

		w.Start()
		w.Stop()

		assert.False(t, shutdowner.shutdownCalled.Load())
	})
}
