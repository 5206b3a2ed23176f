package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGet(t *testing.T) {
	t.Run("returns logger from context", func(t *testing.T) {
		log := zap.NewNop()
		ctx := With(context.Background(), log)

		assert.Same(t, log, Get(ctx))
	})

	t.Run("returns global logger when context has none", func(t *testing.T) {
		assert.NotNil(t, Get(context.Background()))
	})

	t.Run("safe with nil context", func(t *testing.T) {
		assert.NotNil(t, Get(nil))
	})
}

func TestWith(t *testing.T) {
	t.Run("nil context is replaced with background", func(t *testing.T) {
		log := zap.NewNop()
		ctx := With(nil, log)

		assert.NotNil(t, ctx)
		assert.Same(t, log, Get(ctx))
	})

	t.Run("nested loggers shadow outer ones", func(t *testing.T) {
		outer := zap.NewNop()
		inner := zap.NewNop().With(zap.String("component", "inner"))

		ctx := With(context.Background(), outer)
		ctx = With(ctx, inner)

		assert.Same(t, inner, Get(ctx))
	})
}
