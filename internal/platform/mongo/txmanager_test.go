package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientError(t *testing.T) {
	t.Run("nil error is not transient", func(t *testing.T) {
		assert.False(t, isTransientError(nil))
	})

	t.Run("plain error is not transient", func(t *testing.T) {
		assert.False(t, isTransientError(errors.New("boom")))
	})
}
