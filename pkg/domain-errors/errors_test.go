package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeNotFound, "booker not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(CodeConflict, "already actioned"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("matches nested domain errors", func(t *testing.T) {
		err := Wrap(New(CodeValidation, "bad"), CodeInternal, "outer")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestErrorsIsComparesCodeAndMessage(t *testing.T) {
	err := Wrap(errors.New("db down"), CodeUnavailable, "prisoner search unavailable")
	assert.ErrorIs(t, err, New(CodeUnavailable, "prisoner search unavailable"))
	assert.NotErrorIs(t, err, New(CodeUnavailable, "something else"))
	assert.Equal(t, "prisoner search unavailable", MessageOf(err))
}
