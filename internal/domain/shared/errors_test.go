package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	t.Run("kind follows constructor", func(t *testing.T) {
		assert.Equal(t, KindValidation, KindOf(NewValidationError("x")))
		assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("supplier", 1)))
		assert.Equal(t, KindVersionConflict, KindOf(NewVersionConflictError(1, 2)))
		assert.Equal(t, KindInvalidTransition, KindOf(NewInvalidTransitionError("x")))
		assert.Equal(t, KindConflict, KindOf(NewConflictError("x")))
		assert.Equal(t, KindDependencyUnavailable, KindOf(NewDependencyUnavailableError("inventory", errors.New("down"))))
		assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	})

	t.Run("matches sentinels through wrapping", func(t *testing.T) {
		err := fmt.Errorf("update supplier: %w", NewVersionConflictError(1, 3))
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, NewValidationError("name is required"), ErrValidation)
		assert.Equal(t, KindVersionConflict, KindOf(err))
	})

	t.Run("exposes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewDependencyUnavailableError("inventory service", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("business codes default to validation", func(t *testing.T) {
		err := NewDomainError("INVALID_SKU", "bad sku")
		assert.Equal(t, KindValidation, err.Kind)
		assert.Equal(t, KindConflict, NewDomainError(CodeConflict, "dup").Kind)
	})
}
