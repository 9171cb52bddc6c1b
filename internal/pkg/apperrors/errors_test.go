package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorUnwrap(t *testing.T) {
	err := NewForbiddenError("only the sender can delete a message")

	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Equal(t, "only the sender can delete a message", err.Error())

	wrapped := fmt.Errorf("delete message: %w", err)
	var custom *CustomError
	assert.True(t, errors.As(wrapped, &custom))
	assert.Equal(t, ErrPermissionDenied, custom.Err)
}

func TestCustomErrorFallbackMessage(t *testing.T) {
	assert.Equal(t, "conflict", NewCustomError(ErrConflict, "").Error())
	assert.Equal(t, "unknown error", (&CustomError{}).Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("invalid assignment", map[string]string{"title": "is required"})

	var custom *CustomError
	assert.True(t, errors.As(err, &custom))
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "is required", custom.Details["title"])
}

func TestIsMatchesAnyListedError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrCourseNotFound)

	assert.True(t, Is(err, ErrResourceNotFound, ErrUserNotFound, ErrCourseNotFound))
	assert.False(t, Is(err, ErrResourceNotFound, ErrUserNotFound))
}

func TestCustomErrorWithDetails(t *testing.T) {
	err := NewCustomError(ErrConflict, "title taken").WithDetails(map[string]interface{}{"title": "Lab 1"})

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "title taken", err.Error())
	assert.Equal(t, map[string]interface{}{"title": "Lab 1"}, err.Details)
}
