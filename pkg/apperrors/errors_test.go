package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := NewTransportError("push failed", errors.New("connection refused")).
		WithTable("partners").
		WithOp("push")

	assert.Equal(t, "[transport] push failed (table=partners, op=push): connection refused", err.Error())

	bare := NewNotFoundError("partner 7 not found")
	assert.Equal(t, "[not_found] partner 7 not found", bare.Error())
}

func TestClassHelpers(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("failed to sync: %w", NewDataShapeError("empty sheet", cause))

	assert.True(t, IsDataShape(wrapped))
	assert.False(t, IsTransport(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ClassDataShape, ClassOf(wrapped))
	assert.Equal(t, Class(""), ClassOf(cause))
}

func TestIsMatchesClass(t *testing.T) {
	err := NewUserInputError("name is required", nil)
	assert.ErrorIs(t, err, &Error{Class: ClassUserInput})
	assert.NotErrorIs(t, err, &Error{Class: ClassForbidden})
	assert.True(t, IsForbidden(NewForbiddenError("admin only")))
	assert.True(t, IsMissingSchema(NewMissingSchemaError("no such column", nil)))
	assert.True(t, IsNotFound(NewNotFoundError("gone")))
}
