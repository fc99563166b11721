package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrNotFound, "Lesson not found.")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Lesson not found.", err.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to list users")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "failed to list users: connection reset", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	apiErr := FromError(fmt.Errorf("outer: %w", ErrSessionExpired))
	assert.Equal(t, StatusSessionExpired, apiErr.Status)

	unknown := FromError(errors.New("boom"))
	require.NotNil(t, unknown)
	assert.Equal(t, http.StatusInternalServerError, unknown.Status)
	assert.Equal(t, "INTERNAL_ERROR", unknown.Code)
	assert.Equal(t, ErrInternal.Message, unknown.Message)
}

func TestWithDetails(t *testing.T) {
	details := []map[string]string{{"field": "sort", "message": "unsupported field"}}
	err := WithDetails(ErrValidation, "invalid query", details)

	assert.Equal(t, details, err.Details)
	assert.Nil(t, ErrValidation.Details)
	assert.Nil(t, WithDetails(nil, "x", details))
}
