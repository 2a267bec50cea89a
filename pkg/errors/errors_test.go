package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrConflict, "Time slot is already booked")

	assert.Equal(t, "Time slot is already booked", err.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, "conflict", ErrConflict.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "appointment not found"))
	assert.Equal(t, ErrNotFound.Code, FromError(wrapped).Code)
	assert.True(t, HasCode(wrapped, ErrNotFound.Code))
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrValidation, map[string]string{"email": "must be a valid email"})
	assert.Equal(t, "must be a valid email", err.Details["email"])
	assert.Nil(t, ErrValidation.Details)
}
