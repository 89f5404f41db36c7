package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := NotFound("post not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load feed: %w", Conflict("post changed"))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "post changed", MessageOf(err, "fallback"))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dynamo timeout")
	err := Internal("could not save user", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err, "Internal server error"))
	assert.Contains(t, err.Error(), "dynamo timeout")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "fallback", MessageOf(errors.New("boom"), "fallback"))
}

func TestFailure_ExposesMessage(t *testing.T) {
	err := Failure("Failed to send verification email. Please try again.", errors.New("smtp down"))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Failed to send verification email. Please try again.", MessageOf(err, "Internal server error"))
}
