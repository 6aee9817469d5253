package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	base := New(CodeNotFound, "circle not found")

	assert.True(t, HasCode(base, CodeNotFound))
	assert.False(t, HasCode(base, CodeConflict))

	wrapped := fmt.Errorf("load circle: %w", base)
	assert.True(t, HasCode(wrapped, CodeNotFound))

	rewrapped := Wrap(wrapped, CodeInternal, "store failure")
	assert.True(t, HasCode(rewrapped, CodeInternal))
}

func TestErrorsIs(t *testing.T) {
	sentinel := New(CodeForbidden, "not the creator")

	err := Wrap(errors.New("db says no"), CodeInternal, "boom")
	assert.False(t, errors.Is(err, sentinel))

	same := New(CodeForbidden, "not the creator")
	assert.True(t, errors.Is(same, sentinel))

	wrapped := fmt.Errorf("activate: %w", same)
	assert.True(t, errors.Is(wrapped, sentinel))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "dup")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "ledger unreachable")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
