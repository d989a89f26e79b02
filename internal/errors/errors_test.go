package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodesUnique(t *testing.T) {
	codes := []string{ErrConfig, ErrSource, ErrStore, ErrSchema}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "message only",
			err:      New(ErrConfig, "Interval too short", ""),
			contains: []string{"✗ Interval too short"},
		},
		{
			name:     "message and suggestion",
			err:      New(ErrConfig, "History too small", "Use at least 2 points"),
			contains: []string{"✗ History too small", "Use at least 2 points"},
		},
		{
			name: "with cause",
			err: WrapWithCode(fmt.Errorf("disk I/O error"), ErrStore,
				"Failed to append measurement", "Check free space"),
			contains: []string{"✗ Failed to append measurement", "disk I/O error", "Check free space"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			assert.True(t, strings.HasPrefix(out, "✗ "))
		})
	}
}

func TestWrapDefaultsToSource(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(cause, "sensors failed")

	assert.Equal(t, ErrSource, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	schemaErr := WrapWithCode(errors.New("readonly"), ErrSchema, "Cannot migrate", "")
	wrapped := fmt.Errorf("startup: %w", schemaErr)

	assert.True(t, IsCode(schemaErr, ErrSchema))
	assert.True(t, IsCode(wrapped, ErrSchema))
	assert.False(t, IsCode(wrapped, ErrStore))
	assert.False(t, IsCode(nil, ErrSchema))
	assert.False(t, IsCode(errors.New("plain"), ErrSchema))

	var target *Error
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "Cannot migrate", target.Message)
}

func TestErrorLayout(t *testing.T) {
	err := WrapWithCode(errors.New("database is locked"), ErrStore, "Failed to append measurement", "Retry later")
	assert.Equal(t, "✗ Failed to append measurement\n\n  database is locked\n\n  Retry later\n", err.Error())
	assert.Equal(t, "✗ Sensors missing\n", New(ErrSource, "Sensors missing", "").Error())
}
