package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorIs(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("wrapped: %w", &ConfigError{Kind: InvalidOutput, Err: cause})

	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrUnknown)

	var cerr *ConfigError
	if assert.ErrorAs(t, err, &cerr) {
		assert.Equal(t, InvalidOutput, cerr.Kind)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	assert.Equal(t, "capture: session missing", ErrSessionMissing.Error())
	assert.Equal(t, "capture: invalid input: no device",
		(&ConfigError{Kind: InvalidInput, Err: errors.New("no device")}).Error())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
