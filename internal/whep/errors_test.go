package whep

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := newError(opEstablish, KindTransport, cause, "send offer")

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrEngine)

	wrapped := fmt.Errorf("outer: %w", err)
	assert.ErrorIs(t, wrapped, ErrTransport)
	assert.Equal(t, KindTransport, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	err := newError(opTerminate, KindTransport, nil, "endpoint refused delete")
	err.StatusCode = 404
	assert.Equal(t, "whep terminate: transport_error: endpoint refused delete (status 404)", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("x")))
	assert.Equal(t, "unknown", Kind(0).String())
}
