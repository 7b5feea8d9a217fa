package uerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreservesKindForErrorsIs(t *testing.T) {
	err := New(Inconsistent, "pbase.Load", "siblings sum to %.2f", 1.4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistent))
	assert.False(t, errors.Is(err, ErrTreeError))
}

func TestOfAndIsHelpers(t *testing.T) {
	assert.Equal(t, OK, Of(nil))
	assert.Equal(t, OK, Of(fmt.Errorf("plain")))
	err := New(TooFewAlts, "frame.CreateFlat", "need at least 2 alternatives")
	assert.Equal(t, TooFewAlts, Of(err))
	assert.True(t, Is(err, TooFewAlts))
	assert.False(t, Is(err, TooManyAlts))
}

func TestErrorMessageIncludesOpAndKind(t *testing.T) {
	err := New(NotAllowed, "car.SetWBase", "partial hull is open")
	assert.Contains(t, err.Error(), "car.SetWBase")
	assert.Contains(t, err.Error(), "not-allowed")
	assert.Contains(t, err.Error(), "partial hull is open")
}

func TestKindStringFallsBackForUnknown(t *testing.T) {
	var k Kind = 999
	assert.Contains(t, k.String(), "uerr.Kind(999)")
}
