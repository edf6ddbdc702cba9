package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	ok := NewValueResult("hi")
	v, err := ok.Value()
	assert.NoError(t, err)
	assert.Equal(t, "hi", v)
	assert.True(t, ok.Ok())

	failed := NewErrorResult[string](assert.AnError)
	assert.False(t, failed.Ok())
	assert.ErrorIs(t, failed.Error(), assert.AnError)
}

func TestToPointer(t *testing.T) {
	p := ToPointer(int64(42))
	assert.Equal(t, int64(42), *p)
}
