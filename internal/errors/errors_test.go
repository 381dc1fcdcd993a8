package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilderCarriesMetadata(t *testing.T) {
	base := NewStd("device read failed")

	err := New(base).
		Component("myaudio").
		Category(CategoryAudioCapture).
		Context("operation", "read_chunk").
		Context("sequence", 42).
		Build()

	require.Error(t, err)
	assert.Equal(t, "device read failed", err.Error())
	assert.Equal(t, "myaudio", err.Component)
	assert.Equal(t, CategoryAudioCapture, err.Category)
	assert.Equal(t, "read_chunk", err.GetContext()["operation"])
	assert.Equal(t, 42, err.GetContext()["sequence"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestUnwrapPreservesSentinel(t *testing.T) {
	sentinel := NewStd("filter is disabled")
	wrapped := New(fmt.Errorf("apply: %w", sentinel)).
		Category(CategoryAudioFilter).
		Build()

	assert.True(t, Is(wrapped, sentinel))
}

func TestIsMatchesByCategory(t *testing.T) {
	a := Newf("cutoff out of range").Category(CategoryConfiguration).Build()
	b := Newf("threshold out of range").Category(CategoryConfiguration).Build()
	c := Newf("encode failed").Category(CategoryAudioEncode).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestGetContextReturnsCopy(t *testing.T) {
	err := Newf("boom").Context("k", "v").Build()
	ctx := err.GetContext()
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}
