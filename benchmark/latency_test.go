package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyHistogram(t *testing.T) {
	h := NewLatencyHistogram()
	assert.Zero(t, h.Quantile(50))
	assert.Zero(t, h.Mean())

	for i := 1; i <= 100; i++ {
		h.Record(time.Duration(i) * time.Millisecond)
	}

	assert.InDelta(t, float64(50*time.Millisecond), float64(h.Quantile(50)), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(h.Quantile(99)), float64(time.Millisecond))
	assert.InDelta(t, float64(50500*time.Microsecond), float64(h.Mean()), float64(time.Millisecond))
}

func TestLatencyHistogramClamps(t *testing.T) {
	h := NewLatencyHistogram()
	h.Record(0)
	h.Record(2 * time.Hour)
	assert.Equal(t, time.Microsecond, h.Quantile(50))
	assert.InEpsilon(t, float64(time.Hour), float64(h.Quantile(100)), 0.01)
}
