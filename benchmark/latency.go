package benchmark

import (
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

const (
	minTrackableLatency = time.Microsecond
	maxTrackableLatency = time.Hour
)

// LatencyHistogram collects per-operation latencies in microseconds.
// Safe for concurrent use.
type LatencyHistogram struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewLatencyHistogram tracks latencies between 1µs and 1h with 3 significant digits
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{
		hist: hdrhistogram.New(minTrackableLatency.Microseconds(), maxTrackableLatency.Microseconds(), 3),
	}
}

// Record adds one latency, clamped into the trackable range
func (h *LatencyHistogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minTrackableLatency.Microseconds() {
		us = minTrackableLatency.Microseconds()
	}
	if us > maxTrackableLatency.Microseconds() {
		us = maxTrackableLatency.Microseconds()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.hist.RecordValue(us)
}

// Quantile returns the latency at q, with q in [0,100]
func (h *LatencyHistogram) Quantile(q float64) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(h.hist.ValueAtQuantile(q)) * time.Microsecond
}

// Mean returns the mean recorded latency
func (h *LatencyHistogram) Mean() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(h.hist.Mean() * float64(time.Microsecond))
}
