package benchmark

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// DefaultSampleInterval is the cadence of the metrics sampler
const DefaultSampleInterval = time.Second

// MetricSample is one snapshot of host resource usage.
// Disk and network values are the host's cumulative counters.
type MetricSample struct {
	Timestamp      time.Time
	CPUPct         float64
	MemPct         float64
	DiskReadBytes  uint64
	DiskWriteBytes uint64
	NetSentBytes   uint64
	NetRecvBytes   uint64
}

// MetricAverages holds the per-field arithmetic means of a sample sequence
type MetricAverages struct {
	CPU       float64
	Memory    float64
	DiskRead  float64
	DiskWrite float64
	NetSent   float64
	NetRecv   float64
}

// Collector takes a single metric sample
type Collector interface {
	Collect(ctx context.Context) (MetricSample, error)
}

// HostCollector reads host counters with gopsutil
type HostCollector struct{}

// Collect implements Collector
func (HostCollector) Collect(ctx context.Context) (MetricSample, error) {
	s := MetricSample{Timestamp: time.Now()}

	cpuPct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return s, err
	}
	if len(cpuPct) > 0 {
		s.CPUPct = cpuPct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, err
	}
	s.MemPct = vm.UsedPercent

	diskIO, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return s, err
	}
	for _, d := range diskIO {
		s.DiskReadBytes += d.ReadBytes
		s.DiskWriteBytes += d.WriteBytes
	}

	netIO, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return s, err
	}
	if len(netIO) > 0 {
		s.NetSentBytes = netIO[0].BytesSent
		s.NetRecvBytes = netIO[0].BytesRecv
	}

	return s, nil
}

// Sampler collects metric samples in the background between Start and Stop.
// The sampling goroutine owns the sample sequence and hands it over on a
// channel when it exits, so Stop never races with a sample being appended.
type Sampler struct {
	collector Collector
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	result  chan []MetricSample
	samples []MetricSample
}

// NewSampler creates an idle sampler. A zero interval means DefaultSampleInterval
// and a nil collector means HostCollector.
func NewSampler(collector Collector, interval time.Duration) *Sampler {
	if collector == nil {
		collector = HostCollector{}
	}
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Sampler{collector: collector, interval: interval}
}

// Start takes the first sample right away and then samples every interval.
// Calling Start on a running sampler only logs a warning.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn().Msg("Metrics sampler already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.result = make(chan []MetricSample, 1)
	s.samples = nil
	s.running = true

	var initial []MetricSample
	if sample, err := s.collector.Collect(ctx); err != nil {
		log.Warn().Err(err).Msg("Metric sample failed")
	} else {
		initial = append(initial, sample)
	}

	go s.loop(ctx, initial, s.result)
}

func (s *Sampler) loop(ctx context.Context, samples []MetricSample, out chan<- []MetricSample) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			out <- samples
			return
		case <-ticker.C:
			sample, err := s.collector.Collect(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("Metric sample failed")
				}
				continue
			}
			samples = append(samples, sample)
		}
	}
}

// Stop ends sampling and waits for the sampling goroutine to exit
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	s.samples = <-s.result
	s.running = false
}

// Running reports whether the sampler is between Start and Stop
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Samples returns a copy of the samples of the last completed run
func (s *Sampler) Samples() []MetricSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MetricSample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Average reduces the last completed run to per-field means.
// It returns false when every sample of the run failed.
func (s *Sampler) Average() (MetricAverages, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AverageSamples(s.samples)
}

// AverageSamples computes per-field means, false for an empty sequence
func AverageSamples(samples []MetricSample) (MetricAverages, bool) {
	if len(samples) == 0 {
		return MetricAverages{}, false
	}

	var avg MetricAverages
	for _, m := range samples {
		avg.CPU += m.CPUPct
		avg.Memory += m.MemPct
		avg.DiskRead += float64(m.DiskReadBytes)
		avg.DiskWrite += float64(m.DiskWriteBytes)
		avg.NetSent += float64(m.NetSentBytes)
		avg.NetRecv += float64(m.NetRecvBytes)
	}
	n := float64(len(samples))
	avg.CPU /= n
	avg.Memory /= n
	avg.DiskRead /= n
	avg.DiskWrite /= n
	avg.NetSent /= n
	avg.NetRecv /= n
	return avg, true
}
