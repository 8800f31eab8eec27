package benchmark

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// ExecutorConfig bounds the worker pool and the wait for each operation
type ExecutorConfig struct {
	Workers   int           // concurrent workers
	OpTimeout time.Duration // max wait per operation, 0 waits forever
}

// Outcome is the completion status of one operation
type Outcome struct {
	Kind     OpKind
	Success  bool
	TimedOut bool
	Skipped  bool // never sent to the database because the run was aborted
	Err      error
	Latency  time.Duration
}

// ExecutionSummary groups the outcomes of one schedule
type ExecutionSummary struct {
	Ops          int
	Completed    int // returned within the timeout, successfully or not
	Failed       int // returned an adapter error
	TimedOut     int // includes operations skipped after the first timeout
	Skipped      int
	TotalElapsed time.Duration
	AnyTimeout   bool
	Throughput   float64       // ops per second, 0 when any operation timed out
	AvgLatency   time.Duration // elapsed / ops, the timeout when any operation timed out
	MeanLatency  time.Duration // mean of completed operations
	P50          time.Duration
	P95          time.Duration
	P99          time.Duration
}

// Execute runs the schedule against db on a pool of cfg.Workers workers and
// blocks until every admitted operation has completed or timed out.
//
// Each operation runs in its own goroutine; the worker stops waiting after
// cfg.OpTimeout and moves on. A timed-out call is abandoned, not killed, so it
// may outlive Execute. Operations are never retried.
//
// The first timeout, or ctx being cancelled, stops admission: operations not
// yet handed to a worker are skipped without calling db, so a stuck backend
// costs roughly one timeout per run instead of one per queued operation.
func Execute(ctx context.Context, schedule Schedule, db Database, cfg ExecutorConfig, observer OpObserver) ExecutionSummary {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan Operation)
	outcomes := make(chan Outcome, workers*2)
	var wg sync.WaitGroup
	var finished atomic.Uint64

	// abort is closed once; abortCause is written before the close
	abort := make(chan struct{})
	var abortOnce sync.Once
	var abortCause error
	stop := func(cause error) {
		abortOnce.Do(func() {
			abortCause = cause
			close(abort)
		})
	}
	if err := ctx.Err(); err != nil {
		stop(err)
	}

	start := time.Now()

	// Feed operations to workers until the run is aborted
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, op := range schedule {
			select {
			case jobs <- op:
			case <-abort:
				for _, rest := range schedule[i:] {
					outcomes <- skippedOutcome(rest, abortCause)
					finished.Add(1)
				}
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for op := range jobs {
				if err := ctx.Err(); err != nil {
					stop(err)
				}
				select {
				case <-abort:
					outcomes <- skippedOutcome(op, abortCause)
					finished.Add(1)
					continue
				default:
				}

				out := runOperation(ctx, db, op, cfg.OpTimeout)
				if out.TimedOut {
					stop(context.DeadlineExceeded)
				}
				outcomes <- out
				finished.Add(1)
			}
		}()
	}

	// Collect outcomes
	hist := NewLatencyHistogram()
	summary := ExecutionSummary{Ops: len(schedule)}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for out := range outcomes {
			if observer != nil {
				observer.ObserveOp(out)
			}
			if out.Skipped {
				summary.Skipped++
			}
			if out.TimedOut {
				summary.TimedOut++
				summary.AnyTimeout = true
				continue
			}
			if out.Skipped {
				continue
			}
			summary.Completed++
			if !out.Success {
				summary.Failed++
			}
			hist.Record(out.Latency)
		}
	}()

	// print progress every second and stop admission on cancellation
	chDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-chDone:
				return
			case <-ctx.Done():
				stop(ctx.Err())
				<-chDone
				return
			case <-ticker.C:
				log.Info().
					Uint64("finished", finished.Load()).
					Int("total", len(schedule)).
					Msg("Operations in progress")
			}
		}
	}()

	wg.Wait()
	summary.TotalElapsed = time.Since(start)
	close(chDone)
	close(outcomes)
	<-collected

	if summary.AnyTimeout {
		summary.Throughput = 0
		summary.AvgLatency = cfg.OpTimeout
	} else if summary.Ops > 0 && summary.TotalElapsed > 0 {
		summary.Throughput = float64(summary.Ops) / summary.TotalElapsed.Seconds()
		summary.AvgLatency = summary.TotalElapsed / time.Duration(summary.Ops)
	}
	summary.MeanLatency = hist.Mean()
	summary.P50 = hist.Quantile(50)
	summary.P95 = hist.Quantile(95)
	summary.P99 = hist.Quantile(99)

	return summary
}

// skippedOutcome reports an operation that was never handed to the database.
// After a timeout it counts as timed out; after cancellation it does not.
func skippedOutcome(op Operation, cause error) Outcome {
	return Outcome{
		Kind:     op.Kind,
		Skipped:  true,
		TimedOut: errors.Is(cause, context.DeadlineExceeded),
		Err:      cause,
	}
}

// runOperation calls db and waits at most timeout for the result
func runOperation(ctx context.Context, db Database, op Operation, timeout time.Duration) Outcome {
	opCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// buffered so an abandoned call can still deliver and exit
	done := make(chan error, 1)
	begin := time.Now()
	go func() {
		done <- callDatabase(opCtx, db, op)
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		out := Outcome{Kind: op.Kind, Latency: time.Since(begin), Err: err, Success: err == nil}
		if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
			out.TimedOut = true
		}
		return out
	case <-expired:
		log.Debug().Str("kind", op.Kind.String()).Dur("timeout", timeout).Msg("Operation timed out")
		return Outcome{Kind: op.Kind, TimedOut: true, Latency: timeout, Err: context.DeadlineExceeded}
	}
}

func callDatabase(ctx context.Context, db Database, op Operation) error {
	switch op.Kind {
	case OpWrite:
		return db.Insert(ctx, *op.Doc)
	default:
		// a miss still completes the attempt
		if err := db.Read(ctx); err != nil && !IsKeyNotFound(err) {
			return err
		}
		return nil
	}
}
