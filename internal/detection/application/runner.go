package application

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	alerts "predictive-maintenance/internal/alerts/domain"
	detection "predictive-maintenance/internal/detection/domain"
	"predictive-maintenance/internal/observability/metrics"
	sensors "predictive-maintenance/internal/sensors/domain"
)

// DefaultChunkSize is the number of rows processed between pauses in
// chunked mode.
const DefaultChunkSize = 100

// Sink receives alert records in emission order. A sink error is reported
// and counted but never halts the run: the window state has already
// advanced past the reading.
type Sink interface {
	Emit(ctx context.Context, record alerts.Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, record alerts.Record) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, record alerts.Record) error {
	return f(ctx, record)
}

// RejectHandler observes readings rejected at the validation boundary.
type RejectHandler func(reading sensors.Reading, err error)

// Summary captures the outcome of one run.
type Summary struct {
	Processed  int
	Anomalies  int
	Rejected   int
	SinkErrors int
	Chunks     int
	Duration   time.Duration
}

// Runner drives the per-reading pipeline: validate, query prior stats,
// classify, update window, emit. It supports full-batch and chunked
// (simulated streaming) execution with identical computed output.
type Runner struct {
	store      *detection.WindowStore
	classifier *detection.Classifier
	sink       Sink
	logger     *log.Logger
	onReject   RejectHandler
	workers    int
}

// Option customizes the runner.
type Option func(*Runner)

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRejectHandler assigns a callback for per-reading validation failures.
func WithRejectHandler(handler RejectHandler) Option {
	return func(r *Runner) {
		r.onReject = handler
	}
}

// WithWorkers shards processing by machine id across n workers. Output order
// and per-machine results are identical to single-threaded processing.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRunner constructs a runner.
func NewRunner(store *detection.WindowStore, classifier *detection.Classifier, sink Sink, opts ...Option) (*Runner, error) {
	if store == nil {
		return nil, errors.New("runner: nil window store")
	}
	if classifier == nil {
		return nil, errors.New("runner: nil classifier")
	}
	if sink == nil {
		return nil, errors.New("runner: nil sink")
	}
	r := &Runner{
		store:      store,
		classifier: classifier,
		sink:       sink,
		logger:     log.Default(),
		workers:    1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Process runs one reading through the full pipeline and emits the record.
// The query-classify-update sequence is never split: by the time the record
// is built, the window already contains the reading.
func (r *Runner) Process(ctx context.Context, reading sensors.Reading) (alerts.Record, error) {
	record, err := r.evaluate(reading)
	if err != nil {
		metrics.IncReadingRejected("invalid")
		if r.onReject != nil {
			r.onReject(reading, err)
		}
		return alerts.Record{}, err
	}
	r.observe(record)
	if err := r.sink.Emit(ctx, record); err != nil {
		metrics.IncSinkError()
		r.logf("event=sink_error machine_id=%d error=%v", record.MachineID, err)
	}
	return record, nil
}

// evaluate performs validate -> query -> classify -> update -> build record.
func (r *Runner) evaluate(reading sensors.Reading) (alerts.Record, error) {
	if err := reading.Validate(); err != nil {
		return alerts.Record{}, err
	}

	stats, ok := r.store.Query(reading.MachineID)
	var avgTemp, avgVib *float64
	if ok {
		t, v := stats.AvgTemperature, stats.AvgVibration
		avgTemp, avgVib = &t, &v
	}

	status := r.classifier.Classify(reading.Temperature, reading.Vibration, avgTemp, avgVib)

	r.store.Update(reading.MachineID, reading)

	// Deviations fall back to 0 for display when no average exists; the
	// classifier above has already skipped the spike checks in that case.
	record := alerts.Record{
		MachineID:      reading.MachineID,
		Timestamp:      reading.Timestamp,
		Temperature:    reading.Temperature,
		Vibration:      reading.Vibration,
		AvgTemperature: avgTemp,
		AvgVibration:   avgVib,
		Status:         status,
	}
	if avgTemp != nil {
		record.TemperatureDeviation = math.Abs(reading.Temperature - *avgTemp)
	}
	if avgVib != nil {
		record.VibrationDeviation = math.Abs(reading.Vibration - *avgVib)
	}
	return record, nil
}

// Run processes every reading in input order with no pacing and emits one
// record per valid reading, in the same order.
func (r *Runner) Run(ctx context.Context, readings []sensors.Reading) (Summary, error) {
	start := time.Now()
	summary := Summary{Chunks: 1}
	if err := r.runChunk(ctx, readings, &summary); err != nil {
		summary.Duration = time.Since(start)
		return summary, err
	}
	summary.Duration = time.Since(start)
	r.logf("event=run_complete mode=batch processed=%d anomalies=%d rejected=%d sink_errors=%d duration=%s",
		summary.Processed, summary.Anomalies, summary.Rejected, summary.SinkErrors, summary.Duration)
	return summary, nil
}

// RunChunked partitions the input into fixed-size chunks in original order,
// pausing between chunks to emulate arrival cadence. Computed records are
// identical to Run for the same input; only emission timing differs.
func (r *Runner) RunChunked(ctx context.Context, readings []sensors.Reading, chunkSize int, delay time.Duration) (Summary, error) {
	start := time.Now()
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var summary Summary
	for offset := 0; offset < len(readings); offset += chunkSize {
		end := offset + chunkSize
		if end > len(readings) {
			end = len(readings)
		}
		chunkStart := time.Now()
		if err := r.runChunk(ctx, readings[offset:end], &summary); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		summary.Chunks++
		metrics.ObserveChunk(end-offset, time.Since(chunkStart))
		r.logf("event=chunk_processed chunk=%d rows=%d", summary.Chunks, end-offset)

		if end < len(readings) && delay > 0 {
			select {
			case <-ctx.Done():
				summary.Duration = time.Since(start)
				return summary, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	summary.Duration = time.Since(start)
	r.logf("event=run_complete mode=chunked processed=%d anomalies=%d rejected=%d sink_errors=%d chunks=%d duration=%s",
		summary.Processed, summary.Anomalies, summary.Rejected, summary.SinkErrors, summary.Chunks, summary.Duration)
	return summary, nil
}

// runChunk evaluates one group of readings and emits the surviving records
// in input order. Cancellation is honored between readings only; a single
// reading's query-update sequence always completes once started.
func (r *Runner) runChunk(ctx context.Context, readings []sensors.Reading, summary *Summary) error {
	type outcome struct {
		record alerts.Record
		err    error
	}
	outcomes := make([]outcome, len(readings))

	if r.workers <= 1 {
		for i, reading := range readings {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := r.evaluate(reading)
			outcomes[i] = outcome{record: record, err: err}
		}
	} else {
		// One shard per worker, keyed by machine id: every machine's
		// readings stay on a single goroutine in arrival order.
		var wg sync.WaitGroup
		for w := 0; w < r.workers; w++ {
			wg.Add(1)
			go func(shard int) {
				defer wg.Done()
				for i, reading := range readings {
					if machineShard(reading.MachineID, r.workers) != shard {
						continue
					}
					if ctx.Err() != nil {
						return
					}
					record, err := r.evaluate(reading)
					outcomes[i] = outcome{record: record, err: err}
				}
			}(w)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	for i, out := range outcomes {
		if out.err != nil {
			summary.Rejected++
			metrics.IncReadingRejected("invalid")
			if r.onReject != nil {
				r.onReject(readings[i], out.err)
			}
			continue
		}
		r.observe(out.record)
		summary.Processed++
		if out.record.Anomalous() {
			summary.Anomalies++
		}
		if err := r.sink.Emit(ctx, out.record); err != nil {
			summary.SinkErrors++
			metrics.IncSinkError()
			r.logf("event=sink_error machine_id=%d error=%v", out.record.MachineID, err)
		}
	}
	return nil
}

func (r *Runner) observe(record alerts.Record) {
	metrics.IncReadingProcessed()
	metrics.IncAlert(record.Severity())
}

func (r *Runner) logf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

func machineShard(machineID, workers int) int {
	shard := machineID % workers
	if shard < 0 {
		shard += workers
	}
	return shard
}
