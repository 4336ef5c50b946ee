package harness

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weiihann/flatbench/flatten"
	"github.com/weiihann/flatbench/workload"
)

const tracerName = "github.com/weiihann/flatbench/harness"

// Task identifies one candidate run at one input size. Doc is the shared
// generated document; measurers must not hand it to a candidate directly.
type Task struct {
	Suite      string
	Candidate  flatten.Candidate
	NumPlayers int
	Doc        workload.Document
}

// Measurer produces the Result for a single task.
type Measurer interface {
	MeasureTask(ctx context.Context, task Task) (Result, error)
}

// InProcess measures candidates on the calling goroutine.
type InProcess struct{}

// MeasureTask clones the document, collects garbage left by earlier
// candidates and measures the candidate on its private copy.
func (InProcess) MeasureTask(_ context.Context, task Task) (Result, error) {
	input := task.Doc.Clone()
	runtime.GC()

	rows, res, err := Measure(task.Candidate.Name, task.Candidate.Fn, input)
	if err != nil {
		return Result{}, err
	}

	res.Suite = task.Suite
	res.InputSize = task.NumPlayers
	res.Rows = len(rows)

	return res, nil
}

// Runner benchmarks every candidate of a suite, one input size at a time.
type Runner struct {
	Suite     flatten.Suite
	Collector *Collector
	Measurer  Measurer
	Logger    *slog.Logger

	tracer trace.Tracer
}

// NewRunner creates a Runner for suite. A nil measurer means InProcess and a
// nil logger means slog.Default.
func NewRunner(
	suite flatten.Suite,
	collector *Collector,
	measurer Measurer,
	logger *slog.Logger,
) *Runner {
	if collector == nil {
		collector = NewCollector(nil)
	}

	if measurer == nil {
		measurer = InProcess{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		Suite:     suite,
		Collector: collector,
		Measurer:  measurer,
		Logger:    logger.With(slog.String("suite", suite.Name)),
		tracer:    otel.Tracer(tracerName),
	}
}

// RunSweep resets the collector and measures every candidate against a
// freshly generated match of numPlayers players. The first failing
// candidate aborts the sweep: a partial sweep would skew any comparison
// built from it. The context is checked between candidates only.
func (r *Runner) RunSweep(ctx context.Context, numPlayers int) ([]Result, error) {
	r.Collector.Reset()

	match, err := workload.Generate(numPlayers)
	if err != nil {
		return nil, fmt.Errorf("generate match: %w", err)
	}

	doc := match.Document()

	ctx, span := r.tracer.Start(ctx, "sweep", trace.WithAttributes(
		attribute.String("suite", r.Suite.Name),
		attribute.Int("input_size", numPlayers),
	))
	defer span.End()

	r.Logger.InfoContext(ctx, "starting sweep",
		slog.Int("players", numPlayers),
		slog.Int("candidates", len(r.Suite.Candidates)),
	)

	for _, c := range r.Suite.Candidates {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())

			return nil, fmt.Errorf("sweep %d: %w", numPlayers, err)
		}

		res, err := r.measure(ctx, Task{
			Suite:      r.Suite.Name,
			Candidate:  c,
			NumPlayers: numPlayers,
			Doc:        doc,
		})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())

			return nil, fmt.Errorf("sweep %d: %w", numPlayers, err)
		}

		r.Collector.Record(res)
	}

	return r.Collector.Results(), nil
}

func (r *Runner) measure(ctx context.Context, task Task) (Result, error) {
	_, span := r.tracer.Start(ctx, task.Candidate.Name)
	defer span.End()

	res, err := r.Measurer.MeasureTask(ctx, task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return Result{}, err
	}

	span.SetAttributes(
		attribute.Float64("elapsed_seconds", res.ElapsedSeconds),
		attribute.Float64("peak_memory_megabytes", res.PeakMemoryMB),
		attribute.Int("rows", res.Rows),
	)

	r.Logger.DebugContext(ctx, "candidate measured",
		slog.String("function", res.Function),
		slog.Int("players", res.InputSize),
		slog.Float64("elapsed_seconds", res.ElapsedSeconds),
		slog.Float64("peak_memory_mb", res.PeakMemoryMB),
	)

	return res, nil
}

// Run performs one sweep per size, in order, and returns them all.
func (r *Runner) Run(ctx context.Context, sizes []int) ([]Sweep, error) {
	sweeps := make([]Sweep, 0, len(sizes))

	for _, n := range sizes {
		results, err := r.RunSweep(ctx, n)
		if err != nil {
			return nil, err
		}

		sweeps = append(sweeps, Sweep{InputSize: n, Results: results})
	}

	return sweeps, nil
}
