package harness

import (
	"fmt"
	"time"
)

// Measure calls fn(in) inside a memory-traced, timed window and returns
// fn's output untouched alongside a Result tagged with name. The window
// covers the call only. If fn fails, its error is returned and no Result is
// produced.
func Measure[In, Out any](name string, fn func(In) (Out, error), in In) (Out, Result, error) {
	var (
		tracer Tracer
		zero   Out
	)

	if err := tracer.Start(); err != nil {
		return zero, Result{}, fmt.Errorf("measure %s: %w", name, err)
	}

	start := time.Now()
	out, err := fn(in)
	elapsed := time.Since(start)

	peak, stopErr := tracer.Stop()

	if err != nil {
		return zero, Result{}, fmt.Errorf("measure %s: %w", name, err)
	}

	if stopErr != nil {
		return zero, Result{}, fmt.Errorf("measure %s: %w", name, stopErr)
	}

	return out, Result{
		Function:       name,
		ElapsedSeconds: elapsed.Seconds(),
		PeakMemoryMB:   float64(peak) / BytesPerMegabyte,
	}, nil
}
