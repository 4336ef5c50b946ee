package harness

import (
	"errors"
	"runtime"
	"runtime/debug"
)

// Tracer errors. Either one means the measurement cannot be trusted.
var (
	ErrTracerInactive = errors.New("memory tracer not active")
	ErrTracerActive   = errors.New("memory tracer already active")
)

// Tracer records heap allocation over a window. Start forces a collection
// and switches the collector off; Stop switches it back on. With nothing
// freed inside the window, the bytes allocated between Start and Stop are
// the peak heap growth the window caused, independent of anything measured
// before it.
//
// A Tracer is not safe for concurrent use, and allocations made by other
// goroutines during the window are attributed to it.
type Tracer struct {
	active    bool
	gcPercent int
	baseline  uint64
}

// Start opens the window.
func (t *Tracer) Start() error {
	if t.active {
		return ErrTracerActive
	}

	runtime.GC()
	t.gcPercent = debug.SetGCPercent(-1)
	t.baseline = totalAlloc()
	t.active = true

	return nil
}

// Stop closes the window and returns the bytes allocated inside it.
func (t *Tracer) Stop() (uint64, error) {
	if !t.active {
		return 0, ErrTracerInactive
	}

	end := totalAlloc()
	debug.SetGCPercent(t.gcPercent)
	t.active = false

	if end < t.baseline {
		return 0, nil
	}

	return end - t.baseline, nil
}

// Active reports whether a window is open.
func (t *Tracer) Active() bool {
	return t.active
}

func totalAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return ms.TotalAlloc
}
