// Package harness measures flattening candidates: it times each call,
// records the heap growth attributable to it, and accumulates one Result per
// invocation for the caller to aggregate.
package harness

// BytesPerMegabyte converts traced bytes to the reported megabytes.
const BytesPerMegabyte = 1e6

// Result is one measured invocation of a candidate.
type Result struct {
	Suite          string  `json:"suite,omitempty"`
	Function       string  `json:"function_name"`
	InputSize      int     `json:"input_size"`
	Rows           int     `json:"rows,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	PeakMemoryMB   float64 `json:"peak_memory_megabytes"`
}

// Sweep holds the results of every candidate in a suite for one input size.
type Sweep struct {
	InputSize int
	Results   []Result
}
