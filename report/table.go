package report

import (
	"slices"
	"sort"

	"github.com/weiihann/flatbench/harness"
)

// Table is an ordered set of results, usually one or more sweeps.
type Table []harness.Result

// FromSweeps concatenates the results of every sweep in order.
func FromSweeps(sweeps []harness.Sweep) Table {
	tables := make([]Table, 0, len(sweeps))
	for _, s := range sweeps {
		tables = append(tables, Table(s.Results))
	}

	return Concat(tables...)
}

// Concat joins tables into a new one.
func Concat(tables ...Table) Table {
	n := 0
	for _, t := range tables {
		n += len(t)
	}

	out := make(Table, 0, n)
	for _, t := range tables {
		out = append(out, t...)
	}

	return out
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t) }

// SortByMemory returns a copy ordered by peak memory, lowest first.
func (t Table) SortByMemory() Table {
	return t.sorted(func(a, b harness.Result) bool {
		return a.PeakMemoryMB < b.PeakMemoryMB
	})
}

// SortByTime returns a copy ordered by elapsed time, fastest first.
func (t Table) SortByTime() Table {
	return t.sorted(func(a, b harness.Result) bool {
		return a.ElapsedSeconds < b.ElapsedSeconds
	})
}

// SortBySizeThenMemory returns a copy ordered by input size, then by peak
// memory within each size.
func (t Table) SortBySizeThenMemory() Table {
	return t.sorted(func(a, b harness.Result) bool {
		if a.InputSize != b.InputSize {
			return a.InputSize < b.InputSize
		}

		return a.PeakMemoryMB < b.PeakMemoryMB
	})
}

// Sizes returns the distinct input sizes in ascending order.
func (t Table) Sizes() []int {
	var sizes []int
	for _, r := range t {
		if !slices.Contains(sizes, r.InputSize) {
			sizes = append(sizes, r.InputSize)
		}
	}

	sort.Ints(sizes)

	return sizes
}

// ForSize returns the rows for one input size, in table order.
func (t Table) ForSize(size int) Table {
	var out Table
	for _, r := range t {
		if r.InputSize == size {
			out = append(out, r)
		}
	}

	return out
}

func (t Table) sorted(less func(a, b harness.Result) bool) Table {
	out := Concat(t)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	return out
}
