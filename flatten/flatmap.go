package flatten

import (
	"iter"
	"slices"

	"github.com/weiihann/flatbench/workload"
)

// FlatMap is a single-level view of a nested map whose keys are the nested
// key paths joined by a delimiter.
type FlatMap map[string]any

// NewFlatMap flattens m. Nested maps are expanded recursively; every other
// value, including slices, is kept as is.
func NewFlatMap(m map[string]any, delimiter string) FlatMap {
	out := make(FlatMap, len(m))
	out.add(m, "", delimiter)

	return out
}

func (f FlatMap) add(m map[string]any, prefix, delimiter string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + delimiter + k
		}

		if nested, ok := v.(map[string]any); ok {
			f.add(nested, key, delimiter)

			continue
		}

		f[key] = v
	}
}

// FlatMapLoop flattens with a plain for loop, appending to a slice that
// grows as it goes.
func FlatMapLoop(doc workload.Document) ([]Row, error) {
	var rows []Row

	for _, p := range players(doc) {
		s := stats(p)
		delete(p, "match_stats")

		for k, v := range NewFlatMap(s, Separator) {
			p[k] = v
		}

		rows = append(rows, Row(p))
	}

	return rows, nil
}

// FlatMapPrealloc sizes the result up front and builds a fresh row per
// player from a copy of the player and its flattened statistics.
func FlatMapPrealloc(doc workload.Document) ([]Row, error) {
	list := players(doc)

	rows := make([]Row, 0, len(list))
	for _, p := range list {
		s := stats(p)
		delete(p, "match_stats")

		flat := NewFlatMap(s, Separator)

		row := make(Row, len(p)+len(flat))
		for k, v := range p {
			row[k] = v
		}

		for k, v := range flat {
			row[k] = v
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// FlatMapIterator yields rows lazily and collects them at the end.
func FlatMapIterator(doc workload.Document) ([]Row, error) {
	return slices.Collect(flatRows(players(doc))), nil
}

func flatRows(list []map[string]any) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, p := range list {
			s := stats(p)
			delete(p, "match_stats")

			flat := NewFlatMap(s, Separator)

			row := make(Row, len(p)+len(flat))
			for k, v := range p {
				row[k] = v
			}

			for k, v := range flat {
				row[k] = v
			}

			if !yield(row) {
				return
			}
		}
	}
}
