package harness

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/kylelemons/godebug/pretty"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/weiihann/flatbench/flatten"
	"github.com/weiihann/flatbench/workload"
)

// ErrMismatch is returned by Verify when two candidates disagree.
var ErrMismatch = errors.New("candidates disagree")

type fingerprint struct {
	row  map[string]any
	hash uint64
}

// Verify runs every candidate of suite on its own copy of doc and checks
// that they produce the same players with the same (key, value) pairs. Key
// order is irrelevant and numbers compare by value regardless of their Go
// type. The first candidate is the reference.
func Verify(suite flatten.Suite, doc workload.Document) error {
	if len(suite.Candidates) == 0 {
		return nil
	}

	var (
		ref     map[string]fingerprint
		refName string
	)

	for _, c := range suite.Candidates {
		rows, err := c.Fn(doc.Clone())
		if err != nil {
			return fmt.Errorf("run %s: %w", c.Name, err)
		}

		got, err := fingerprints(rows)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", c.Name, err)
		}

		if ref == nil {
			ref, refName = got, c.Name

			continue
		}

		if err := compare(refName, ref, c.Name, got); err != nil {
			return err
		}
	}

	return nil
}

func compare(refName string, ref map[string]fingerprint, name string, got map[string]fingerprint) error {
	if len(ref) != len(got) {
		return fmt.Errorf("%w: %s has %d players, %s has %d",
			ErrMismatch, refName, len(ref), name, len(got))
	}

	ids := make([]string, 0, len(ref))
	for id := range ref {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		want := ref[id]

		have, ok := got[id]
		if !ok {
			return fmt.Errorf("%w: player %s missing from %s", ErrMismatch, id, name)
		}

		if want.hash != have.hash {
			return fmt.Errorf("%w: %s vs %s on player %s:\n%s",
				ErrMismatch, refName, name, id, pretty.Compare(want.row, have.row))
		}
	}

	return nil
}

func fingerprints(rows []flatten.Row) (map[string]fingerprint, error) {
	out := make(map[string]fingerprint, len(rows))

	for _, r := range rows {
		norm := normalizeRow(r)

		id := fmt.Sprint(norm["player_id"])
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate player_id %s", id)
		}

		h, err := hashstructure.Hash(norm, hashstructure.FormatV2, nil)
		if err != nil {
			return nil, fmt.Errorf("hash player %s: %w", id, err)
		}

		out[id] = fingerprint{row: norm, hash: h}
	}

	return out, nil
}

func normalizeRow(r flatten.Row) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = normalizeValue(v)
	}

	return out
}

// normalizeValue folds every integer and float kind to float64.
func normalizeValue(v any) any {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return v
	}
}
