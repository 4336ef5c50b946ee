package flatten

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/flatbench/workload"
)

func allCandidates() []Candidate {
	var out []Candidate
	for _, name := range SuiteNames() {
		s, _ := Lookup(name)
		out = append(out, s.Candidates...)
	}

	return out
}

func newDoc(t *testing.T, n int) workload.Document {
	t.Helper()

	m, err := workload.Generate(n)
	require.NoError(t, err)

	return m.Document()
}

// number folds every numeric representation down to float64 so rows from
// JSON-based candidates compare equal to rows built from Go ints.
func number(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return v
	}
}

func byPlayer(t *testing.T, rows []Row) map[float64]map[string]any {
	t.Helper()

	out := make(map[float64]map[string]any, len(rows))
	for _, r := range rows {
		norm := make(map[string]any, len(r))
		for k, v := range r {
			norm[k] = number(v)
		}

		id, ok := norm["player_id"].(float64)
		require.True(t, ok, "player_id missing or not numeric: %v", r["player_id"])
		out[id] = norm
	}

	return out
}

func TestEndToEndThreePlayers(t *testing.T) {
	for _, c := range allCandidates() {
		t.Run(c.Name, func(t *testing.T) {
			rows, err := c.Fn(newDoc(t, 3))
			require.NoError(t, err)
			require.Len(t, rows, 3)

			players := byPlayer(t, rows)

			p1 := players[1]
			assert.Equal(t, 5.0, p1["points"])
			assert.Equal(t, "Forward", p1["position"])
			assert.Equal(t, false, p1["substitute"])
			assert.Equal(t, 0.0, players[3]["points"])
		})
	}
}

func TestCandidatesAgree(t *testing.T) {
	const n = 40

	ref, err := Manual(newDoc(t, n))
	require.NoError(t, err)
	want := byPlayer(t, ref)

	for _, c := range allCandidates() {
		t.Run(c.Name, func(t *testing.T) {
			rows, err := c.Fn(newDoc(t, n))
			require.NoError(t, err)

			assert.Equal(t, want, byPlayer(t, rows))
		})
	}
}

func TestRowKeys(t *testing.T) {
	want := append(workload.IdentityKeys(), workload.StatKeys()...)
	sort.Strings(want)

	for _, c := range allCandidates() {
		t.Run(c.Name, func(t *testing.T) {
			rows, err := c.Fn(newDoc(t, 2))
			require.NoError(t, err)

			for _, r := range rows {
				keys := make([]string, 0, len(r))
				for k := range r {
					keys = append(keys, k)
				}

				sort.Strings(keys)
				assert.Equal(t, want, keys)
			}
		})
	}
}

func TestMissingFieldsTolerated(t *testing.T) {
	docs := map[string]workload.Document{
		"no home":      {"match_id": 1},
		"no teamsheet": {"home": map[string]any{"team_id": 1}},
		"empty":        {"home": map[string]any{"teamsheet": []any{}}},
		"no stats": {"home": map[string]any{"teamsheet": []any{
			map[string]any{"player_id": 7, "name": "Player 7"},
		}}},
	}

	for _, c := range allCandidates() {
		for name, doc := range docs {
			t.Run(c.Name+"/"+name, func(t *testing.T) {
				var rows []Row

				require.NotPanics(t, func() {
					var err error
					rows, err = c.Fn(doc.Clone())
					assert.NoError(t, err)
				})

				wantRows := len(doc.Teamsheet())
				assert.Len(t, rows, wantRows)

				if wantRows == 1 {
					assert.EqualValues(t, 7, number(rows[0]["player_id"]))
					assert.NotContains(t, rows[0], "match_stats")
				}
			})
		}
	}
}

func TestNonDestructiveLeaveInputIntact(t *testing.T) {
	for _, c := range allCandidates() {
		if c.Destructive {
			continue
		}

		t.Run(c.Name, func(t *testing.T) {
			doc := newDoc(t, 20)
			before := doc.Clone()

			_, err := c.Fn(doc)
			require.NoError(t, err)
			assert.Equal(t, before, doc)
		})
	}
}

func TestDestructiveConsumeInput(t *testing.T) {
	for _, c := range allCandidates() {
		if !c.Destructive {
			continue
		}

		t.Run(c.Name, func(t *testing.T) {
			doc := newDoc(t, 5)

			_, err := c.Fn(doc)
			require.NoError(t, err)

			p := doc.Teamsheet()[0].(map[string]any)
			assert.NotContains(t, p, "match_stats")
		})
	}
}

func TestNestedStatsFlattened(t *testing.T) {
	doc := workload.Document{"home": map[string]any{"teamsheet": []any{
		map[string]any{
			"player_id": 1,
			"match_stats": map[string]any{
				"kicks": map[string]any{"long": 2, "short": 3},
			},
		},
	}}}

	for _, fn := range map[string]Func{
		"recursive": Recursive,
		"flatmap":   FlatMapInPlace,
		"gjson":     GJSON,
	} {
		rows, err := fn(doc.Clone())
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.EqualValues(t, 2, number(rows[0]["kicks_long"]))
		assert.EqualValues(t, 3, number(rows[0]["kicks_short"]))
	}
}

func TestNewFlatMap(t *testing.T) {
	got := NewFlatMap(map[string]any{
		"a": 1,
		"b": map[string]any{
			"c": 2,
			"d": map[string]any{"e": 3},
		},
		"f": []any{1, 2},
	}, ":")

	assert.Equal(t, FlatMap{
		"a":     1,
		"b:c":   2,
		"b:d:e": 3,
		"f":     []any{1, 2},
	}, got)
}

func TestLookup(t *testing.T) {
	s, err := Lookup(SuiteMain)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gjson_flatten", "manual_flatten", "recursive_flatten",
		"unpack_flatten", "flatmap_flatten", "pipeline_flatten",
	}, s.Names())

	c, err := s.Candidate("pipeline_flatten")
	require.NoError(t, err)
	assert.True(t, c.Destructive)

	_, err = s.Candidate("csv_flatten")
	assert.True(t, errors.Is(err, ErrUnknownCandidate))

	_, err = Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknownSuite))

	assert.Equal(t, []string{SuiteLoops, SuiteMain}, SuiteNames())
}
