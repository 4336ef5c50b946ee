// Package flatten holds the competing techniques for turning a match
// document's nested teamsheet into one flat row per player.
//
// Every candidate accepts a workload.Document and returns []Row. A missing
// home side, teamsheet or match_stats block is treated as empty; no
// candidate fails on absent fields. Candidates marked Destructive consume
// their input in place and must be handed a private clone.
package flatten

import (
	"errors"
	"fmt"
	"sort"

	"github.com/weiihann/flatbench/workload"
)

// Errors returned by suite and candidate lookup.
var (
	ErrUnknownSuite     = errors.New("unknown suite")
	ErrUnknownCandidate = errors.New("unknown candidate")
)

// Row is one flattened player.
type Row map[string]any

// Func flattens a match document into rows.
type Func func(doc workload.Document) ([]Row, error)

// Candidate is a named flattening technique.
type Candidate struct {
	Name        string
	Description string
	// Destructive candidates mutate the document they are given.
	Destructive bool
	Fn          Func
}

// Suite is a named set of candidates that are benchmarked together.
type Suite struct {
	Name        string
	Description string
	// Output is the default results file for the suite.
	Output     string
	Candidates []Candidate
}

// Candidate returns the named candidate of the suite.
func (s Suite) Candidate(name string) (Candidate, error) {
	for _, c := range s.Candidates {
		if c.Name == name {
			return c, nil
		}
	}

	return Candidate{}, fmt.Errorf("%w: %q in suite %s", ErrUnknownCandidate, name, s.Name)
}

// Names returns the candidate names in run order.
func (s Suite) Names() []string {
	names := make([]string, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		names = append(names, c.Name)
	}

	return names
}

// Suite names.
const (
	SuiteMain  = "main"
	SuiteLoops = "loops"
)

// Main compares hand-written, library-based and pipeline techniques.
func Main() Suite {
	return Suite{
		Name:        SuiteMain,
		Description: "hand-written, library and pipeline flattening techniques",
		Output:      "data/benchmark_results.json",
		Candidates: []Candidate{
			{
				Name:        "gjson_flatten",
				Description: "encode to JSON and walk it with gjson, stripping the match_stats prefix",
				Fn:          GJSON,
			},
			{
				Name:        "manual_flatten",
				Description: "fixed per-key lookups",
				Fn:          Manual,
			},
			{
				Name:        "recursive_flatten",
				Description: "generic recursive walk of match_stats",
				Fn:          Recursive,
			},
			{
				Name:        "unpack_flatten",
				Description: "copy identity keys and merge match_stats",
				Fn:          Unpack,
			},
			{
				Name:        "flatmap_flatten",
				Description: "pop match_stats, flatten with FlatMap and merge in place",
				Destructive: true,
				Fn:          FlatMapInPlace,
			},
			{
				Name:        "pipeline_flatten",
				Description: "source stage of players piped through an unnesting stage",
				Destructive: true,
				Fn:          Pipeline,
			},
		},
	}
}

// Loops compares loop shapes around the same FlatMap flattening.
func Loops() Suite {
	return Suite{
		Name:        SuiteLoops,
		Description: "loop shapes around FlatMap flattening",
		Output:      "data/compare_loops_results.json",
		Candidates: []Candidate{
			{
				Name:        "flatmap_flatten",
				Description: "for loop appending to a growing slice",
				Destructive: true,
				Fn:          FlatMapLoop,
			},
			{
				Name:        "flatmap_flatten_prealloc",
				Description: "preallocated slice of fresh row maps",
				Destructive: true,
				Fn:          FlatMapPrealloc,
			},
			{
				Name:        "flatmap_flatten_iterator",
				Description: "lazy iterator collected into a slice",
				Destructive: true,
				Fn:          FlatMapIterator,
			},
		},
	}
}

// Suites returns every suite keyed by name.
func Suites() map[string]Suite {
	return map[string]Suite{
		SuiteMain:  Main(),
		SuiteLoops: Loops(),
	}
}

// SuiteNames returns the suite names sorted.
func SuiteNames() []string {
	suites := Suites()

	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Lookup returns the named suite.
func Lookup(name string) (Suite, error) {
	s, ok := Suites()[name]
	if !ok {
		return Suite{}, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
	}

	return s, nil
}

func players(doc workload.Document) []map[string]any {
	sheet := doc.Teamsheet()

	out := make([]map[string]any, 0, len(sheet))
	for _, item := range sheet {
		p, ok := item.(map[string]any)
		if !ok {
			p = map[string]any{}
		}

		out = append(out, p)
	}

	return out
}

func stats(player map[string]any) map[string]any {
	s, ok := player["match_stats"].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return s
}
