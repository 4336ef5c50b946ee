/*
Package pipeline composes a source stage with named transform stages into a
lazily evaluated pipeline.

A Pipeline pulls one item at a time from its Source and pushes it through
every Stage in the order the stages were added before pulling the next item.
Nothing runs until the pipeline is iterated, and everything runs on the
calling goroutine, so a pipeline can sit inside a memory-traced window
without other goroutines allocating alongside it.

	src := pipeline.FromSlice("players", players)
	p := pipeline.New(src)
	if err := p.AddStage(pipeline.NewStage("unnest stats", unnest)); err != nil {
		return err
	}
	rows, err := p.Collect()

Any Processor error stops the pipeline; items already yielded are not
retracted.
*/
package pipeline

import (
	"errors"
	"fmt"
	"iter"
)

// ErrDuplicateStage is returned by AddStage when a stage name is reused.
var ErrDuplicateStage = errors.New("duplicate stage name")

// Processor transforms one item. A non-nil error stops the pipeline.
type Processor[T any] func(in T) (T, error)

// Source is the first stage of a pipeline: a named, re-iterable sequence of
// raw items.
type Source[T any] struct {
	name  string
	items iter.Seq[T]
}

// NewSource wraps items as a named source.
func NewSource[T any](name string, items iter.Seq[T]) Source[T] {
	if name == "" {
		panic("NewSource cannot be called with name == ''")
	}
	if items == nil {
		panic("NewSource cannot be called with items == nil")
	}

	return Source[T]{name: name, items: items}
}

// FromSlice returns a source yielding each element of items in order.
func FromSlice[T any](name string, items []T) Source[T] {
	return NewSource(name, func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	})
}

// Name returns the source name.
func (s Source[T]) Name() string { return s.name }

// Stage is a named transform applied to every item.
type Stage[T any] struct {
	name string
	proc Processor[T]
}

// NewStage returns a stage that applies proc to every item.
func NewStage[T any](name string, proc Processor[T]) Stage[T] {
	if proc == nil {
		panic("NewStage cannot be called with proc == nil")
	}
	if name == "" {
		panic("NewStage cannot be called with name == ''")
	}

	return Stage[T]{name: name, proc: proc}
}

// Name returns the stage name.
func (s Stage[T]) Name() string { return s.name }

// Pipeline is a source followed by zero or more stages.
type Pipeline[T any] struct {
	source Source[T]
	stages []Stage[T]
}

// New creates a Pipeline reading from source.
func New[T any](source Source[T]) *Pipeline[T] {
	return &Pipeline[T]{source: source}
}

// AddStage appends stages in execution order. Stage names must be unique
// within a pipeline so that errors can name the stage that failed.
func (p *Pipeline[T]) AddStage(stages ...Stage[T]) error {
	seen := make(map[string]bool, len(p.stages)+len(stages))
	for _, s := range p.stages {
		seen[s.name] = true
	}

	for _, s := range stages {
		if seen[s.name] {
			return fmt.Errorf("%w: %q", ErrDuplicateStage, s.name)
		}

		seen[s.name] = true
	}

	p.stages = append(p.stages, stages...)

	return nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline[T]) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.name)
	}

	return names
}

// All returns the processed items. Iteration stops after the first error,
// which is yielded with the zero value of T.
func (p *Pipeline[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for item := range p.source.items {
			out, err := p.process(item)
			if err != nil {
				var zero T
				yield(zero, err)

				return
			}

			if !yield(out, nil) {
				return
			}
		}
	}
}

// Collect drains the pipeline into a slice.
func (p *Pipeline[T]) Collect() ([]T, error) {
	var out []T

	for item, err := range p.All() {
		if err != nil {
			return nil, err
		}

		out = append(out, item)
	}

	return out, nil
}

func (p *Pipeline[T]) process(item T) (T, error) {
	var err error

	for _, s := range p.stages {
		item, err = s.proc(item)
		if err != nil {
			return item, fmt.Errorf("%s: stage %s: %w", p.source.name, s.name, err)
		}
	}

	return item, nil
}
