package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Num   int
	Multi int
}

func incr(in record) (record, error) {
	in.Num++

	return in, nil
}

func multi(in record) (record, error) {
	in.Multi = in.Num * 2

	return in, nil
}

func TestPipelineStageOrder(t *testing.T) {
	p := New(FromSlice("records", []record{{Num: 1}, {Num: 2}, {Num: 3}}))
	require.NoError(t, p.AddStage(
		NewStage("incr", incr),
		NewStage("multi", multi),
	))

	got, err := p.Collect()
	require.NoError(t, err)

	assert.Equal(t, []record{
		{Num: 2, Multi: 4},
		{Num: 3, Multi: 6},
		{Num: 4, Multi: 8},
	}, got)
	assert.Equal(t, []string{"incr", "multi"}, p.Stages())
}

func TestPipelineNoStages(t *testing.T) {
	p := New(FromSlice("records", []record{{Num: 1}}))

	got, err := p.Collect()
	require.NoError(t, err)
	assert.Equal(t, []record{{Num: 1}}, got)
}

func TestPipelineEmptySource(t *testing.T) {
	p := New(FromSlice[record]("records", nil))
	require.NoError(t, p.AddStage(NewStage("incr", incr)))

	got, err := p.Collect()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPipelineError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	p := New(FromSlice("records", []record{{Num: 1}, {Num: 1000}, {Num: 3}}))
	require.NoError(t, p.AddStage(NewStage("fail", func(in record) (record, error) {
		calls++
		if in.Num == 1000 {
			return in, boom
		}

		return in, nil
	})))

	_, err := p.Collect()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage fail")
	assert.Equal(t, 2, calls, "items after the failure must not be processed")
}

func TestPipelineLazy(t *testing.T) {
	pulled := 0
	src := NewSource("counting", func(yield func(record) bool) {
		for i := range 5 {
			pulled++
			if !yield(record{Num: i}) {
				return
			}
		}
	})

	p := New(src)
	assert.Equal(t, 0, pulled, "nothing runs before iteration")

	for item, err := range p.All() {
		require.NoError(t, err)
		if item.Num == 1 {
			break
		}
	}

	assert.Equal(t, 2, pulled)
}

func TestAddStageDuplicate(t *testing.T) {
	p := New(FromSlice("records", []record{}))
	require.NoError(t, p.AddStage(NewStage("incr", incr)))

	err := p.AddStage(NewStage("multi", multi), NewStage("incr", incr))
	require.ErrorIs(t, err, ErrDuplicateStage)
	assert.Equal(t, []string{"incr"}, p.Stages(), "failed AddStage must not add anything")
}

func TestNewStagePanics(t *testing.T) {
	assert.Panics(t, func() { NewStage[record]("", incr) })
	assert.Panics(t, func() { NewStage[record]("nil", nil) })
	assert.Panics(t, func() { NewSource[record]("", func(func(record) bool) {}) })
}
