package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/flatbench/flatten"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseResult(t *testing.T) {
	input := `{
		"suite": "main",
		"function_name": "manual_flatten",
		"input_size": 100,
		"rows": 100,
		"elapsed_seconds": 0.0012,
		"peak_memory_megabytes": 1.5
	}`

	result, err := parseResult("manual_flatten", bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}

	if result.Suite != "main" {
		t.Errorf("suite = %q, want main", result.Suite)
	}
	if result.Function != "manual_flatten" {
		t.Errorf("function = %q, want manual_flatten", result.Function)
	}
	if result.InputSize != 100 {
		t.Errorf("input_size = %d, want 100", result.InputSize)
	}
	if result.Rows != 100 {
		t.Errorf("rows = %d, want 100", result.Rows)
	}
	if result.ElapsedSeconds != 0.0012 {
		t.Errorf("elapsed_seconds = %v, want 0.0012", result.ElapsedSeconds)
	}
	if result.PeakMemoryMB != 1.5 {
		t.Errorf("peak_memory_megabytes = %v, want 1.5", result.PeakMemoryMB)
	}
}

func TestParseResultFillsFunction(t *testing.T) {
	input := `{"input_size": 23}`

	result, err := parseResult("unpack_flatten", bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}

	if result.Function != "unpack_flatten" {
		t.Errorf("function = %q, want unpack_flatten", result.Function)
	}
}

func TestParseResultInvalidJSON(t *testing.T) {
	input := `not json at all`
	_, err := parseResult("test", strings.NewReader(input))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseResultNegative(t *testing.T) {
	input := `{"function_name": "x", "elapsed_seconds": -1}`
	_, err := parseResult("x", strings.NewReader(input))
	if err == nil {
		t.Error("expected error for negative elapsed time")
	}
}

func TestWriteResultRoundTrip(t *testing.T) {
	want := Result{
		Suite:          "loops",
		Function:       "flatmap_flatten",
		InputSize:      23,
		Rows:           23,
		ElapsedSeconds: 0.5,
		PeakMemoryMB:   2,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, want))

	got, err := parseResult("", &buf)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestProcessRunnerArgs(t *testing.T) {
	r := &ProcessRunner{BinaryPath: "flatbench", ExtraArgs: []string{"--verbose"}}

	args := r.Args(Task{
		Suite:      "main",
		Candidate:  flatten.Candidate{Name: "manual_flatten"},
		NumPlayers: 23,
	})

	assert.Equal(t, []string{
		"--verbose", "measure",
		"--suite", "main",
		"--candidate", "manual_flatten",
		"--players", "23",
	}, args)
}

func TestProcessRunnerMeasureTask(t *testing.T) {
	script := `printf '{"function_name":"manual_flatten","elapsed_seconds":0.25,"peak_memory_megabytes":3}\n'`

	r, err := NewProcessRunner("sh", []string{"-c", script}, nil, 10*time.Second, testLogger())
	require.NoError(t, err)

	res, err := r.MeasureTask(context.Background(), Task{
		Suite:      "main",
		Candidate:  flatten.Candidate{Name: "manual_flatten"},
		NumPlayers: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, Result{
		Suite:          "main",
		Function:       "manual_flatten",
		InputSize:      100,
		ElapsedSeconds: 0.25,
		PeakMemoryMB:   3,
	}, res)
}

func TestProcessRunnerChildFailure(t *testing.T) {
	r, err := NewProcessRunner("sh", []string{"-c", "echo boom >&2; exit 3"}, nil, 0, testLogger())
	require.NoError(t, err)

	_, err = r.MeasureTask(context.Background(), Task{
		Suite:     "main",
		Candidate: flatten.Candidate{Name: "manual_flatten"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewProcessRunnerDefaultsToSelf(t *testing.T) {
	r, err := NewProcessRunner("", nil, nil, 0, testLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, r.BinaryPath)
}

func TestTracerLifecycle(t *testing.T) {
	var tr Tracer

	_, err := tr.Stop()
	require.True(t, errors.Is(err, ErrTracerInactive))

	require.NoError(t, tr.Start())
	assert.True(t, tr.Active())
	assert.True(t, errors.Is(tr.Start(), ErrTracerActive))

	buf := make([]byte, 4<<20)
	buf[len(buf)-1] = 1

	peak, err := tr.Stop()
	require.NoError(t, err)
	assert.False(t, tr.Active())
	assert.GreaterOrEqual(t, peak, uint64(4<<20))

	_, err = tr.Stop()
	assert.True(t, errors.Is(err, ErrTracerInactive))
}

func TestTracerWindowNotCumulative(t *testing.T) {
	var tr Tracer

	for range 3 {
		require.NoError(t, tr.Start())
		peak, err := tr.Stop()
		require.NoError(t, err)
		assert.Less(t, peak, uint64(1<<20), "an empty window must not inherit earlier allocations")

		_ = make([]byte, 8<<20)
	}
}
