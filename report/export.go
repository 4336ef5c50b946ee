package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Row is the exported shape of one result.
type Row struct {
	InputSize      int     `json:"input_size" yaml:"input_size"`
	Function       string  `json:"function_name" yaml:"function_name"`
	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	PeakMemoryMB   float64 `json:"peak_memory_megabytes" yaml:"peak_memory_megabytes"`
}

// Rows converts t to exported rows, keeping its order.
func (t Table) Rows() []Row {
	rows := make([]Row, 0, len(t))
	for _, r := range t {
		rows = append(rows, Row{
			InputSize:      r.InputSize,
			Function:       r.Function,
			ElapsedSeconds: r.ElapsedSeconds,
			PeakMemoryMB:   r.PeakMemoryMB,
		})
	}

	return rows
}

// GenerateJSON writes t to w as a JSON array with one object per row.
func GenerateJSON(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(t.Rows())
}

// GenerateYAML writes t to w as a YAML sequence with one mapping per row.
func GenerateYAML(w io.Writer, t Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(t.Rows()); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

// WriteFile exports t to path in the given format, creating parent
// directories as needed. An empty format means JSON.
func WriteFile(path string, t Table, format string) error {
	var buf bytes.Buffer

	switch format {
	case "", FormatJSON:
		if err := GenerateJSON(&buf, t); err != nil {
			return fmt.Errorf("generate JSON: %w", err)
		}
	case FormatYAML:
		if err := GenerateYAML(&buf, t); err != nil {
			return fmt.Errorf("generate YAML: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// WriteMetrics writes t to path in the Prometheus text exposition format,
// for pickup by a node exporter textfile collector.
func WriteMetrics(path string, t Table) error {
	labels := []string{"suite", "function", "input_size"}

	elapsed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flatbench",
		Name:      "elapsed_seconds",
		Help:      "Wall-clock time of one flattening call.",
	}, labels)

	memory := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flatbench",
		Name:      "peak_memory_megabytes",
		Help:      "Heap growth attributable to one flattening call, in megabytes.",
	}, labels)

	reg := prometheus.NewRegistry()
	reg.MustRegister(elapsed, memory)

	for _, r := range t {
		lv := []string{r.Suite, r.Function, strconv.Itoa(r.InputSize)}
		elapsed.WithLabelValues(lv...).Set(r.ElapsedSeconds)
		memory.WithLabelValues(lv...).Set(r.PeakMemoryMB)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir %s: %w", dir, err)
		}
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}
