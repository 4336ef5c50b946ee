// Package report aggregates benchmark results into comparison tables and
// exports them.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/weiihann/flatbench/harness"
)

// Generate writes a markdown comparison table for t under the given title.
// The relative column compares each row's time with the fastest candidate
// of the same input size.
func Generate(w io.Writer, t Table, title string) error {
	if len(t) == 0 {
		return fmt.Errorf("no results to report")
	}

	fastest := fastestBySize(t)

	fmt.Fprintf(w, "## %s\n", title)
	fmt.Fprintln(w)

	tbl := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("Players", "Function", "Elapsed", "Peak Mem", "Relative")

	for _, r := range t {
		relative := 1.0
		if f := fastest[r.InputSize]; f > 0 && r.ElapsedSeconds > 0 {
			relative = r.ElapsedSeconds / f
		}

		tbl.Row(
			strconv.Itoa(r.InputSize),
			r.Function,
			formatSeconds(r.ElapsedSeconds),
			formatMegabytes(r.PeakMemoryMB),
			fmt.Sprintf("%.2fx", relative),
		)
	}

	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintln(w)

	for _, size := range t.Sizes() {
		rows := t.ForSize(size)

		fmt.Fprintf(w, "- %d players: fastest **%s**, leanest **%s**\n",
			size,
			rows.SortByTime()[0].Function,
			rows.SortByMemory()[0].Function,
		)
	}

	return nil
}

func fastestBySize(t Table) map[int]float64 {
	fastest := make(map[int]float64)
	for _, r := range t {
		if r.ElapsedSeconds <= 0 {
			continue
		}

		if f, ok := fastest[r.InputSize]; !ok || r.ElapsedSeconds < f {
			fastest[r.InputSize] = r.ElapsedSeconds
		}
	}

	return fastest
}

func formatSeconds(s float64) string {
	switch {
	case s < 1e-3:
		return fmt.Sprintf("%.1fµs", s*1e6)
	case s < 1:
		return fmt.Sprintf("%.2fms", s*1e3)
	default:
		return fmt.Sprintf("%.2fs", s)
	}
}

// formatMegabytes renders a megabyte figure with decimal units, matching the
// 10^6 bytes per megabyte the harness reports.
func formatMegabytes(mb float64) string {
	if mb <= 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := mb * harness.BytesPerMegabyte
	unit := 0

	for size >= 1000 && unit < len(units)-1 {
		size /= 1000
		unit++
	}

	formatted := fmt.Sprintf("%.1f", math.Round(size*10)/10)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
