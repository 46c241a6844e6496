// Package report renders a module preservation run as a markdown document.
package report

import (
	"fmt"
	"strings"
	"time"

	"netpres/domain/core"
	"netpres/domain/network"
	"netpres/internal/significance"
)

// Run bundles what the report needs from a finished permutation run.
type Run struct {
	RunID        core.RunID
	Permutations int
	Workers      int
	NullModel    network.NullModel
	Elapsed      time.Duration
	Cancelled    bool
	Summaries    []significance.ModuleSummary
}

// Markdown renders the preservation report. One observed-statistics table
// row per module, then a p-value table with the same shape.
func Markdown(run Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Module preservation report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", run.RunID)
	fmt.Fprintf(&b, "- Permutations: %d (null model: %s)\n", run.Permutations, run.NullModel)
	fmt.Fprintf(&b, "- Workers: %d\n", run.Workers)
	fmt.Fprintf(&b, "- Elapsed: %s\n", run.Elapsed.Round(time.Millisecond))
	if run.Cancelled {
		fmt.Fprintf(&b, "- **Run was cancelled; unfinished permutations are missing.**\n")
	}
	b.WriteString("\n")

	writeTable(&b, "Observed statistics", run.Summaries, func(s significance.StatSignificance) float64 {
		return s.Observed
	})
	writeTable(&b, "Permutation p-values", run.Summaries, func(s significance.StatSignificance) float64 {
		return s.PValue
	})
	return b.String()
}

func writeTable(b *strings.Builder, title string, summaries []significance.ModuleSummary, value func(significance.StatSignificance) float64) {
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| module |")
	for _, name := range network.StatNames {
		fmt.Fprintf(b, " %s |", name)
	}
	b.WriteString("\n|---|")
	for range network.StatNames {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, mod := range summaries {
		fmt.Fprintf(b, "| %s |", mod.Module)
		for _, s := range mod.Statistics {
			fmt.Fprintf(b, " %s |", formatValue(value(s)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func formatValue(v float64) string {
	if network.IsMissing(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4f", v)
}
