package report

import (
	"strings"
	"testing"
	"time"

	"netpres/domain/network"
	"netpres/internal/significance"
)

func sampleRun() Run {
	var stats [network.NumStats]significance.StatSignificance
	for s := 0; s < network.NumStats; s++ {
		stats[s] = significance.StatSignificance{
			Statistic: network.StatNames[s],
			Observed:  0.5,
			PValue:    0.01,
		}
	}
	stats[network.StatAvgWeight].Observed = network.Missing()

	return Run{
		RunID:        "run-123",
		Permutations: 1000,
		Workers:      4,
		NullModel:    network.NullOverlap,
		Elapsed:      1500 * time.Millisecond,
		Summaries: []significance.ModuleSummary{
			{Module: "blue", Statistics: stats},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleRun())

	for _, want := range []string{
		"# Module preservation report",
		"`run-123`",
		"Permutations: 1000 (null model: overlap)",
		"## Observed statistics",
		"## Permutation p-values",
		"| blue |",
		"cor.cor",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// The missing observed avg.weight renders as NA, not NaN.
	if !strings.Contains(md, "NA") {
		t.Error("missing values must render as NA")
	}
	if strings.Contains(md, "NaN") {
		t.Error("raw NaN leaked into the report")
	}
	if strings.Contains(md, "cancelled") {
		t.Error("uncancelled run must not mention cancellation")
	}
}

func TestMarkdown_CancelledRun(t *testing.T) {
	run := sampleRun()
	run.Cancelled = true

	if !strings.Contains(Markdown(run), "cancelled") {
		t.Error("cancelled run must be flagged in the report")
	}
}
