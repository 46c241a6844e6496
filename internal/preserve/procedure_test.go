package preserve

import (
	"context"
	"testing"

	"netpres/domain/network"
	"netpres/internal/significance"
	"netpres/internal/testkit"
)

func smallConfig() testkit.GeneratorConfig {
	return testkit.GeneratorConfig{
		DiscoverySamples: 40,
		TestSamples:      30,
		PreservedSize:    12,
		DegradedSize:     12,
		NoiseNodes:       26,
		Signal:           3.0,
		SoftPower:        6,
		Seed:             42,
	}
}

func runProcedure(t *testing.T, permutations, workers int, seed int64) *Result {
	t.Helper()
	discovery, test, assignments := testkit.NewNetworkGenerator(smallConfig()).Generate()

	result, err := PermutationProcedure(context.Background(), Input{
		Discovery:    discovery,
		Test:         test,
		Assignments:  assignments,
		Modules:      []string{testkit.PreservedModule, testkit.DegradedModule},
		Permutations: permutations,
		Workers:      workers,
		NullModel:    network.NullOverlap,
		Coherence:    network.CoherenceAbsolute,
		Seed:         seed,
	})
	if err != nil {
		t.Fatalf("procedure failed: %v", err)
	}
	return result
}

func TestPermutationProcedure_SeparatesPlantedModules(t *testing.T) {
	result := runProcedure(t, 199, 4, 7)

	if result.Cancelled {
		t.Fatal("run should not report cancellation")
	}
	if got := result.Nulls.Permutations(); got != 199 {
		t.Fatalf("null cube has %d permutation slices, want 199", got)
	}

	// Row 0 is the preserved module, row 1 the degraded one.
	preservedCorCor := result.Observed.At(0, network.StatCorCor)
	degradedCorCor := result.Observed.At(1, network.StatCorCor)

	if network.IsMissing(preservedCorCor) || preservedCorCor < 0.5 {
		t.Errorf("preserved module cor.cor = %v, want > 0.5", preservedCorCor)
	}
	if network.IsMissing(degradedCorCor) {
		t.Error("degraded module cor.cor is missing")
	} else if degradedCorCor > 0.5 || degradedCorCor < -0.5 {
		t.Errorf("degraded module cor.cor = %v, want near zero", degradedCorCor)
	}

	// The preserved module's correlation directions recur in the test
	// dataset, so avg.cor must come out clearly positive.
	if avgCor := result.Observed.At(0, network.StatAvgCor); network.IsMissing(avgCor) || avgCor < 0.1 {
		t.Errorf("preserved module avg.cor = %v, want clearly positive", avgCor)
	}

	summaries := significance.Evaluate(result.Observed, result.Nulls, false)
	preservedP := summaries[0].Statistics[network.StatCorCor].PValue
	if network.IsMissing(preservedP) || preservedP > 0.05 {
		t.Errorf("preserved module cor.cor p-value = %v, want <= 0.05", preservedP)
	}
	if got := summaries[0].Statistics[network.StatCorCor].ValidPermutations; got != 199 {
		t.Errorf("valid permutations = %d, want 199", got)
	}
}

func TestPermutationProcedure_DeterministicForFixedSeed(t *testing.T) {
	a := runProcedure(t, 20, 2, 7)
	b := runProcedure(t, 20, 2, 7)

	for m := range a.Nulls.Modules() {
		for s := 0; s < network.NumStats; s++ {
			for p := 0; p < 20; p++ {
				x, y := a.Nulls.At(m, s, p), b.Nulls.At(m, s, p)
				if network.IsMissing(x) && network.IsMissing(y) {
					continue
				}
				if x != y {
					t.Fatalf("cube differs at (%d,%d,%d): %v vs %v", m, s, p, x, y)
				}
			}
		}
	}
	if a.Seed != b.Seed {
		t.Errorf("seeds differ: %d vs %d", a.Seed, b.Seed)
	}
}

func TestPermutationProcedure_CancelledContext(t *testing.T) {
	discovery, test, assignments := testkit.NewNetworkGenerator(smallConfig()).Generate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := PermutationProcedure(ctx, Input{
		Discovery:    discovery,
		Test:         test,
		Assignments:  assignments,
		Modules:      []string{testkit.PreservedModule},
		Permutations: 50,
		Workers:      2,
		NullModel:    network.NullOverlap,
		Coherence:    network.CoherenceAbsolute,
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("cancellation must not surface as an error, got %v", err)
	}
	if !result.Cancelled {
		t.Fatal("result should report cancellation")
	}

	// The observed pass runs before the workers start and must be complete.
	if network.IsMissing(result.Observed.At(0, network.StatCorCor)) {
		t.Error("observed statistics should survive cancellation")
	}
	// No worker ran a permutation, so the whole cube stays missing.
	for s := 0; s < network.NumStats; s++ {
		for p := 0; p < 50; p++ {
			if !network.IsMissing(result.Nulls.At(0, s, p)) {
				t.Fatalf("null cube cell (%d,%d) written after pre-cancellation", s, p)
			}
		}
	}
}

func TestPermutationProcedure_ValidatesInput(t *testing.T) {
	discovery, test, assignments := testkit.NewNetworkGenerator(smallConfig()).Generate()

	base := Input{
		Discovery:    discovery,
		Test:         test,
		Assignments:  assignments,
		Modules:      []string{testkit.PreservedModule},
		Permutations: 10,
		Workers:      1,
		NullModel:    network.NullOverlap,
	}

	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"nil discovery", func(in *Input) { in.Discovery = nil }},
		{"no modules", func(in *Input) { in.Modules = nil }},
		{"zero permutations", func(in *Input) { in.Permutations = 0 }},
		{"zero workers", func(in *Input) { in.Workers = 0 }},
		{"bad null model", func(in *Input) { in.NullModel = "bogus" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			if _, err := PermutationProcedure(context.Background(), in); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
