package testkit

import (
	"math"
	"testing"

	"netpres/internal/netstats"
)

func TestNetworkGenerator_Shapes(t *testing.T) {
	config := DefaultGeneratorConfig()
	config.DiscoverySamples = 30
	config.TestSamples = 20
	config.PreservedSize = 8
	config.DegradedSize = 6
	config.NoiseNodes = 10

	discovery, test, assignments := NewNetworkGenerator(config).Generate()

	wantNodes := 8 + 6 + 10
	if discovery.NumNodes() != wantNodes || test.NumNodes() != wantNodes {
		t.Fatalf("node counts = %d/%d, want %d", discovery.NumNodes(), test.NumNodes(), wantNodes)
	}
	if discovery.NumSamples() != 30 || test.NumSamples() != 20 {
		t.Errorf("sample counts = %d/%d", discovery.NumSamples(), test.NumSamples())
	}
	for i, name := range discovery.NodeNames {
		if test.NodeNames[i] != name {
			t.Fatalf("node %d named %q in discovery but %q in test", i, name, test.NodeNames[i])
		}
	}

	if assignments.Len() != 8+6 {
		t.Errorf("assigned nodes = %d, want %d", assignments.Len(), 8+6)
	}
	if mod, _ := assignments.ModuleOf(discovery.NodeNames[0]); mod != PreservedModule {
		t.Errorf("first node module = %q", mod)
	}
	if mod, _ := assignments.ModuleOf(discovery.NodeNames[8]); mod != DegradedModule {
		t.Errorf("ninth node module = %q", mod)
	}
	if _, ok := assignments.ModuleOf(discovery.NodeNames[wantNodes-1]); ok {
		t.Error("noise nodes must stay unassigned")
	}
}

func TestNetworkGenerator_DeterministicForSeed(t *testing.T) {
	config := DefaultGeneratorConfig()
	config.DiscoverySamples = 10
	config.NoiseNodes = 5

	a, _, _ := NewNetworkGenerator(config).Generate()
	b, _, _ := NewNetworkGenerator(config).Generate()

	rows, cols := a.Data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if a.Data.At(i, j) != b.Data.At(i, j) {
				t.Fatalf("data differs at (%d,%d)", i, j)
			}
		}
	}
}

func TestNetworkGenerator_PreservedStructureRecurs(t *testing.T) {
	config := DefaultGeneratorConfig()
	discovery, test, _ := NewNetworkGenerator(config).Generate()

	// The preserved module's pairwise correlations should agree across
	// datasets because both are driven by the same loadings.
	idx := make([]int, config.PreservedSize)
	for i := range idx {
		idx[i] = i
	}
	dVec := netstats.CorrVector(discovery.Corr, idx)
	tVec := netstats.CorrVector(test.Corr, idx)

	if r := netstats.Correlation(dVec, tVec); math.IsNaN(r) || r < 0.5 {
		t.Errorf("preserved module correlation agreement = %v, want > 0.5", r)
	}

	// Degraded module nodes are noise in the test dataset, so agreement
	// should be weak there.
	dIdx := make([]int, config.DegradedSize)
	for i := range dIdx {
		dIdx[i] = config.PreservedSize + i
	}
	dVec = netstats.CorrVector(discovery.Corr, dIdx)
	tVec = netstats.CorrVector(test.Corr, dIdx)
	if r := netstats.Correlation(dVec, tVec); !math.IsNaN(r) && math.Abs(r) > 0.5 {
		t.Errorf("degraded module correlation agreement = %v, want near zero", r)
	}
}
