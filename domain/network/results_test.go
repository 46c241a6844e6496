package network

import (
	"math"
	"testing"
)

func TestObservedMatrix(t *testing.T) {
	m := NewObservedMatrix([]string{"blue", "red"})

	for mod := 0; mod < 2; mod++ {
		for s := 0; s < NumStats; s++ {
			if !IsMissing(m.At(mod, s)) {
				t.Fatalf("cell (%d,%d) not initialised to missing", mod, s)
			}
		}
	}

	m.Set(1, StatCorCor, 0.7)
	m.Set(0, StatAvgWeight, math.NaN())

	if got := m.At(1, StatCorCor); got != 0.7 {
		t.Errorf("At(1, cor.cor) = %v, want 0.7", got)
	}
	if !IsMissing(m.At(0, StatAvgWeight)) {
		t.Error("NaN write must normalise to missing")
	}

	row := m.Row(1)
	if row[StatCorCor] != 0.7 {
		t.Errorf("row copy = %v", row)
	}
}

func TestNullCube_CellsAreIndependent(t *testing.T) {
	cube := NewNullCube([]string{"blue", "red", "green"}, 5)

	// Write a distinct value to every cell, then read them all back. Any
	// aliasing in the flat layout would overwrite an earlier value.
	value := func(mod, stat, perm int) float64 {
		return float64(mod*1000 + stat*10 + perm)
	}
	for mod := 0; mod < 3; mod++ {
		for stat := 0; stat < NumStats; stat++ {
			for perm := 0; perm < 5; perm++ {
				cube.Set(mod, stat, perm, value(mod, stat, perm))
			}
		}
	}
	for mod := 0; mod < 3; mod++ {
		for stat := 0; stat < NumStats; stat++ {
			for perm := 0; perm < 5; perm++ {
				if got := cube.At(mod, stat, perm); got != value(mod, stat, perm) {
					t.Fatalf("cell (%d,%d,%d) = %v, want %v", mod, stat, perm, got, value(mod, stat, perm))
				}
			}
		}
	}
}

func TestNullCube_Distribution(t *testing.T) {
	cube := NewNullCube([]string{"blue"}, 3)
	cube.Set(0, StatCoherence, 0, 0.1)
	cube.Set(0, StatCoherence, 2, 0.3)

	dist := cube.NullDistribution(0, StatCoherence)
	if len(dist) != 3 {
		t.Fatalf("distribution length = %d, want 3", len(dist))
	}
	if dist[0] != 0.1 || !IsMissing(dist[1]) || dist[2] != 0.3 {
		t.Errorf("distribution = %v", dist)
	}

	if got := cube.PermutationName(0); got != "permutation.1" {
		t.Errorf("permutation name = %q", got)
	}
}

func TestStatNamesOrder(t *testing.T) {
	want := [NumStats]string{
		"avg.weight", "coherence", "cor.cor", "cor.degree", "cor.contrib",
		"avg.cor", "avg.contrib",
	}
	if StatNames != want {
		t.Errorf("statistic order = %v", StatNames)
	}
}

func TestParseNullModel(t *testing.T) {
	for _, valid := range []string{"overlap", "all"} {
		if _, err := ParseNullModel(valid); err != nil {
			t.Errorf("%q rejected: %v", valid, err)
		}
	}
	if _, err := ParseNullModel("everything"); err == nil {
		t.Error("invalid model accepted")
	}
}

func TestModuleAssignments_OrderAndOverwrite(t *testing.T) {
	a := NewModuleAssignments()
	a.Add("n1", "blue")
	a.Add("n2", "red")
	a.Add("n1", "green")

	nodes := a.Nodes()
	if len(nodes) != 2 || nodes[0] != "n1" || nodes[1] != "n2" {
		t.Errorf("nodes = %v", nodes)
	}
	if mod, _ := a.ModuleOf("n1"); mod != "green" {
		t.Errorf("n1 module = %q, want green", mod)
	}
}
