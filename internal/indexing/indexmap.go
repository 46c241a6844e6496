// Package indexing builds the label-to-position lookups used by the
// preservation engine: node and module index maps, per-module member
// sequences, and the resampling universe shuffled during permutation.
package indexing

import (
	"sort"

	"netpres/domain/network"
	"netpres/internal/errors"
)

// BuildIndexMap maps each label to its position. Labels are assumed unique;
// duplicates are an upstream precondition violation and the last position
// wins.
func BuildIndexMap(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, label := range labels {
		idx[label] = i
	}
	return idx
}

// BuildModuleMap groups node labels by module, preserving the assignment
// order of nodes within each module.
func BuildModuleMap(assignments *network.ModuleAssignments) map[string][]string {
	return buildModuleMap(assignments, nil)
}

// BuildModuleMapPresent is BuildModuleMap restricted to nodes present in the
// supplied index map.
func BuildModuleMapPresent(assignments *network.ModuleAssignments, present map[string]int) map[string][]string {
	return buildModuleMap(assignments, present)
}

func buildModuleMap(assignments *network.ModuleAssignments, present map[string]int) map[string][]string {
	modMap := make(map[string][]string)
	for _, node := range assignments.Nodes() {
		if present != nil {
			if _, ok := present[node]; !ok {
				continue
			}
		}
		module, _ := assignments.ModuleOf(node)
		modMap[module] = append(modMap[module], node)
	}
	return modMap
}

// ResolveModuleIndices maps a module's node labels to dataset positions, in
// module-member order. Labels absent from the index map are skipped, so the
// result may be shorter than the module.
func ResolveModuleIndices(module string, moduleMap map[string][]string, datasetIndex map[string]int) []int {
	members := moduleMap[module]
	indices := make([]int, 0, len(members))
	for _, node := range members {
		if pos, ok := datasetIndex[node]; ok {
			indices = append(indices, pos)
		}
	}
	return indices
}

// Universe is the ordered set of test-dataset row indices eligible for
// permutation, with a reverse lookup from node label to slot. Membership is
// fixed for a run; only the order of Indices is ever shuffled, and each
// worker shuffles a private copy.
type Universe struct {
	Indices []int
	slots   map[string]int
}

// BuildResamplingUniverse constructs the universe for the given null model.
// Under NullOverlap only assignment nodes present in the test dataset
// participate; under NullAll every test-dataset node does.
func BuildResamplingUniverse(mode network.NullModel, assignments *network.ModuleAssignments, testNames []string, testIndex map[string]int) (*Universe, error) {
	u := &Universe{slots: make(map[string]int)}
	switch mode {
	case network.NullOverlap:
		for _, node := range assignments.Nodes() {
			pos, ok := testIndex[node]
			if !ok {
				continue
			}
			u.slots[node] = len(u.Indices)
			u.Indices = append(u.Indices, pos)
		}
	case network.NullAll:
		for _, node := range testNames {
			u.slots[node] = len(u.Indices)
			u.Indices = append(u.Indices, testIndex[node])
		}
	default:
		return nil, errors.New(errors.CodeInternalError, "unknown null model "+string(mode))
	}
	return u, nil
}

// Slot returns the position of a node label within the universe ordering.
func (u *Universe) Slot(node string) (int, bool) {
	s, ok := u.slots[node]
	return s, ok
}

// Len returns the universe size.
func (u *Universe) Len() int {
	return len(u.Indices)
}

// PermutedIndices resolves a module's members against a shuffled copy of the
// universe: each member is relabeled to whatever node the shuffle assigned
// to its original slot. Members without a slot are skipped.
func (u *Universe) PermutedIndices(members []string, shuffled []int) []int {
	indices := make([]int, 0, len(members))
	for _, node := range members {
		if slot, ok := u.slots[node]; ok {
			indices = append(indices, shuffled[slot])
		}
	}
	return indices
}

// StableSortForLocality returns the rank vector of indices: rank[i] is the
// position index i would occupy if the indices were visited in ascending
// order. Statistic computations traverse submatrices in sorted order for
// sequential memory access and use the rank only to place per-node results
// back in caller order; aggregate values never depend on it.
func StableSortForLocality(indices []int) []int {
	order := make([]int, len(indices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return indices[order[a]] < indices[order[b]]
	})
	rank := make([]int, len(indices))
	for pos, i := range order {
		rank[i] = pos
	}
	return rank
}

// SortedForTraversal reorders indices ascending given their rank vector.
func SortedForTraversal(indices, rank []int) []int {
	sorted := make([]int, len(indices))
	for i, r := range rank {
		sorted[r] = indices[i]
	}
	return sorted
}

// GatherByRank maps values computed in sorted-traversal order back to the
// caller-facing member order: out[i] = values[rank[i]].
func GatherByRank(values []float64, rank []int) []float64 {
	out := make([]float64, len(rank))
	for i, r := range rank {
		out[i] = values[r]
	}
	return out
}
