package network

import "fmt"

// ObservedMatrix holds the observed preservation statistics, one row per
// analysed module and one column per statistic (see StatNames).
type ObservedMatrix struct {
	modules []string
	data    []float64
}

// NewObservedMatrix allocates a matrix pre-filled with the missing sentinel.
func NewObservedMatrix(modules []string) *ObservedMatrix {
	data := make([]float64, len(modules)*NumStats)
	for i := range data {
		data[i] = Missing()
	}
	return &ObservedMatrix{modules: modules, data: data}
}

// Modules returns the row labels.
func (m *ObservedMatrix) Modules() []string { return m.modules }

// At returns the statistic stat for module row mod.
func (m *ObservedMatrix) At(mod, stat int) float64 {
	return m.data[stat*len(m.modules)+mod]
}

// Set writes the statistic stat for module row mod, normalising NaN to the
// missing sentinel.
func (m *ObservedMatrix) Set(mod, stat int, v float64) {
	m.data[stat*len(m.modules)+mod] = Sanitize(v)
}

// Row returns a copy of the seven statistics for module row mod.
func (m *ObservedMatrix) Row(mod int) [NumStats]float64 {
	var row [NumStats]float64
	for s := 0; s < NumStats; s++ {
		row[s] = m.At(mod, s)
	}
	return row
}

// NullCube stores null-distribution observations with dimensions
// modules x NumStats x permutations. Storage is a flat slice laid out
// permutation-major so that each worker's permutation range maps to a
// contiguous, disjoint slab.
type NullCube struct {
	modules []string
	nPerm   int
	data    []float64
}

// NewNullCube allocates a cube pre-filled with the missing sentinel so that
// cancelled permutations read back as missing.
func NewNullCube(modules []string, nPerm int) *NullCube {
	data := make([]float64, len(modules)*NumStats*nPerm)
	for i := range data {
		data[i] = Missing()
	}
	return &NullCube{modules: modules, nPerm: nPerm, data: data}
}

// Modules returns the row labels.
func (c *NullCube) Modules() []string { return c.modules }

// Permutations returns the number of permutation slices.
func (c *NullCube) Permutations() int { return c.nPerm }

// sliceStride is the number of cells in one permutation slice.
func (c *NullCube) sliceStride() int {
	return len(c.modules) * NumStats
}

// At returns the value for (module row, statistic, permutation).
func (c *NullCube) At(mod, stat, perm int) float64 {
	return c.data[perm*c.sliceStride()+stat*len(c.modules)+mod]
}

// Set writes a value, normalising NaN to the missing sentinel.
func (c *NullCube) Set(mod, stat, perm int, v float64) {
	c.data[perm*c.sliceStride()+stat*len(c.modules)+mod] = Sanitize(v)
}

// NullDistribution returns a copy of the permutation observations for one
// module/statistic pair, in permutation order.
func (c *NullCube) NullDistribution(mod, stat int) []float64 {
	out := make([]float64, c.nPerm)
	for p := 0; p < c.nPerm; p++ {
		out[p] = c.At(mod, stat, p)
	}
	return out
}

// PermutationName returns the label of permutation slice i, counted from 1.
func (c *NullCube) PermutationName(i int) string {
	return fmt.Sprintf("permutation.%d", i+1)
}
