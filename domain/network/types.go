// Package network holds the data model shared by the preservation engine:
// dataset triples, module assignments, statistic naming, and the missing
// value conventions used throughout the results.
package network

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Statistic column indices in the observed matrix and null cube. The order
// is part of the output contract and must not change.
const (
	StatAvgWeight = iota
	StatCoherence
	StatCorCor
	StatCorDegree
	StatCorContrib
	StatAvgCor
	StatAvgContrib

	// NumStats is the number of preservation statistics per module.
	NumStats = 7
)

// StatNames are the column names of the observed statistics matrix, in
// column order.
var StatNames = [NumStats]string{
	"avg.weight", "coherence", "cor.cor", "cor.degree", "cor.contrib",
	"avg.cor", "avg.contrib",
}

// NullModel selects which test-dataset nodes participate in permutation.
type NullModel string

const (
	// NullOverlap permutes only nodes present in both the module
	// assignments and the test dataset.
	NullOverlap NullModel = "overlap"
	// NullAll permutes every node of the test dataset.
	NullAll NullModel = "all"
)

// ParseNullModel validates a null hypothesis mode string.
func ParseNullModel(s string) (NullModel, error) {
	switch NullModel(s) {
	case NullOverlap, NullAll:
		return NullModel(s), nil
	}
	return "", fmt.Errorf("unknown null model %q (want %q or %q)", s, NullOverlap, NullAll)
}

// CoherenceMode controls whether module coherence averages signed or
// absolute node contributions. Which convention matches a given reference
// dataset is an empirical question, so it is a parameter rather than a
// constant.
type CoherenceMode int

const (
	CoherenceAbsolute CoherenceMode = iota
	CoherenceSigned
)

// Missing returns the sentinel marking an unavailable statistic. It is a
// quiet NaN; comparisons must go through IsMissing, never ==.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether x is the missing sentinel.
func IsMissing(x float64) bool {
	return math.IsNaN(x)
}

// Sanitize normalises any NaN produced by a computation (zero variance,
// empty input) to the canonical missing sentinel.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) {
		return Missing()
	}
	return x
}

// Dataset bundles the three matrices describing one dataset. Node ordering
// is identical across Data columns, Corr, and Net (upstream precondition).
type Dataset struct {
	// Data is the samples by nodes expression matrix. May be nil, in which
	// case only adjacency-based properties can be computed.
	Data *mat.Dense
	// Corr is the nodes by nodes correlation matrix.
	Corr *mat.Dense
	// Net is the nodes by nodes weighted adjacency matrix.
	Net *mat.Dense

	NodeNames   []string
	SampleNames []string
}

// NumNodes returns the node count of the dataset.
func (d *Dataset) NumNodes() int {
	return len(d.NodeNames)
}

// NumSamples returns the sample count, or 0 when no data matrix is present.
func (d *Dataset) NumSamples() int {
	if d.Data == nil {
		return 0
	}
	r, _ := d.Data.Dims()
	return r
}

// ModuleAssignments maps node labels to module labels while preserving the
// insertion order of nodes. Order matters: the resampling universe and the
// per-module member sequences are derived from it, and both must be stable
// across runs for reproducibility.
type ModuleAssignments struct {
	nodes  []string
	byNode map[string]string
}

// NewModuleAssignments creates an empty assignment set.
func NewModuleAssignments() *ModuleAssignments {
	return &ModuleAssignments{byNode: make(map[string]string)}
}

// Add records that node belongs to module. Re-adding a node overwrites its
// module but keeps its original position.
func (a *ModuleAssignments) Add(node, module string) {
	if _, seen := a.byNode[node]; !seen {
		a.nodes = append(a.nodes, node)
	}
	a.byNode[node] = module
}

// Nodes returns node labels in insertion order. Callers must not mutate the
// returned slice.
func (a *ModuleAssignments) Nodes() []string {
	return a.nodes
}

// ModuleOf returns the module a node belongs to.
func (a *ModuleAssignments) ModuleOf(node string) (string, bool) {
	m, ok := a.byNode[node]
	return m, ok
}

// Len returns the number of assigned nodes.
func (a *ModuleAssignments) Len() int {
	return len(a.nodes)
}
