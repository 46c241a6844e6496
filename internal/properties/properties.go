// Package properties computes per-module network properties for a single
// dataset, without any permutation: summary profile, node contribution,
// module coherence, weighted degree, and average edge weight.
package properties

import (
	"gonum.org/v1/gonum/mat"

	"netpres/domain/network"
	"netpres/internal/errors"
	"netpres/internal/indexing"
	"netpres/internal/netstats"
)

// ModuleProperties holds the properties of one module. Per-node vectors
// cover the module's full membership in assignment order; nodes absent from
// the dataset hold the missing sentinel. When the dataset has no data
// matrix, Summary and Contribution are nil and Coherence is missing.
type ModuleProperties struct {
	Module string

	// Nodes is the module's full membership, aligned with Contribution and
	// Degree.
	Nodes []string
	// Samples names the entries of Summary.
	Samples []string

	Summary      []float64
	Contribution []float64
	Coherence    float64
	Degree       []float64
	AvgWeight    float64
}

// Input for NetworkProperties. The dataset's Data matrix is optional; the
// adjacency matrix is not.
type Input struct {
	Dataset     *network.Dataset
	Assignments *network.ModuleAssignments
	Modules     []string
	Coherence   network.CoherenceMode
}

// NetworkProperties computes the properties of each requested module.
// Modules with no members present in the dataset come back entirely
// missing; that is not an error.
func NetworkProperties(in Input) ([]ModuleProperties, error) {
	if in.Dataset == nil || in.Dataset.Net == nil {
		return nil, errors.ConfigInvalid("a dataset with an adjacency matrix is required")
	}
	if in.Assignments == nil || in.Assignments.Len() == 0 {
		return nil, errors.ConfigInvalid("module assignments must not be empty")
	}

	ds := in.Dataset
	nodeIndex := indexing.BuildIndexMap(ds.NodeNames)
	moduleMap := indexing.BuildModuleMap(in.Assignments)
	presentMap := indexing.BuildModuleMapPresent(in.Assignments, nodeIndex)

	var scaled *mat.Dense
	if ds.Data != nil {
		scaled = netstats.Scale(ds.Data)
	}

	results := make([]ModuleProperties, 0, len(in.Modules))
	for _, mod := range in.Modules {
		members := moduleMap[mod]
		props := ModuleProperties{
			Module:    mod,
			Nodes:     members,
			Coherence: network.Missing(),
			AvgWeight: network.Missing(),
			Degree:    missingVector(len(members)),
		}
		if scaled != nil {
			props.Samples = ds.SampleNames
			props.Summary = missingVector(ds.NumSamples())
			props.Contribution = missingVector(len(members))
		}

		// Positions of present members within the dataset and within the
		// full-membership result vectors.
		memberIndex := indexing.BuildIndexMap(members)
		nodeIdx := indexing.ResolveModuleIndices(mod, presentMap, nodeIndex)
		propIdx := indexing.ResolveModuleIndices(mod, presentMap, memberIndex)

		if len(nodeIdx) > 0 {
			rank := indexing.StableSortForLocality(nodeIdx)
			sorted := indexing.SortedForTraversal(nodeIdx, rank)

			degree := indexing.GatherByRank(netstats.WeightedDegree(ds.Net, sorted), rank)
			props.AvgWeight = netstats.AverageEdgeWeight(degree)
			scatter(props.Degree, degree, propIdx)

			if scaled != nil {
				profile := netstats.SummaryProfile(scaled, nodeIdx)
				contrib := indexing.GatherByRank(netstats.NodeContribution(scaled, sorted, profile), rank)
				props.Coherence = netstats.ModuleCoherence(contrib, in.Coherence)
				scatter(props.Contribution, contrib, propIdx)
				for i, v := range profile {
					props.Summary[i] = network.Sanitize(v)
				}
			}
		}
		results = append(results, props)
	}
	return results, nil
}

func missingVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = network.Missing()
	}
	return v
}

// scatter writes values into dst at the given positions, normalising NaN.
func scatter(dst, values []float64, positions []int) {
	for i, pos := range positions {
		dst[pos] = network.Sanitize(values[i])
	}
}
