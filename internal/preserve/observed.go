package preserve

import (
	"gonum.org/v1/gonum/mat"

	"netpres/domain/network"
	"netpres/internal/indexing"
	"netpres/internal/netstats"
)

// moduleReference holds the discovery-side statistic vectors for one module.
// Built once before the workers start and never mutated afterwards, so all
// workers share it without synchronisation.
type moduleReference struct {
	corrVec []float64
	degree  []float64
	contrib []float64
}

// discoveryCache maps module label to its discovery-side reference vectors.
type discoveryCache map[string]moduleReference

// buildDiscoveryCache computes the discovery-side correlation, weighted
// degree, and node contribution vectors for each module, in module-member
// order.
func buildDiscoveryCache(scaled *mat.Dense, ds *network.Dataset, modules []string, moduleMap map[string][]string, index map[string]int) discoveryCache {
	cache := make(discoveryCache, len(modules))
	for _, mod := range modules {
		idx := indexing.ResolveModuleIndices(mod, moduleMap, index)
		if len(idx) == 0 {
			cache[mod] = moduleReference{}
			continue
		}
		rank := indexing.StableSortForLocality(idx)
		sorted := indexing.SortedForTraversal(idx, rank)

		profile := netstats.SummaryProfile(scaled, idx)
		cache[mod] = moduleReference{
			corrVec: netstats.CorrVector(ds.Corr, idx),
			degree:  indexing.GatherByRank(netstats.WeightedDegree(ds.Net, sorted), rank),
			contrib: indexing.GatherByRank(netstats.NodeContribution(scaled, sorted, profile), rank),
		}
	}
	return cache
}

// testStatistics computes the seven preservation statistics for a module
// resolved to the test-dataset indices idx, against its discovery reference.
func testStatistics(scaled *mat.Dense, ds *network.Dataset, idx []int, ref moduleReference, coherence network.CoherenceMode) [network.NumStats]float64 {
	var stats [network.NumStats]float64

	corrVec := netstats.CorrVector(ds.Corr, idx)

	rank := indexing.StableSortForLocality(idx)
	sorted := indexing.SortedForTraversal(idx, rank)
	degree := indexing.GatherByRank(netstats.WeightedDegree(ds.Net, sorted), rank)
	profile := netstats.SummaryProfile(scaled, idx)
	contrib := indexing.GatherByRank(netstats.NodeContribution(scaled, sorted, profile), rank)

	stats[network.StatAvgWeight] = netstats.AverageEdgeWeight(degree)
	stats[network.StatCoherence] = netstats.ModuleCoherence(contrib, coherence)
	stats[network.StatCorCor] = netstats.Correlation(ref.corrVec, corrVec)
	stats[network.StatCorDegree] = netstats.Correlation(ref.degree, degree)
	stats[network.StatCorContrib] = netstats.Correlation(ref.contrib, contrib)
	stats[network.StatAvgCor] = netstats.SignAwareMean(ref.corrVec, corrVec)
	stats[network.StatAvgContrib] = netstats.SignAwareMean(ref.contrib, contrib)
	return stats
}

// observedPass fills the observed-statistics matrix: one unpermuted run of
// the test-side statistics per module. Modules with no resolvable test
// nodes keep their missing-initialised row.
func observedPass(scaled *mat.Dense, test *network.Dataset, modules []string, moduleMap map[string][]string, testIndex map[string]int, cache discoveryCache, coherence network.CoherenceMode, observed *network.ObservedMatrix) {
	for m, mod := range modules {
		idx := indexing.ResolveModuleIndices(mod, moduleMap, testIndex)
		if len(idx) == 0 {
			continue
		}
		stats := testStatistics(scaled, test, idx, cache[mod], coherence)
		for s, v := range stats {
			observed.Set(m, s, v)
		}
	}
}
