package preserve

import (
	"math/rand"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"netpres/domain/network"
	"netpres/internal/indexing"
	"netpres/internal/netstats"
)

// nullWorker generates null-distribution observations for its assigned
// permutation slice range [start, start+count) of the cube.
//
// The worker owns a private copy of the resampling universe and reshuffles
// it at the top of every permutation, then relabels each module's members
// through the shuffled universe and recomputes the test-side statistics
// against the shared discovery cache. The cancellation flag is polled before
// each module and between sub-statistics; on cancellation the worker returns
// immediately, leaving the rest of its range at the missing sentinel.
type nullWorker struct {
	scaled    *mat.Dense
	test      *network.Dataset
	cache     discoveryCache
	modules   []string
	moduleMap map[string][]string
	universe  *indexing.Universe
	coherence network.CoherenceMode

	nulls *network.NullCube
	start int
	count int

	rng       *rand.Rand
	progress  *atomic.Int64
	cancelled *atomic.Bool
}

func (w *nullWorker) run() {
	shuffled := make([]int, len(w.universe.Indices))
	copy(shuffled, w.universe.Indices)

	for p := w.start; p < w.start+w.count; p++ {
		if w.cancelled.Load() {
			return
		}
		w.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for m, mod := range w.modules {
			if w.cancelled.Load() {
				return
			}
			idx := w.universe.PermutedIndices(w.moduleMap[mod], shuffled)
			if len(idx) == 0 {
				continue
			}

			corrVec := netstats.CorrVector(w.test.Corr, idx)
			if w.cancelled.Load() {
				return
			}

			rank := indexing.StableSortForLocality(idx)
			sorted := indexing.SortedForTraversal(idx, rank)
			degree := indexing.GatherByRank(netstats.WeightedDegree(w.test.Net, sorted), rank)
			if w.cancelled.Load() {
				return
			}
			profile := netstats.SummaryProfile(w.scaled, idx)
			if w.cancelled.Load() {
				return
			}
			contrib := indexing.GatherByRank(netstats.NodeContribution(w.scaled, sorted, profile), rank)
			if w.cancelled.Load() {
				return
			}

			ref := w.cache[mod]
			w.nulls.Set(m, network.StatAvgWeight, p, netstats.AverageEdgeWeight(degree))
			w.nulls.Set(m, network.StatCoherence, p, netstats.ModuleCoherence(contrib, w.coherence))
			w.nulls.Set(m, network.StatCorCor, p, netstats.Correlation(ref.corrVec, corrVec))
			w.nulls.Set(m, network.StatCorDegree, p, netstats.Correlation(ref.degree, degree))
			w.nulls.Set(m, network.StatCorContrib, p, netstats.Correlation(ref.contrib, contrib))
			w.nulls.Set(m, network.StatAvgCor, p, netstats.SignAwareMean(ref.corrVec, corrVec))
			w.nulls.Set(m, network.StatAvgContrib, p, netstats.SignAwareMean(ref.contrib, contrib))
		}
		w.progress.Add(1)
	}
}
