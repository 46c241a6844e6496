// Package preserve implements the module preservation permutation
// procedure: an observed pass computing seven preservation statistics per
// module, and a multi-worker permutation engine building their empirical
// null distributions under random node relabeling.
package preserve

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"netpres/domain/core"
	"netpres/domain/network"
	"netpres/internal/errors"
	"netpres/internal/indexing"
	"netpres/internal/netstats"
)

// Input carries everything the permutation procedure needs. Input
// validation beyond the basics below (matrix dimensions, label alignment,
// module coverage) is the caller's responsibility.
type Input struct {
	Discovery *network.Dataset
	Test      *network.Dataset

	Assignments *network.ModuleAssignments
	Modules     []string

	Permutations int
	Workers      int
	NullModel    network.NullModel
	Coherence    network.CoherenceMode

	// Seed fixes the permutation randomness; 0 draws from the clock. With
	// a single worker a fixed seed reproduces the null cube exactly.
	Seed int64

	Verbose bool
	Log     func(format string, args ...interface{})
}

// Result is the outcome of a permutation run. On cancellation the observed
// matrix is complete but permutation slices not reached remain missing.
type Result struct {
	RunID     core.RunID
	Observed  *network.ObservedMatrix
	Nulls     *network.NullCube
	Cancelled bool
	Seed      int64
	Elapsed   time.Duration
}

// PermutationProcedure runs the observed pass and the permutation engine.
// Cancellation through ctx is cooperative and non-fatal: partial results are
// returned with the remaining cells missing.
func PermutationProcedure(ctx context.Context, in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	logf := func(format string, args ...interface{}) {}
	if in.Verbose && in.Log != nil {
		logf = in.Log
	}
	seed := in.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	started := time.Now()

	dScaled := netstats.Scale(in.Discovery.Data)
	tScaled := netstats.Scale(in.Test.Data)

	dIndex := indexing.BuildIndexMap(in.Discovery.NodeNames)
	tIndex := indexing.BuildIndexMap(in.Test.NodeNames)

	// Module membership is restricted to nodes present in both datasets so
	// that the cached discovery vectors and the test-side vectors stay
	// element-wise aligned for the correlation statistics.
	shared := make(map[string]int, len(tIndex))
	for node, pos := range tIndex {
		if _, ok := dIndex[node]; ok {
			shared[node] = pos
		}
	}
	moduleMap := indexing.BuildModuleMapPresent(in.Assignments, shared)

	universe, err := indexing.BuildResamplingUniverse(in.NullModel, in.Assignments, in.Test.NodeNames, tIndex)
	if err != nil {
		return nil, err
	}

	cache := buildDiscoveryCache(dScaled, in.Discovery, in.Modules, moduleMap, dIndex)

	logf("calculating observed test statistics...")
	observed := network.NewObservedMatrix(in.Modules)
	observedPass(tScaled, in.Test, in.Modules, moduleMap, tIndex, cache, in.Coherence, observed)

	logf("generating null distributions from %d permutations using %d worker(s)...", in.Permutations, in.Workers)
	nulls := network.NewNullCube(in.Modules, in.Permutations)

	quotas := SplitPermutations(in.Permutations, in.Workers)
	starts := StartIndices(quotas)
	progress := make([]atomic.Int64, in.Workers)

	var cancelled atomic.Bool
	if ctx.Err() != nil {
		cancelled.Store(true)
	}

	var g errgroup.Group
	for i := 0; i < in.Workers; i++ {
		w := &nullWorker{
			scaled:    tScaled,
			test:      in.Test,
			cache:     cache,
			modules:   in.Modules,
			moduleMap: moduleMap,
			universe:  universe,
			coherence: in.Coherence,
			nulls:     nulls,
			start:     starts[i],
			count:     quotas[i],
			rng:       rand.New(rand.NewSource(seed + int64(i))),
			progress:  &progress[i],
			cancelled: &cancelled,
		}
		g.Go(func() error {
			w.run()
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		g.Wait() //nolint:errcheck // workers never return errors
		close(finished)
	}()
	monitorProgress(ctx, finished, progress, in.Permutations, &cancelled, logf)

	return &Result{
		RunID:     core.RunID(core.NewID()),
		Observed:  observed,
		Nulls:     nulls,
		Cancelled: cancelled.Load(),
		Seed:      seed,
		Elapsed:   time.Since(started),
	}, nil
}

func validate(in Input) error {
	switch {
	case in.Discovery == nil || in.Test == nil:
		return errors.ConfigInvalid("both discovery and test datasets are required")
	case in.Discovery.Data == nil || in.Test.Data == nil:
		return errors.ConfigInvalid("the permutation procedure requires data matrices in both datasets")
	case in.Discovery.Corr == nil || in.Discovery.Net == nil || in.Test.Corr == nil || in.Test.Net == nil:
		return errors.ConfigInvalid("correlation and adjacency matrices are required in both datasets")
	case in.Assignments == nil || in.Assignments.Len() == 0:
		return errors.ConfigInvalid("module assignments must not be empty")
	case len(in.Modules) == 0:
		return errors.ConfigInvalid("at least one module must be requested")
	case in.Permutations <= 0:
		return errors.ConfigInvalid("permutation count must be positive")
	case in.Workers <= 0:
		return errors.ConfigInvalid("worker count must be positive")
	}
	_, err := network.ParseNullModel(string(in.NullModel))
	return err
}
