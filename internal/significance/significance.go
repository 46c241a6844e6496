// Package significance derives empirical p-values and null-distribution
// summaries from a permutation run's output.
package significance

import (
	"math"

	"github.com/montanaflynn/stats"

	"netpres/domain/network"
)

// StatSignificance summarises one statistic of one module against its null
// distribution.
type StatSignificance struct {
	Statistic string  `json:"statistic"`
	Observed  float64 `json:"observed"`
	// PValue is the empirical permutation p-value with the standard
	// (b+1)/(n+1) correction, so it is never smaller than 1/(n+1).
	PValue   float64 `json:"p_value"`
	NullMean float64 `json:"null_mean"`
	NullSD   float64 `json:"null_sd"`
	NullP05  float64 `json:"null_p05"`
	NullP95  float64 `json:"null_p95"`
	// ValidPermutations counts null observations that were not missing.
	ValidPermutations int `json:"valid_permutations"`
}

// ModuleSummary holds the significance results for one module.
type ModuleSummary struct {
	Module     string                             `json:"module"`
	Statistics [network.NumStats]StatSignificance `json:"statistics"`
}

// Evaluate computes per-module, per-statistic permutation p-values. The
// preservation statistics are all oriented so that larger means better
// preserved, so the test is one-sided greater; twoTailed switches to a
// magnitude comparison instead.
func Evaluate(observed *network.ObservedMatrix, nulls *network.NullCube, twoTailed bool) []ModuleSummary {
	modules := observed.Modules()
	summaries := make([]ModuleSummary, len(modules))
	for m, mod := range modules {
		summaries[m].Module = mod
		for s := 0; s < network.NumStats; s++ {
			summaries[m].Statistics[s] = evaluateStat(
				network.StatNames[s],
				observed.At(m, s),
				nulls.NullDistribution(m, s),
				twoTailed,
			)
		}
	}
	return summaries
}

func evaluateStat(name string, obs float64, null []float64, twoTailed bool) StatSignificance {
	sig := StatSignificance{
		Statistic: name,
		Observed:  obs,
		PValue:    network.Missing(),
		NullMean:  network.Missing(),
		NullSD:    network.Missing(),
		NullP05:   network.Missing(),
		NullP95:   network.Missing(),
	}

	valid := make([]float64, 0, len(null))
	for _, v := range null {
		if !network.IsMissing(v) {
			valid = append(valid, v)
		}
	}
	sig.ValidPermutations = len(valid)
	if len(valid) == 0 {
		return sig
	}

	if mean, err := stats.Mean(valid); err == nil {
		sig.NullMean = network.Sanitize(mean)
	}
	if sd, err := stats.StandardDeviationSample(valid); err == nil {
		sig.NullSD = network.Sanitize(sd)
	}
	if p, err := stats.Percentile(valid, 5); err == nil {
		sig.NullP05 = network.Sanitize(p)
	}
	if p, err := stats.Percentile(valid, 95); err == nil {
		sig.NullP95 = network.Sanitize(p)
	}

	if network.IsMissing(obs) {
		return sig
	}
	extreme := 0
	for _, v := range valid {
		if twoTailed {
			if math.Abs(v) >= math.Abs(obs) {
				extreme++
			}
		} else {
			if v >= obs {
				extreme++
			}
		}
	}
	sig.PValue = float64(extreme+1) / float64(len(valid)+1)
	return sig
}
