// Package netstats implements the network statistic primitives behind the
// module preservation statistics. All functions are pure: they read their
// matrix inputs and allocate their outputs, so they are safe to call from
// concurrent workers as long as the inputs are not mutated.
package netstats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"netpres/domain/network"
)

// Scale standardises each column of data to zero mean and unit standard
// deviation (sample variance). Zero-variance columns become NaN and flow
// through the pipeline as numeric degeneracy, surfacing as missing.
func Scale(data *mat.Dense) *mat.Dense {
	rows, cols := data.Dims()
	scaled := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, data)
		mean, sd := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			scaled.Set(i, j, (col[i]-mean)/sd)
		}
	}
	return scaled
}

// SummaryProfile computes the per-sample summary of a module's expression:
// the dominant shared signal among the module's columns of the scaled data
// matrix, sign-fixed to correlate positively with the module's average
// column so that sign comparisons between datasets are meaningful.
//
// With a single member the member's column is returned unchanged; with no
// members the result is nil.
func SummaryProfile(scaled *mat.Dense, idx []int) []float64 {
	rows, _ := scaled.Dims()
	if len(idx) == 0 {
		return nil
	}
	if len(idx) == 1 {
		col := make([]float64, rows)
		mat.Col(col, idx[0], scaled)
		return col
	}

	sub := submatrix(scaled, idx)

	var svd mat.SVD
	if ok := svd.Factorize(sub, mat.SVDThinU); !ok {
		// Degenerate input; report the profile as missing and let the
		// downstream statistics follow.
		profile := make([]float64, rows)
		for i := range profile {
			profile[i] = network.Missing()
		}
		return profile
	}
	var u mat.Dense
	svd.UTo(&u)

	profile := make([]float64, rows)
	mat.Col(profile, 0, &u)

	// The singular vector's sign is arbitrary. Anchor it to the module's
	// mean expression so the profile direction is deterministic.
	meanExpr := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < len(idx); j++ {
			sum += sub.At(i, j)
		}
		meanExpr[i] = sum / float64(len(idx))
	}
	if Correlation(profile, meanExpr) < 0 {
		for i := range profile {
			profile[i] = -profile[i]
		}
	}
	return profile
}

// NodeContribution returns, for each member in idx order, the correlation
// between that member's scaled profile and the module summary profile.
func NodeContribution(scaled *mat.Dense, idx []int, profile []float64) []float64 {
	rows, _ := scaled.Dims()
	contrib := make([]float64, len(idx))
	col := make([]float64, rows)
	for i, node := range idx {
		mat.Col(col, node, scaled)
		contrib[i] = Correlation(col, profile)
	}
	return contrib
}

// WeightedDegree returns, for each member in idx order, the sum of edge
// weights to the other members of the module, excluding the self-loop.
func WeightedDegree(net *mat.Dense, idx []int) []float64 {
	degree := make([]float64, len(idx))
	for j, nj := range idx {
		sum := 0.0
		for _, ni := range idx {
			sum += net.At(ni, nj)
		}
		degree[j] = sum - net.At(nj, nj)
	}
	return degree
}

// AverageEdgeWeight is the mean weighted degree of the module, missing when
// the module has fewer than two members.
func AverageEdgeWeight(degree []float64) float64 {
	if len(degree) < 2 {
		return network.Missing()
	}
	sum := 0.0
	for _, d := range degree {
		sum += d
	}
	return network.Sanitize(sum / float64(len(degree)))
}

// ModuleCoherence averages the node contributions of a module. The mode
// selects signed or absolute averaging; missing entries are excluded.
func ModuleCoherence(contrib []float64, mode network.CoherenceMode) float64 {
	sum := 0.0
	n := 0
	for _, c := range contrib {
		if network.IsMissing(c) {
			continue
		}
		if mode == network.CoherenceAbsolute {
			c = math.Abs(c)
		}
		sum += c
		n++
	}
	if n == 0 {
		return network.Missing()
	}
	return network.Sanitize(sum / float64(n))
}

// CorrVector flattens the upper triangle (excluding the diagonal) of the
// module's correlation submatrix, visiting pairs in module-member order so
// discovery and test vectors align element-wise.
func CorrVector(corr *mat.Dense, idx []int) []float64 {
	k := len(idx)
	v := make([]float64, 0, k*(k-1)/2)
	for j := 1; j < k; j++ {
		for i := 0; i < j; i++ {
			v = append(v, corr.At(idx[i], idx[j]))
		}
	}
	return v
}

// Correlation computes the Pearson correlation of two equal-length vectors
// with pairwise exclusion of missing entries. Missing when fewer than two
// valid pairs remain or a vector is constant over them.
func Correlation(ref, test []float64) float64 {
	if len(ref) != len(test) {
		return network.Missing()
	}
	xs, ys := completePairs(ref, test)
	if len(xs) < 2 {
		return network.Missing()
	}
	return network.Sanitize(stat.Correlation(xs, ys, nil))
}

// SignAwareMean computes mean(sign(ref) * test) with pairwise exclusion of
// missing entries, rewarding test values aligned in direction with the
// reference. Missing when no valid pairs remain.
func SignAwareMean(ref, test []float64) float64 {
	if len(ref) != len(test) {
		return network.Missing()
	}
	sum := 0.0
	n := 0
	for i := range ref {
		if math.IsNaN(ref[i]) || math.IsNaN(test[i]) {
			continue
		}
		switch {
		case ref[i] > 0:
			sum += test[i]
		case ref[i] < 0:
			sum -= test[i]
		}
		n++
	}
	if n == 0 {
		return network.Missing()
	}
	return network.Sanitize(sum / float64(n))
}

// completePairs drops index positions where either vector is NaN.
func completePairs(a, b []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	return xs, ys
}

// submatrix copies the columns named by idx into a dense rows x len(idx)
// matrix.
func submatrix(m *mat.Dense, idx []int) *mat.Dense {
	rows, _ := m.Dims()
	sub := mat.NewDense(rows, len(idx), nil)
	col := make([]float64, rows)
	for j, node := range idx {
		mat.Col(col, node, m)
		sub.SetCol(j, col)
	}
	return sub
}
