package preserve

// SplitPermutations divides a permutation budget across workers as evenly as
// possible: every worker gets the integer quotient and the first
// total%workers workers get one extra. The quotas always sum to total.
func SplitPermutations(total, workers int) []int {
	quotas := make([]int, workers)
	for i := range quotas {
		quotas[i] = total / workers
	}
	for i := 0; i < total%workers; i++ {
		quotas[i]++
	}
	return quotas
}

// StartIndices returns each worker's first permutation slice as the prefix
// sum of the preceding quotas. Together with the quota this fixes every
// worker's write range in the null cube at spawn time; the ranges are
// contiguous and disjoint, which is the whole concurrency-safety argument
// for the lock-free cube writes.
func StartIndices(quotas []int) []int {
	starts := make([]int, len(quotas))
	sum := 0
	for i, q := range quotas {
		starts[i] = sum
		sum += q
	}
	return starts
}
