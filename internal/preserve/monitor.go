package preserve

import (
	"context"
	"sync/atomic"
	"time"
)

// monitorInterval is how often the progress display is refreshed.
const monitorInterval = time.Second

// monitorProgress polls the per-worker progress counters and the caller's
// context at a fixed interval, reporting completion percentage through the
// log callback and flipping the shared cancellation flag when the context is
// cancelled. The workers only ever read the flag; cancellation always
// originates here. Returns when all workers have finished.
func monitorProgress(ctx context.Context, finished <-chan struct{}, progress []atomic.Int64, total int, cancelled *atomic.Bool, logf func(string, ...interface{})) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	report := func() {
		done := completedPermutations(progress)
		pct := 100.0
		if total > 0 {
			pct = 100 * float64(done) / float64(total)
		}
		logf("%d of %d permutations complete (%.1f%%)", done, total, pct)
	}

	for {
		select {
		case <-ctx.Done():
			if !cancelled.Swap(true) {
				logf("cancellation requested, stopping workers...")
			}
			// Keep draining until the workers notice the flag and exit.
			select {
			case <-finished:
				return
			case <-ticker.C:
			}
		case <-ticker.C:
			report()
		case <-finished:
			report()
			return
		}
	}
}

// completedPermutations sums the per-worker counters. The read is racy with
// respect to in-flight increments, which is fine for a progress display.
func completedPermutations(progress []atomic.Int64) int {
	total := 0
	for i := range progress {
		total += int(progress[i].Load())
	}
	return total
}
