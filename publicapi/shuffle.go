package publicapi

import "math/rand"

// maxShuffleWindow bounds how far boundedShuffle may move an item from its
// score-sorted rank.
const maxShuffleWindow = 3

// boundedShuffle reorders a score-sorted top slice in place so repeated
// requests don't serve the exact same sequence, without disturbing the
// coarse ranking. Iterating from the end backward, each position swaps with
// one chosen at most window positions earlier, clamped to the slice. An item
// participates in at most one swap, so no item ends up more than window
// positions from its score-sorted rank. Great items stay near the top; this
// is an anti-staleness measure, not true shuffling.
//
// The random source is injected so tests can pin the boundedness property.
func boundedShuffle[T any](items []T, window int, r *rand.Rand) {
	if window <= 0 || len(items) < 2 {
		return
	}

	swapped := make([]bool, len(items))

	for i := len(items) - 1; i > 0; i-- {
		if swapped[i] {
			continue
		}

		lo := i - window
		if lo < 0 {
			lo = 0
		}
		j := lo + r.Intn(i-lo+1)
		if j == i || swapped[j] {
			continue
		}

		items[i], items[j] = items[j], items[i]
		swapped[i], swapped[j] = true, true
	}
}
