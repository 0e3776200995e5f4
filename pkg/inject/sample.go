package inject

import "math/rand/v2"

// sampleTargets draws a uniform count in [1, n] and then a uniform subset of
// that size without replacement. The input slice is not modified; the
// result is in draw order.
func sampleTargets[T any](rng *rand.Rand, items []T) []T {
	if len(items) == 0 {
		return nil
	}
	return sampleN(rng, items, 1+rng.IntN(len(items)))
}

// sampleN draws k distinct elements with a partial Fisher-Yates shuffle.
func sampleN[T any](rng *rand.Rand, items []T, k int) []T {
	if k > len(items) {
		k = len(items)
	}
	pool := make([]T, len(items))
	copy(pool, items)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// choose returns one uniformly chosen element.
func choose[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
