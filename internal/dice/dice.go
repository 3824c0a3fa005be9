package dice

import "math/rand/v2"

// Roller produces uniform six-sided die results.
type Roller struct {
	rng *rand.Rand
}

// New returns a Roller seeded with seed. A zero seed picks a random one,
// so the server stays unpredictable while tests can pin their rolls.
func New(seed uint64) *Roller {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Roller{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Roll returns count independent rolls, each in [1,6]. The count comes
// straight off the wire; a non-positive count yields an empty roll.
func (r *Roller) Roll(count int) []int {
	if count < 0 {
		count = 0
	}
	results := make([]int, count)
	for i := range results {
		results[i] = r.rng.IntN(6) + 1
	}
	return results
}

// Total sums a set of results.
func Total(results []int) int {
	total := 0
	for _, v := range results {
		total += v
	}
	return total
}
