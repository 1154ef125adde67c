package phrasegen

import "math/rand"

// Uniform abstracts over the source of randomness the Expander draws on,
// so callers can plug in a seeded, recorded, or otherwise deterministic
// source for reproducible output instead of depending on process-global
// randomness.
type Uniform interface {
	// NextBelow returns a uniformly distributed integer in [0, n). The
	// weighted selector prefers this over NextUnit so selection among
	// integer-weighted alternatives never picks up float rounding bias.
	NextBelow(n uint64) uint64

	// NextUnit returns a uniformly distributed float64 in [0, 1). It backs
	// selection whenever cumulative weights aren't representable as exact
	// integers (fractional explicit weights, for instance).
	NextUnit() float64
}

// mathRandSource adapts the stdlib math/rand generator to Uniform. It is
// the default source a Generator uses when none is supplied, matching the
// non-cryptographic PRNG the design notes call for.
type mathRandSource struct {
	r *rand.Rand
}

// NewDefaultRNG returns a Uniform backed by math/rand, seeded with seed. Two
// Generators given the same seed and the same grammar produce identical
// sequences of samples, which is useful for golden-file tests.
func NewDefaultRNG(seed int64) Uniform {
	return mathRandSource{r: rand.New(rand.NewSource(seed))}
}

func (m mathRandSource) NextBelow(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	if n <= uint64(1)<<63-1 {
		return uint64(m.r.Int63n(int64(n)))
	}
	// n exceeds what Int63n can express; fall back to a 64-bit draw modulo
	// n. The bias this introduces is negligible for the weight magnitudes
	// this package deals with.
	return m.r.Uint64() % n
}

func (m mathRandSource) NextUnit() float64 {
	return m.r.Float64()
}

// selectWeighted draws an index in [0, len(weights)) with probability
// proportional to weights[i]. It assumes every weight is non-negative and
// their sum is positive; callers (the Expander) guarantee this since a rule
// with all-zero weight alternatives is otherwise unreachable.
func selectWeighted(rng Uniform, weights []float64) int {
	var total float64
	allInt := true
	for _, w := range weights {
		total += w
		if w != float64(int64(w)) {
			allInt = false
		}
	}

	if allInt && total > 0 && total < float64(uint64(1)<<53) {
		target := rng.NextBelow(uint64(total))
		var acc uint64
		for i, w := range weights {
			acc += uint64(w)
			if target < acc {
				return i
			}
		}
		return len(weights) - 1
	}

	target := rng.NextUnit() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}
