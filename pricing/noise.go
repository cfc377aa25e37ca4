package pricing

import "math/rand"

// Noise is the single source of randomness for the pricing engine.
// Everything stochastic (competitor rate jitter, occupancy sampling,
// revenue variation) draws through this interface so tests can swap in
// a deterministic implementation and assert exact money amounts.
type Noise interface {
	// Uniform returns a sample in [lo, hi).
	Uniform(lo, hi float64) float64
}

// === SYSTEM NOISE ===

// SystemNoise draws from a dedicated rand.Rand.
type SystemNoise struct {
	rng *rand.Rand
}

// NewSystemNoise seeds a generator. Pass 0 to derive the seed from the
// default source, anything else for a reproducible stream.
func NewSystemNoise(seed int64) *SystemNoise {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &SystemNoise{rng: rand.New(rand.NewSource(seed))}
}

func (n *SystemNoise) Uniform(lo, hi float64) float64 {
	return lo + n.rng.Float64()*(hi-lo)
}

// === MIDPOINT NOISE ===

// Midpoint always returns the center of the interval. A multiplicative
// jitter of Uniform(1-x, 1+x) collapses to exactly 1.0, which makes
// projections reproducible down to the cent.
type Midpoint struct{}

func (Midpoint) Uniform(lo, hi float64) float64 {
	return (lo + hi) / 2
}

var (
	_ Noise = (*SystemNoise)(nil)
	_ Noise = Midpoint{}
)
