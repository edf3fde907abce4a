package logs

import "math/rand"

// ClickPolicy decides the clicks/CTR fields of an assembled search log.
// ok=false leaves both unset (pass-through mode).
type ClickPolicy interface {
	Simulate(resultCount int) (clicks int, ctr float64, ok bool)
}

// Passthrough leaves clicks and CTR unset.
type Passthrough struct{}

func (Passthrough) Simulate(int) (int, float64, bool) { return 0, 0, false }

// Fixed stamps every log with the same clicks and CTR. Useful as a
// deterministic test fixture.
type Fixed struct {
	Clicks int
	CTR    float64
}

func (f Fixed) Simulate(int) (int, float64, bool) { return f.Clicks, f.CTR, true }

// Random simulates clicks uniformly over the returned results and derives
// CTR from them. Seeded so runs can be reproduced.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a seeded random click policy.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Simulate(resultCount int) (int, float64, bool) {
	if resultCount == 0 {
		return 0, 0, true
	}
	clicks := r.rng.Intn(resultCount + 1)
	return clicks, float64(clicks) / float64(resultCount), true
}
