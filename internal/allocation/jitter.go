package allocation

import (
	"math"
	"math/rand/v2"
)

// JitterSource yields the jitter fraction in [0,1) for an address seed.
type JitterSource interface {
	Fraction(seed uint64) float64
}

// jitterPhase keeps the address jitter off the phases the telemetry ranges use.
const jitterPhase = 1

// AddressJitter derives the fraction from the seed, so the same address always
// gets the same estimate.
type AddressJitter struct{}

// Fraction implements JitterSource.
func (AddressJitter) Fraction(seed uint64) float64 {
	x := math.Sin(float64(seed)+jitterPhase) * 10000
	return x - math.Floor(x)
}

// RandomJitter draws a fresh uniform fraction on every call and ignores the seed.
type RandomJitter struct{}

// Fraction implements JitterSource.
func (RandomJitter) Fraction(uint64) float64 {
	return rand.Float64()
}

// FixedJitter always returns the same fraction. 0.5 disables jitter.
type FixedJitter float64

// Fraction implements JitterSource.
func (f FixedJitter) Fraction(uint64) float64 {
	return float64(f)
}

// NewJitterSource picks a source by mode name: "random", "none", or "address" (default).
func NewJitterSource(mode string) JitterSource {
	switch mode {
	case "random":
		return RandomJitter{}
	case "none":
		return FixedJitter(0.5)
	default:
		return AddressJitter{}
	}
}
