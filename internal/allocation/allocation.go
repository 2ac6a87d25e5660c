// Package allocation turns a telemetry sample into a token estimate, a tier, and a breakdown.
package allocation

import (
	"math"

	"github.com/Manjussha/allocheck/internal/telemetry"
)

// Pool and normalization constants.
const (
	TotalPool             = 160_000_000 // 1.6% of a 10B supply
	EstimatedParticipants = 30_000
	AverageWeightedScore  = 5_000
	MinAllocation         = 1_000

	TaskScoreWeight = 0.4
	JitterSpread    = 0.1 // ±10% of the raw allocation
)

// Breakdown display weights. Applied to the fully multiplied weighted score.
const (
	BaseWeight          = 5
	HardwareBonusWeight = 0.3
	EarlyBonusWeight    = 0.2
	UptimeBonusWeight   = 0.15
)

// HardwareMultipliers maps hardware tier to its score multiplier.
var HardwareMultipliers = map[int]float64{
	1: 1.0,
	2: 1.5,
	3: 2.0,
	4: 3.0,
	5: 5.0,
}

// Tier is an allocation size bucket. 1 is the largest.
type Tier int

const (
	TierElite   Tier = 1
	TierHigh    Tier = 2
	TierMidHigh Tier = 3
	TierMid     Tier = 4
	TierLow     Tier = 5
)

// Tier thresholds on the estimated token count (strictly greater than).
const (
	EliteThreshold   = 70_000
	HighThreshold    = 40_000
	MidHighThreshold = 15_000
	MidThreshold     = 5_000
)

// Label returns the display name for the tier.
func (t Tier) Label() string {
	switch t {
	case TierElite:
		return "Elite (Top 5%)"
	case TierHigh:
		return "High (Top 15%)"
	case TierMidHigh:
		return "Mid-High (Top 30%)"
	case TierMid:
		return "Mid (Top 60%)"
	default:
		return "Low (Bottom 40%)"
	}
}

// Breakdown is for display only. Its fields do not sum to the estimate.
type Breakdown struct {
	Base          int `json:"base"`
	HardwareBonus int `json:"hardware_bonus"`
	EarlyBonus    int `json:"early_bonus"`
	UptimeBonus   int `json:"uptime_bonus"`
}

// Result is the scored allocation for one sample.
type Result struct {
	EstimatedTokens int       `json:"estimated_tokens"`
	Tier            Tier      `json:"tier"`
	TierLabel       string    `json:"tier_label"`
	Breakdown       Breakdown `json:"breakdown"`
}

// HardwareMultiplier returns the multiplier for a hardware tier.
// Tiers outside 1-5 fall back to 1.0.
func HardwareMultiplier(tier int) float64 {
	if m, ok := HardwareMultipliers[tier]; ok {
		return m
	}
	return 1.0
}

// EarlyMultiplier rewards older first activity.
func EarlyMultiplier(daysAgo int) float64 {
	switch {
	case daysAgo > 240:
		return 3.0
	case daysAgo > 180:
		return 2.5
	case daysAgo > 120:
		return 2.0
	case daysAgo > 60:
		return 1.5
	default:
		return 1.2
	}
}

// UptimeMultiplier rewards consistent uptime.
func UptimeMultiplier(percent int) float64 {
	switch {
	case percent > 90:
		return 1.5
	case percent > 70:
		return 1.3
	case percent > 50:
		return 1.1
	default:
		return 1.0
	}
}

// WeightedScore is the product of the task score weight and all three multipliers.
func WeightedScore(s telemetry.Sample) float64 {
	w := float64(s.TaskScore) * TaskScoreWeight
	w *= HardwareMultiplier(s.HardwareTier)
	w *= EarlyMultiplier(s.FirstActivityDaysAgo)
	w *= UptimeMultiplier(s.UptimePercent)
	return w
}

// RawAllocation normalizes a weighted score into a share of the pool.
func RawAllocation(weighted float64) int {
	share := weighted / (AverageWeightedScore * EstimatedParticipants)
	return int(math.Floor(share * TotalPool))
}

// ApplyJitter perturbs raw by up to ±JitterSpread. fraction must be in [0,1);
// 0.5 leaves raw unchanged.
func ApplyJitter(raw int, fraction float64) int {
	variance := float64(raw) * JitterSpread
	return int(math.Floor(float64(raw) + (fraction*variance*2 - variance)))
}

// Classify maps a token estimate to its tier.
func Classify(tokens int) Tier {
	switch {
	case tokens > EliteThreshold:
		return TierElite
	case tokens > HighThreshold:
		return TierHigh
	case tokens > MidHighThreshold:
		return TierMidHigh
	case tokens > MidThreshold:
		return TierMid
	default:
		return TierLow
	}
}

// Score computes the allocation for s using the given jitter fraction.
func Score(s telemetry.Sample, jitter float64) Result {
	weighted := WeightedScore(s)
	final := ApplyJitter(RawAllocation(weighted), jitter)

	estimated := final
	if estimated < MinAllocation {
		estimated = MinAllocation
	}
	tier := Classify(estimated)

	return Result{
		EstimatedTokens: estimated,
		Tier:            tier,
		TierLabel:       tier.Label(),
		Breakdown: Breakdown{
			Base:          s.TaskScore * BaseWeight,
			HardwareBonus: int(math.Floor(weighted * HardwareBonusWeight)),
			EarlyBonus:    int(math.Floor(weighted * EarlyBonusWeight)),
			UptimeBonus:   int(math.Floor(weighted * UptimeBonusWeight)),
		},
	}
}
