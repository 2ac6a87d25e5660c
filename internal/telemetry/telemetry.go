// Package telemetry synthesizes reproducible activity metrics from a wallet address.
// Nothing here touches the network: every value is derived from the address string.
package telemetry

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ErrInvalidAddress is the sentinel matched by errors.Is for any InvalidAddressError.
var ErrInvalidAddress = errors.New("invalid Ethereum address format")

// InvalidAddressError is returned when an address fails the 0x + 40 hex check.
type InvalidAddressError struct {
	Address string
	Empty   bool
}

func (e *InvalidAddressError) Error() string {
	if e.Empty {
		return "please enter a wallet address"
	}
	return ErrInvalidAddress.Error()
}

// Message is the capitalized text shown to end users.
func (e *InvalidAddressError) Message() string {
	if e.Empty {
		return "Please enter a wallet address"
	}
	return "Invalid Ethereum address format"
}

// UserMessage returns the end-user text for err: the capitalized validation
// message for address errors, err.Error() otherwise.
func UserMessage(err error) string {
	var invalid *InvalidAddressError
	if errors.As(err, &invalid) {
		return invalid.Message()
	}
	return err.Error()
}

// Is lets errors.Is(err, ErrInvalidAddress) match.
func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}

// Derivation ranges. Each pair is inclusive.
const (
	MinTransactions  = 10
	MaxTransactions  = 250
	MinFirstActivity = 30
	MaxFirstActivity = 270
	MinUptime        = 40
	MaxUptime        = 98
	MinTaskScore     = 100
	MaxTaskScore     = 10000
)

// Sample is the synthetic telemetry bundle for one address.
type Sample struct {
	TransactionCount     int    `json:"transactions"`
	FirstActivityDaysAgo int    `json:"first_activity_days_ago"`
	UptimePercent        int    `json:"uptime_percent"`
	TaskScore            int    `json:"task_score"`
	HardwareTier         int    `json:"hardware_tier"`
	HardwareLabel        string `json:"hardware_label"`
}

// Validate checks the address format only.
func Validate(address string) error {
	if strings.TrimSpace(address) == "" {
		return &InvalidAddressError{Address: address, Empty: true}
	}
	if !addressPattern.MatchString(address) {
		return &InvalidAddressError{Address: address}
	}
	return nil
}

// Seed returns the base-16 value of address characters [2,10).
func Seed(address string) (uint64, error) {
	if err := Validate(address); err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.ToLower(address[2:10]), 16, 64)
}

// PatternByte returns the value of the trailing two hex characters (0-255).
func PatternByte(address string) (int, error) {
	if err := Validate(address); err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.ToLower(address[len(address)-2:]), 16, 8)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Synthesize derives the telemetry sample for address.
func Synthesize(address string) (Sample, error) {
	seed, err := Seed(address)
	if err != nil {
		return Sample{}, err
	}
	pattern, err := PatternByte(address)
	if err != nil {
		return Sample{}, err
	}

	tier, label := HardwareTier(pattern)
	return Sample{
		TransactionCount:     Rand(seed, MinTransactions, MaxTransactions),
		FirstActivityDaysAgo: Rand(seed, MinFirstActivity, MaxFirstActivity),
		UptimePercent:        Rand(seed, MinUptime, MaxUptime),
		TaskScore:            Rand(seed, MinTaskScore, MaxTaskScore),
		HardwareTier:         tier,
		HardwareLabel:        label,
	}, nil
}

// Rand maps seed into [min, max]. The min offset shifts the sine phase, so each
// range gets its own value for the same seed.
func Rand(seed uint64, min, max int) int {
	x := math.Sin(float64(seed)+float64(min)) * 10000
	frac := x - math.Floor(x)
	return int(math.Floor(frac*float64(max-min+1))) + min
}

// Hardware labels by tier.
const (
	LabelHighEnd = "High-end GPU (RTX 4090/A100)"
	LabelHighMid = "High-mid GPU (RTX 4070/3090)"
	LabelMid     = "Mid-range GPU (RTX 3070/4060)"
	LabelLowEnd  = "Low-end GPU (GTX/RTX 3050)"
	LabelBasic   = "CPU Only / Basic VPS"
)

// HardwareTier buckets a pattern byte into tiers 1-5.
func HardwareTier(pattern int) (int, string) {
	switch {
	case pattern > 200:
		return 5, LabelHighEnd
	case pattern > 150:
		return 4, LabelHighMid
	case pattern > 100:
		return 3, LabelMid
	case pattern > 50:
		return 2, LabelLowEnd
	default:
		return 1, LabelBasic
	}
}
