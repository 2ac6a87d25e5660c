// Package estimator is the single entry point that turns an address into an allocation estimate.
// It chains the telemetry synthesizer and the allocation scorer, then fans the result out to sinks.
package estimator

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Manjussha/allocheck/internal/allocation"
	"github.com/Manjussha/allocheck/internal/telemetry"
)

// Disclaimer accompanies every estimate.
const Disclaimer = "Estimates only. Not official allocation data. Values are simulated from the address."

// ReferencePrices are the per-token USD prices used for valuations.
var ReferencePrices = []float64{0.05, 0.10}

// Valuation is the USD value of an estimate at one reference price.
type Valuation struct {
	PriceUSD float64 `json:"price_usd"`
	ValueUSD int     `json:"value_usd"`
}

// Estimate is the full result of one evaluation.
type Estimate struct {
	ID         string            `json:"id"`
	Address    string            `json:"address"`
	Telemetry  telemetry.Sample  `json:"telemetry"`
	Allocation allocation.Result `json:"allocation"`
	Valuations []Valuation       `json:"valuations"`
	Disclaimer string            `json:"disclaimer"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Sink receives every successful estimate. Sinks must not block for long.
type Sink interface {
	Publish(ctx context.Context, e *Estimate)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e *Estimate)

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, e *Estimate) { f(ctx, e) }

// Estimator evaluates addresses.
type Estimator struct {
	latency time.Duration
	jitter  allocation.JitterSource
	sinks   []Sink
}

// New creates an Estimator. latency is the simulated lookup delay; zero disables it.
// A nil jitter source defaults to AddressJitter.
func New(latency time.Duration, jitter allocation.JitterSource) *Estimator {
	if jitter == nil {
		jitter = allocation.AddressJitter{}
	}
	return &Estimator{latency: latency, jitter: jitter}
}

// AddSink registers a sink. Not safe to call concurrently with Evaluate.
func (e *Estimator) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

// Evaluate validates address, waits the simulated latency, and scores it.
// Invalid input returns a *telemetry.InvalidAddressError before any delay.
func (e *Estimator) Evaluate(ctx context.Context, address string) (*Estimate, error) {
	sample, err := telemetry.Synthesize(address)
	if err != nil {
		return nil, err
	}
	seed, err := telemetry.Seed(address)
	if err != nil {
		return nil, err
	}

	if err := e.wait(ctx); err != nil {
		return nil, fmt.Errorf("estimator.Evaluate: %w", err)
	}

	result := allocation.Score(sample, e.jitter.Fraction(seed))
	est := &Estimate{
		ID:         uuid.NewString(),
		Address:    address,
		Telemetry:  sample,
		Allocation: result,
		Valuations: Valuations(result.EstimatedTokens),
		Disclaimer: Disclaimer,
		CheckedAt:  time.Now().UTC(),
	}

	for _, s := range e.sinks {
		s.Publish(ctx, est)
	}
	log.Printf("estimator: %s → %d tokens (tier %d)", address, result.EstimatedTokens, result.Tier)
	return est, nil
}

func (e *Estimator) wait(ctx context.Context) error {
	if e.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Valuations prices tokens at each reference price, rounded down to whole dollars.
func Valuations(tokens int) []Valuation {
	out := make([]Valuation, 0, len(ReferencePrices))
	for _, p := range ReferencePrices {
		out = append(out, Valuation{
			PriceUSD: p,
			ValueUSD: int(math.Floor(float64(tokens) * p)),
		})
	}
	return out
}
