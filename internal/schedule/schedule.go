package schedule

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidScore is returned when a rating's score is not a number.
var ErrInvalidScore = errors.New("schedule: score is not a number")

// StabilityFloor is the minimum stability an item can hold.
const StabilityFloor = 1.0

// State is the scheduling state of an item at the moment it is rated.
type State struct {
	IntervalMinutes int
	Stability       float64
}

// Result is the state computed for an item after a rating, plus the
// timestamp at which the item is next due.
type Result struct {
	State
	NextDueAt time.Time
}

// Params holds the constants of the three-band scheduling heuristic.
// Scores at or above EasyThreshold grow the interval by EasyMultiplier,
// scores between HardThreshold and EasyThreshold grow it by HardMultiplier,
// and anything below HardThreshold resets the item to ForgotMinutes.
type Params struct {
	EasyThreshold float64
	HardThreshold float64

	// First-review intervals, used while the current interval is zero.
	EasyBaseMinutes int
	HardBaseMinutes int

	EasyMultiplier float64
	HardMultiplier float64
	ForgotMinutes  int

	// MaxIntervalMinutes caps interval growth; without it a long streak of
	// easy ratings overflows the interval arithmetic.
	MaxIntervalMinutes int

	// Stability moves up by Reward on an easy rating and down by Penalty
	// (floored at StabilityFloor) on a forgotten one.
	StabilityReward  float64
	StabilityPenalty float64
}

// DefaultParams provides the standard band constants.
func DefaultParams() *Params {
	return &Params{
		EasyThreshold:      0.8,
		HardThreshold:      0.5,
		EasyBaseMinutes:    1440,
		HardBaseMinutes:    720,
		EasyMultiplier:     2.5,
		HardMultiplier:     1.5,
		ForgotMinutes:      10,
		MaxIntervalMinutes: 52560000, // 100 years
		StabilityReward:    0.5,
		StabilityPenalty:   0.2,
	}
}

// Next computes the scheduling state following a rating.
//
// The function is pure: identical (current, score, now) inputs always produce
// identical results. The caller owns persistence. Scores outside [0, 1] are
// accepted and fall into a band like any other value; only NaN is rejected.
func (p *Params) Next(current State, score float64, now time.Time) (Result, error) {
	if math.IsNaN(score) {
		return Result{}, ErrInvalidScore
	}

	interval := current.IntervalMinutes
	if interval < 0 {
		interval = 0
	}
	stability := current.Stability
	if stability < StabilityFloor {
		stability = StabilityFloor
	}

	var next State
	switch {
	case score >= p.EasyThreshold:
		next.IntervalMinutes = p.grow(interval, p.EasyBaseMinutes, p.EasyMultiplier)
		next.Stability = stability + p.StabilityReward
	case score >= p.HardThreshold:
		next.IntervalMinutes = p.grow(interval, p.HardBaseMinutes, p.HardMultiplier)
		next.Stability = stability
	default:
		next.IntervalMinutes = p.ForgotMinutes
		next.Stability = math.Max(StabilityFloor, stability-p.StabilityPenalty)
	}

	return Result{
		State:     next,
		NextDueAt: now.Add(time.Duration(next.IntervalMinutes) * time.Minute),
	}, nil
}

// grow returns the next interval for a successful review: the band's base
// while the interval is zero, otherwise the interval scaled and rounded up.
// Growth is clamped before the float-to-int conversion, which would
// otherwise be undefined once the scaled value exceeds the int range.
func (p *Params) grow(interval, base int, multiplier float64) int {
	if interval == 0 {
		return base
	}
	grown := math.Ceil(float64(interval) * multiplier)
	if grown > float64(p.MaxIntervalMinutes) {
		return p.MaxIntervalMinutes
	}
	return int(grown)
}
