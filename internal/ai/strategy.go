// internal/ai/strategy.go
//
// AI opponent guess selection.
// Responsibilities:
//   - First guess: floor((min+max)/2).
//   - With a fitted model: predict from (range, last guess, attempt index,
//     last feedback), clamp into range, round half up.
//   - Without a model: bisect the sub-range implied by every prior feedback.
//
// Output is always an integer inside the range.

package ai

import (
	"math"

	"github.com/robalobadob/guessnumber/internal/game"
	"github.com/robalobadob/guessnumber/internal/predictor"
)

// Model is the part of a fitted predictor the strategy needs.
type Model interface {
	Predict(f predictor.Features) float64
}

// Strategy implements game.Guesser.
type Strategy struct {
	model Model
}

// New returns a strategy backed by model; a nil model selects bisection.
func New(model Model) *Strategy {
	return &Strategy{model: model}
}

// UsesModel reports whether predictions come from a fitted model.
func (s *Strategy) UsesModel() bool { return s.model != nil }

// NextGuess picks the AI's next guess given its own scored history.
func (s *Strategy) NextGuess(r game.Range, history []game.Scored) int {
	if len(history) == 0 {
		return r.Midpoint()
	}
	if s.model == nil {
		return Bisect(r, history)
	}
	last := history[len(history)-1]
	raw := s.model.Predict(predictor.Features{
		RangeMin:     r.Min,
		RangeMax:     r.Max,
		LastGuess:    last.Guess,
		AttemptIndex: len(history),
		Feedback:     last.Feedback,
	})
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Bisect(r, history)
	}
	return ClampRound(r, raw)
}

// ClampRound pins raw into the range, then rounds half up. Bounds are
// integers, so rounding first and clamping after gives the same result
// while keeping the float to int conversion in range.
func ClampRound(r game.Range, raw float64) int {
	if math.IsNaN(raw) {
		return r.Midpoint()
	}
	v := math.Floor(raw + 0.5)
	if v >= float64(r.Max) {
		return r.Max
	}
	if v <= float64(r.Min) {
		return r.Min
	}
	return r.Clamp(int(v))
}

// Bisect narrows [Min, Max] by every prior feedback and returns the midpoint
// of what remains. Contradictory feedback that empties the interval falls
// back to the nearest bound.
func Bisect(r game.Range, history []game.Scored) int {
	lo, hi := r.Min, r.Max
	for _, h := range history {
		switch h.Feedback {
		case game.TooLow:
			if h.Guess+1 > lo {
				lo = h.Guess + 1
			}
		case game.TooHigh:
			if h.Guess-1 < hi {
				hi = h.Guess - 1
			}
		}
	}
	if lo > hi {
		return r.Clamp(lo)
	}
	return r.Clamp(game.Range{Min: lo, Max: hi}.Midpoint())
}
