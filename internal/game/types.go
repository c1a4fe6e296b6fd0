// internal/game/types.go
//
// Core type definitions for the guess-the-number engine.
// Defines:
//   - Difficulty: fixed variant carrying its attempt budget (easy/medium/hard).
//   - Feedback: tri-state result of comparing a guess with the target.
//   - Actor: who produced a guess (human or AI).
//   - Range: validated inclusive bounds for the target.
//   - Scored: a guess paired with the feedback it received.
//   - Record: a finished attempt sequence as handed to persistence.

package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validation failures are recovered by re-prompting and never consume an attempt.
var (
	ErrValidation        = errors.New("validation error")
	ErrUnknownDifficulty = fmt.Errorf("%w: unknown difficulty", ErrValidation)
	ErrInvalidRange      = fmt.Errorf("%w: invalid range", ErrValidation)
	ErrInvalidGuess      = fmt.Errorf("%w: guess is not a number", ErrValidation)
	ErrGuessOutOfRange   = fmt.Errorf("%w: guess outside range", ErrValidation)
)

// Difficulty selects the attempt budget of a session.
type Difficulty int

const (
	Easy Difficulty = iota + 1
	Medium
	Hard
)

// Difficulties lists the variants in menu order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// MaxAttempts returns the fixed attempt budget of d.
func (d Difficulty) MaxAttempts() int {
	switch d {
	case Easy:
		return 10
	case Medium:
		return 7
	case Hard:
		return 5
	}
	panic("game: invalid difficulty " + strconv.Itoa(int(d)))
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return "Difficulty(" + strconv.Itoa(int(d)) + ")"
}

// Valid reports whether d is one of the declared variants.
func (d Difficulty) Valid() bool { return d >= Easy && d <= Hard }

// ParseDifficulty accepts a name ("easy") or a 1-based menu number ("1").
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(Difficulties) {
			return Difficulties[n-1], nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	for _, d := range Difficulties {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Feedback is the oracle's answer to a guess. The numeric values double as the
// training encoding: TooHigh=-1, TooLow=+1.
type Feedback int

const (
	TooHigh Feedback = -1
	Correct Feedback = 0
	TooLow  Feedback = 1
)

func (f Feedback) String() string {
	switch f {
	case TooHigh:
		return "too_high"
	case Correct:
		return "correct"
	case TooLow:
		return "too_low"
	}
	return "Feedback(" + strconv.Itoa(int(f)) + ")"
}

// MarshalText encodes f by name ("too_high").
func (f Feedback) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (f *Feedback) UnmarshalText(b []byte) error {
	for _, v := range []Feedback{TooHigh, Correct, TooLow} {
		if v.String() == string(b) {
			*f = v
			return nil
		}
	}
	return fmt.Errorf("unknown feedback %q", b)
}

// Actor identifies the producer of an attempt sequence.
type Actor string

const (
	Human Actor = "human"
	AI    Actor = "ai"
)

// Range is an inclusive [Min, Max] interval with Min < Max.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// NewRange validates the bounds.
func NewRange(min, max int) (Range, error) {
	if min >= max {
		return Range{}, fmt.Errorf("%w: min %d must be less than max %d", ErrInvalidRange, min, max)
	}
	return Range{Min: min, Max: max}, nil
}

// ParseRange validates raw user input for both bounds.
func ParseRange(minRaw, maxRaw string) (Range, error) {
	min, err := strconv.Atoi(strings.TrimSpace(minRaw))
	if err != nil {
		return Range{}, fmt.Errorf("%w: minimum %q is not a number", ErrInvalidRange, minRaw)
	}
	max, err := strconv.Atoi(strings.TrimSpace(maxRaw))
	if err != nil {
		return Range{}, fmt.Errorf("%w: maximum %q is not a number", ErrInvalidRange, maxRaw)
	}
	return NewRange(min, max)
}

// Contains reports whether v lies within the bounds.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Clamp pins v into the bounds.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// ParseGuess validates raw human input against the bounds.
func (r Range) ParseGuess(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGuess, raw)
	}
	if !r.Contains(v) {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrGuessOutOfRange, v, r.Min, r.Max)
	}
	return v, nil
}

// Midpoint returns floor((Min+Max)/2) without overflowing near the int bounds.
func (r Range) Midpoint() int { return r.Min + int((uint64(r.Max)-uint64(r.Min))>>1) }

// Scored is one entry of an actor's history as seen by a guesser.
type Scored struct {
	Guess    int      `json:"guess"`
	Feedback Feedback `json:"feedback"`
}

// Record is the persisted shape of one finished attempt sequence.
type Record struct {
	ID            int64      `json:"id"`
	OwnerID       string     `json:"ownerId"`
	Difficulty    Difficulty `json:"difficulty"`
	Attempts      []int      `json:"attempts"`
	AttemptsCount int        `json:"attemptsCount"`
	Won           bool       `json:"won"`
	Target        int        `json:"target"`
	RangeMin      int        `json:"rangeMin"`
	RangeMax      int        `json:"rangeMax"`
	Timestamp     time.Time  `json:"timestamp"`
}
