package game

import (
	"errors"
	"fmt"
)

// ErrSequenceFull is returned when appending past the attempt budget.
var ErrSequenceFull = errors.New("attempt sequence full")

// ErrSequenceFrozen is returned when appending to a sequence that already won.
var ErrSequenceFrozen = errors.New("attempt sequence frozen")

// AttemptSequence is the append-only list of one actor's guesses in a session.
// Its length never exceeds the capacity fixed at construction.
type AttemptSequence struct {
	guesses []int
	limit   int
	won     bool
}

// NewAttemptSequence creates an empty sequence holding at most limit guesses.
func NewAttemptSequence(limit int) *AttemptSequence {
	return &AttemptSequence{guesses: make([]int, 0, limit), limit: limit}
}

// Append records a guess, marking the sequence won when correct.
func (s *AttemptSequence) Append(guess int, fb Feedback) error {
	if s.won {
		return ErrSequenceFrozen
	}
	if len(s.guesses) >= s.limit {
		return fmt.Errorf("%w: limit %d", ErrSequenceFull, s.limit)
	}
	s.guesses = append(s.guesses, guess)
	if fb == Correct {
		s.won = true
	}
	return nil
}

// Len is the number of recorded guesses.
func (s *AttemptSequence) Len() int { return len(s.guesses) }

// Limit is the attempt budget.
func (s *AttemptSequence) Limit() int { return s.limit }

// Won reports whether the final entry hit the target.
func (s *AttemptSequence) Won() bool { return s.won }

// Done reports whether the actor takes no further guesses.
func (s *AttemptSequence) Done() bool { return s.won || len(s.guesses) >= s.limit }

// Guesses returns a copy of the recorded guesses.
func (s *AttemptSequence) Guesses() []int {
	out := make([]int, len(s.guesses))
	copy(out, s.guesses)
	return out
}

// History pairs every guess with its feedback against target.
func (s *AttemptSequence) History(target int) []Scored {
	out := make([]Scored, len(s.guesses))
	for i, g := range s.guesses {
		out[i] = Scored{Guess: g, Feedback: Evaluate(g, target)}
	}
	return out
}
