package ai

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/robalobadob/guessnumber/internal/game"
	"github.com/robalobadob/guessnumber/internal/predictor"
)

type constModel struct {
	v    float64
	last predictor.Features
}

func (c *constModel) Predict(f predictor.Features) float64 {
	c.last = f
	return c.v
}

func TestFirstGuessIsMidpoint(t *testing.T) {
	cases := []struct {
		min, max, want int
	}{
		{1, 100, 50},
		{1, 7, 4},
		{-10, -1, -6},
		{0, 1, 0},
	}
	for _, withModel := range []bool{false, true} {
		s := New(nil)
		if withModel {
			s = New(&constModel{v: 1e9})
		}
		for _, tc := range cases {
			if got := s.NextGuess(game.Range{Min: tc.min, Max: tc.max}, nil); got != tc.want {
				t.Fatalf("model=%v first guess in [%d,%d] = %d, want %d", withModel, tc.min, tc.max, got, tc.want)
			}
		}
	}
}

func TestModelOutputClampedAndRounded(t *testing.T) {
	r := game.Range{Min: 1, Max: 100}
	hist := []game.Scored{{Guess: 50, Feedback: game.TooHigh}, {Guess: 25, Feedback: game.TooLow}}
	cases := []struct {
		raw  float64
		want int
	}{
		{1e9, 100},
		{-1e9, 1},
		{42.5, 43},
		{42.49, 42},
		{0.5, 1},
		{100.4, 100},
		{math.NaN(), 37},
		{math.Inf(1), 37},
	}
	for _, tc := range cases {
		m := &constModel{v: tc.raw}
		if got := New(m).NextGuess(r, hist); got != tc.want {
			t.Fatalf("raw %v: got %d, want %d", tc.raw, got, tc.want)
		}
	}

	m := &constModel{v: 30}
	New(m).NextGuess(r, hist)
	want := predictor.Features{RangeMin: 1, RangeMax: 100, LastGuess: 25, AttemptIndex: 2, Feedback: game.TooLow}
	if m.last != want {
		t.Fatalf("features %+v, want %+v", m.last, want)
	}
}

func TestClampRoundHalfUp(t *testing.T) {
	r := game.Range{Min: -5, Max: 5}
	cases := map[float64]int{-2.5: -2, -2.51: -3, 2.5: 3, 4.9: 5, -5.6: -5}
	for raw, want := range cases {
		if got := ClampRound(r, raw); got != want {
			t.Fatalf("ClampRound(%v) = %d, want %d", raw, got, want)
		}
	}
}

func TestBisect(t *testing.T) {
	r := game.Range{Min: 1, Max: 100}
	h := []game.Scored{{Guess: 50, Feedback: game.TooHigh}}
	if got := Bisect(r, h); got != 25 {
		t.Fatalf("after 50 too high: %d", got)
	}
	h = append(h, game.Scored{Guess: 25, Feedback: game.TooLow})
	if got := Bisect(r, h); got != 37 {
		t.Fatalf("after 25 too low: %d", got)
	}
	// Contradictory history stays in range.
	bad := []game.Scored{{Guess: 90, Feedback: game.TooLow}, {Guess: 10, Feedback: game.TooHigh}}
	if got := Bisect(r, bad); got < 1 || got > 100 {
		t.Fatalf("contradictory history gave %d", got)
	}
}

func TestOutputAlwaysInRange(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	fbs := []game.Feedback{game.TooHigh, game.TooLow}
	for i := 0; i < 2000; i++ {
		min := rnd.Intn(200) - 100
		r := game.Range{Min: min, Max: min + 1 + rnd.Intn(300)}
		n := rnd.Intn(6)
		hist := make([]game.Scored, n)
		for j := range hist {
			hist[j] = game.Scored{Guess: rnd.Intn(1000) - 500, Feedback: fbs[rnd.Intn(2)]}
		}
		raw := (rnd.Float64() - 0.5) * 1e6
		for _, s := range []*Strategy{New(nil), New(&constModel{v: raw})} {
			if g := s.NextGuess(r, hist); !r.Contains(g) {
				t.Fatalf("guess %d outside %+v (history %+v, raw %v)", g, r, hist, raw)
			}
		}
	}
}

func TestOutputInRangeNearIntBounds(t *testing.T) {
	ranges := []game.Range{
		{Min: math.MaxInt64 - 2, Max: math.MaxInt64},
		{Min: math.MinInt64, Max: math.MinInt64 + 2},
		{Min: math.MinInt64, Max: math.MaxInt64},
		{Min: math.MaxInt64 - 1000, Max: math.MaxInt64},
	}
	raws := []float64{0, 1e30, -1e30, math.MaxFloat64, math.Inf(-1), math.NaN(), float64(math.MaxInt64), float64(math.MinInt64)}
	for _, r := range ranges {
		histories := [][]game.Scored{
			nil,
			{{Guess: r.Min, Feedback: game.TooLow}},
			{{Guess: r.Max, Feedback: game.TooHigh}},
			{{Guess: r.Midpoint(), Feedback: game.TooLow}, {Guess: r.Max, Feedback: game.TooHigh}},
		}
		for _, hist := range histories {
			if g := New(nil).NextGuess(r, hist); !r.Contains(g) {
				t.Fatalf("bisection guess %d outside %+v (history %+v)", g, r, hist)
			}
			for _, raw := range raws {
				if g := New(&constModel{v: raw}).NextGuess(r, hist); !r.Contains(g) {
					t.Fatalf("model guess %d outside %+v (raw %v)", g, r, raw)
				}
			}
		}
	}
	if got := New(nil).NextGuess(game.Range{Min: math.MaxInt64 - 2, Max: math.MaxInt64}, nil); got != math.MaxInt64-1 {
		t.Fatalf("first guess near MaxInt64 = %d", got)
	}
}

type sink struct{ recs []game.Record }

func (s *sink) Append(_ context.Context, r game.Record) (int64, error) {
	s.recs = append(s.recs, r)
	return int64(len(s.recs)), nil
}

func TestBisectionAlwaysWinsEasy(t *testing.T) {
	ctx := context.Background()
	for target := 1; target <= 100; target++ {
		rec := &sink{}
		c, err := game.NewController(game.Options{Recorder: rec, Guesser: New(nil), HumanOwner: "h"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.ChooseDifficulty("easy"); err != nil {
			t.Fatal(err)
		}
		if err := c.ChooseRange(1, 100); err != nil {
			t.Fatal(err)
		}
		if err := c.StartWithTarget(target); err != nil {
			t.Fatal(err)
		}
		for c.State() == game.StateInProgress {
			if _, err := c.RunAI(ctx); err != nil {
				t.Fatal(err)
			}
			if c.State() != game.StateInProgress {
				break
			}
			// The human never hits; the AI decides its own record.
			if _, err := c.SubmitGuess(ctx, game.Human, 1+target%2); err != nil {
				t.Fatal(err)
			}
		}
		for _, r := range rec.recs {
			if r.OwnerID == game.DefaultAIOwner && (!r.Won || r.AttemptsCount > 7) {
				t.Fatalf("target %d: AI record %+v", target, r)
			}
		}
	}
}
