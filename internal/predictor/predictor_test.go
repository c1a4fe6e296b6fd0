package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/robalobadob/guessnumber/internal/game"
)

// binarySearch plays a perfect bisection, the shape of most human histories.
func binarySearch(min, max, target, limit int) []int {
	var out []int
	lo, hi := min, max
	for len(out) < limit {
		g := (lo + hi) / 2
		out = append(out, g)
		switch game.Evaluate(g, target) {
		case game.Correct:
			return out
		case game.TooLow:
			lo = g + 1
		case game.TooHigh:
			hi = g - 1
		}
	}
	return out
}

func history(owner string, min, max, limit int) []game.Record {
	var out []game.Record
	for target := min; target <= max; target++ {
		att := binarySearch(min, max, target, limit)
		out = append(out, game.Record{
			OwnerID:       owner,
			Attempts:      att,
			AttemptsCount: len(att),
			Won:           att[len(att)-1] == target,
			Target:        target,
			RangeMin:      min,
			RangeMax:      max,
		})
	}
	return out
}

type fakeReader struct {
	records []game.Record
	exclude string
	err     error
}

func (f *fakeReader) ReadAll(_ context.Context, exclude string) ([]game.Record, error) {
	f.exclude = exclude
	return f.records, f.err
}

func TestExamples(t *testing.T) {
	rec := game.Record{Attempts: []int{50, 25, 37, 43, 40, 42}, Target: 42, RangeMin: 1, RangeMax: 100}
	ex := Examples([]game.Record{rec})
	if len(ex) != 5 {
		t.Fatalf("want 5 examples, got %d", len(ex))
	}
	want := Example{
		Features:  Features{RangeMin: 1, RangeMax: 100, LastGuess: 50, AttemptIndex: 1, Feedback: game.TooHigh},
		NextGuess: 25,
	}
	if ex[0] != want {
		t.Fatalf("first example %+v, want %+v", ex[0], want)
	}
	if ex[1].Feedback != game.TooLow || ex[1].AttemptIndex != 2 || ex[4].NextGuess != 42 {
		t.Fatalf("unexpected examples %+v", ex)
	}
	if v := ex[0].vector(); v[4] != -1 || v[3] != 1 {
		t.Fatalf("feature encoding %v", v)
	}
}

func TestExamplesSkipsCorrectMidSequence(t *testing.T) {
	rec := game.Record{Attempts: []int{5, 7, 5}, Target: 5, RangeMin: 1, RangeMax: 10}
	ex := Examples([]game.Record{rec})
	if len(ex) != 1 || ex[0].LastGuess != 7 {
		t.Fatalf("want only the 7→5 pair, got %+v", ex)
	}
}

func TestTrainInsufficientData(t *testing.T) {
	ten := game.Record{Attempts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, Target: 50, RangeMin: 1, RangeMax: 100}
	_, d, err := DefaultTrainer().Train([]game.Record{ten})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("9 examples: want ErrInsufficientData, got %v", err)
	}
	if d.Examples != 9 {
		t.Fatalf("want 9 examples reported, got %d", d.Examples)
	}

	pair := game.Record{Attempts: []int{60, 55}, Target: 50, RangeMin: 1, RangeMax: 100}
	m, d, err := DefaultTrainer().Train([]game.Record{ten, pair})
	if err != nil {
		t.Fatalf("10 examples: %v", err)
	}
	if d.Examples != 10 || d.Test != 2 || d.Train != 8 || m.Examples() != 8 {
		t.Fatalf("diagnostics %+v", d)
	}
}

func TestTrainDeterministic(t *testing.T) {
	recs := history("h", 1, 100, 7)
	tr := DefaultTrainer()
	tr.Trees = 20
	a, _, err := tr.Train(recs)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := tr.Train(recs)
	if err != nil {
		t.Fatal(err)
	}
	probes := []Features{
		{RangeMin: 1, RangeMax: 100, LastGuess: 50, AttemptIndex: 1, Feedback: game.TooHigh},
		{RangeMin: 1, RangeMax: 100, LastGuess: 75, AttemptIndex: 2, Feedback: game.TooLow},
		{RangeMin: -40, RangeMax: 900, LastGuess: 3, AttemptIndex: 9, Feedback: game.TooLow},
	}
	for _, p := range probes {
		if a.Predict(p) != b.Predict(p) {
			t.Fatalf("same seed, different predictions for %+v", p)
		}
		if a.Predict(p) != a.Predict(p) {
			t.Fatalf("repeated prediction differs for %+v", p)
		}
	}
}

func TestTrainLearnsBisection(t *testing.T) {
	m, d, err := DefaultTrainer().Train(history("h", 1, 100, 7))
	if err != nil {
		t.Fatal(err)
	}
	if m.Trees() != 100 {
		t.Fatalf("trees %d", m.Trees())
	}
	lower := m.Predict(Features{RangeMin: 1, RangeMax: 100, LastGuess: 50, AttemptIndex: 1, Feedback: game.TooHigh})
	higher := m.Predict(Features{RangeMin: 1, RangeMax: 100, LastGuess: 50, AttemptIndex: 1, Feedback: game.TooLow})
	if lower < 20 || lower > 30 {
		t.Fatalf("after 50 too high want ~25, got %.2f", lower)
	}
	if higher < 70 || higher > 80 {
		t.Fatalf("after 50 too low want ~75, got %.2f", higher)
	}
	if d.R2 <= 0 {
		t.Fatalf("holdout R2 %.3f", d.R2)
	}
}

func TestInitializeExcludesAIOwner(t *testing.T) {
	ai := history(game.DefaultAIOwner, 1, 100, 7)
	human := []game.Record{{OwnerID: "p1", Attempts: []int{50, 25}, Target: 10, RangeMin: 1, RangeMax: 100}}
	r := &fakeReader{records: append(ai, human...)}

	_, err := Initialize(context.Background(), r, game.DefaultAIOwner, DefaultTrainer())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
	if r.exclude != game.DefaultAIOwner {
		t.Fatalf("reader asked to exclude %q", r.exclude)
	}

	r.records = history("p1", 1, 50, 6)
	m, err := Initialize(context.Background(), r, game.DefaultAIOwner, DefaultTrainer())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m == nil || m.Trees() == 0 {
		t.Fatal("nil model")
	}
}

func TestInitializeReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Initialize(context.Background(), &fakeReader{err: boom}, game.DefaultAIOwner, DefaultTrainer())
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped read error, got %v", err)
	}
}
