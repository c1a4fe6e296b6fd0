package predictor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/robalobadob/guessnumber/internal/game"
)

// ErrInsufficientData is returned when history yields too few training examples.
var ErrInsufficientData = errors.New("insufficient training data")

// HistoryReader is the read side of the persistence gateway.
type HistoryReader interface {
	ReadAll(ctx context.Context, excludeOwnerID string) ([]game.Record, error)
}

// Trainer holds the forest hyper-parameters.
type Trainer struct {
	Trees       int
	Seed        int64
	MaxDepth    int
	MinLeaf     int
	MinExamples int
	Holdout     float64 // fraction of examples kept out for diagnostics
}

// DefaultTrainer mirrors the configuration defaults.
func DefaultTrainer() Trainer {
	return Trainer{Trees: 100, Seed: 42, MaxDepth: 12, MinLeaf: 2, MinExamples: 10, Holdout: 0.2}
}

// Diagnostics describe holdout accuracy. They are informational only.
type Diagnostics struct {
	Examples int
	Train    int
	Test     int
	MSE      float64
	R2       float64
}

// Model is a fitted forest. It is immutable and safe for concurrent use.
type Model struct {
	f        *forest
	examples int
}

// Predict returns the raw (unclamped) next-guess estimate.
func (m *Model) Predict(feat Features) float64 {
	return m.f.predict(feat.vector())
}

// Trees reports the ensemble size.
func (m *Model) Trees() int { return len(m.f.trees) }

// Examples reports how many rows the model was fitted on.
func (m *Model) Examples() int { return m.examples }

// Train derives examples from records and fits a forest.
func (t Trainer) Train(records []game.Record) (*Model, Diagnostics, error) {
	t = t.withDefaults()
	ex := Examples(records)
	d := Diagnostics{Examples: len(ex)}
	if len(ex) < t.MinExamples {
		return nil, d, fmt.Errorf("%w: %d examples, need %d", ErrInsufficientData, len(ex), t.MinExamples)
	}

	rnd := rand.New(rand.NewSource(t.Seed))
	perm := rnd.Perm(len(ex))
	nTest := int(float64(len(ex)) * t.Holdout)
	test, train := perm[:nTest], perm[nTest:]

	x, y := design(ex, train)
	m := &Model{
		f:        fitForest(x, y, t.Trees, t.MaxDepth, t.MinLeaf, rnd),
		examples: len(train),
	}
	d.Train, d.Test = len(train), len(test)

	if len(test) > 0 {
		est := make([]float64, len(test))
		act := make([]float64, len(test))
		var sq float64
		for i, j := range test {
			est[i] = m.Predict(ex[j].Features)
			act[i] = float64(ex[j].NextGuess)
			sq += (est[i] - act[i]) * (est[i] - act[i])
		}
		d.MSE = sq / float64(len(test))
		d.R2 = stat.RSquaredFrom(est, act, nil)
	}
	return m, d, nil
}

func (t Trainer) withDefaults() Trainer {
	def := DefaultTrainer()
	if t.Trees <= 0 {
		t.Trees = def.Trees
	}
	if t.MaxDepth <= 0 {
		t.MaxDepth = def.MaxDepth
	}
	if t.MinLeaf <= 0 {
		t.MinLeaf = def.MinLeaf
	}
	if t.MinExamples <= 0 {
		t.MinExamples = def.MinExamples
	}
	if t.Holdout < 0 || t.Holdout >= 0.5 {
		t.Holdout = def.Holdout
	}
	return t
}

func design(ex []Example, rows []int) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, j := range rows {
		x[i] = ex[j].vector()
		y[i] = float64(ex[j].NextGuess)
	}
	return x, y
}

// Initialize reads every non-AI sequence from history and fits a model.
// ErrInsufficientData tells the caller to run without an AI opponent.
func Initialize(ctx context.Context, history HistoryReader, aiOwner string, t Trainer) (*Model, error) {
	records, err := history.ReadAll(ctx, aiOwner)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	human := records[:0:0]
	for _, r := range records {
		if r.OwnerID != aiOwner {
			human = append(human, r)
		}
	}

	m, d, err := t.Train(human)
	if err != nil {
		log.Warn().Err(err).Int("records", len(human)).Int("examples", d.Examples).Msg("predictor unavailable")
		return nil, err
	}
	log.Info().
		Int("records", len(human)).
		Int("examples", d.Examples).
		Int("trees", m.Trees()).
		Float64("mse", d.MSE).
		Float64("r2", d.R2).
		Msg("predictor trained")
	return m, nil
}
