package predictor

import "github.com/robalobadob/guessnumber/internal/game"

// Features is the model input describing the state before a guess.
type Features struct {
	RangeMin     int
	RangeMax     int
	LastGuess    int
	AttemptIndex int // 1-based position of LastGuess in its sequence
	Feedback     game.Feedback
}

// vector lays the features out in the column order the trees split on.
func (f Features) vector() []float64 {
	return []float64{
		float64(f.RangeMin),
		float64(f.RangeMax),
		float64(f.LastGuess),
		float64(f.AttemptIndex),
		float64(f.Feedback),
	}
}

const numFeatures = 5

// Example is one supervised row: the state after a guess and the guess that followed.
type Example struct {
	Features
	NextGuess int
}

// Examples turns finished attempt sequences into training rows, one per
// adjacent pair of guesses. Pairs whose first guess already equals the target
// carry no direction and are skipped.
func Examples(records []game.Record) []Example {
	var out []Example
	for _, r := range records {
		for i := 0; i+1 < len(r.Attempts); i++ {
			fb := game.Evaluate(r.Attempts[i], r.Target)
			if fb == game.Correct {
				continue
			}
			out = append(out, Example{
				Features: Features{
					RangeMin:     r.RangeMin,
					RangeMax:     r.RangeMax,
					LastGuess:    r.Attempts[i],
					AttemptIndex: i + 1,
					Feedback:     fb,
				},
				NextGuess: r.Attempts[i+1],
			})
		}
	}
	return out
}
