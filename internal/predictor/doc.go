// Package predictor learns the AI opponent's next guess from recorded human play.
//
// Every finished human attempt sequence contributes one example per adjacent
// pair of guesses: the range, the earlier guess, its 1-based position, and the
// feedback it received (-1 too high, +1 too low) predict the guess that came next.
// A bagged forest of regression trees is fitted over those rows.
//
// # Usage
//
//	model, err := predictor.Initialize(ctx, store, game.DefaultAIOwner, predictor.DefaultTrainer())
//	if errors.Is(err, predictor.ErrInsufficientData) {
//		// play without an AI opponent
//	}
//	raw := model.Predict(predictor.Features{RangeMin: 1, RangeMax: 100, LastGuess: 50, AttemptIndex: 1, Feedback: game.TooHigh})
//
// # Data Requirements
//
// Training needs at least MinExamples rows (default 10). A fitted Model is
// immutable; Predict is deterministic for a given instance, and two trainers
// with the same Seed over the same history produce identical models.
package predictor
