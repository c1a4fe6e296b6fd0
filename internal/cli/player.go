// internal/cli/player.go
//
// Line-oriented terminal front end for one player.
// Flow per session:
//   - difficulty menu, re-prompting on invalid choices
//   - range prompt, re-prompting until min < max
//   - rounds: AI moves are announced, the human is prompted for each guess
//   - summary, then "play again?"
//
// End of input or a cancelled context abandons the current session; nothing
// is written for it.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guessnumber/internal/game"
)

// errAbandoned signals that input ended or the context was cancelled mid-session.
var errAbandoned = errors.New("session abandoned")

type inputLine struct {
	text string
	err  error
}

// Player runs interactive sessions over a reader/writer pair.
type Player struct {
	In       io.Reader
	Out      io.Writer
	Recorder game.Recorder
	Guesser  game.Guesser // nil plays solo
	Owner    string
	AIOwner  string
	Rand     *rand.Rand

	lines <-chan inputLine
}

// Run plays sessions until the player declines another one or input ends.
func (p *Player) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	p.lines = readLines(p.In, stop)

	fmt.Fprintln(p.Out, "Welcome to the 'Guess the Number' game!")
	if p.Guesser != nil {
		fmt.Fprintln(p.Out, "You are playing against the AI. Fewer attempts wins.")
	}
	for {
		err := p.session(ctx)
		if errors.Is(err, errAbandoned) {
			log.Info().Err(err).Msg("session abandoned")
			return nil
		}
		if err != nil {
			return err
		}
		again, err := p.playAgain(ctx)
		if errors.Is(err, errAbandoned) {
			return nil
		}
		if !again {
			fmt.Fprintln(p.Out, "Thanks for playing!")
			return nil
		}
	}
}

func (p *Player) session(ctx context.Context) error {
	ctrl, err := game.NewController(game.Options{
		Rand:       p.Rand,
		Guesser:    p.Guesser,
		Recorder:   p.Recorder,
		HumanOwner: p.Owner,
		AIOwner:    p.AIOwner,
	})
	if err != nil {
		return err
	}
	if err := p.chooseDifficulty(ctx, ctrl); err != nil {
		return err
	}
	if err := p.chooseRange(ctx, ctrl); err != nil {
		return err
	}
	if err := ctrl.Start(); err != nil {
		return err
	}
	fmt.Fprintln(p.Out, "\nGame started! Guess the number.")

	for ctrl.State() == game.StateInProgress {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errAbandoned, err)
		}
		outs, err := ctrl.RunAI(ctx)
		for _, o := range outs {
			p.announceAI(o)
		}
		if err != nil {
			p.persistFailed(err)
			break
		}
		if ctrl.State() != game.StateInProgress {
			break
		}

		line, err := p.prompt(ctx, fmt.Sprintf("Attempt %d/%d. Enter a number: ", len(ctrl.Snapshot().Actors[game.Human].Attempts)+1, ctrl.Difficulty().MaxAttempts()))
		if err != nil {
			return err
		}
		o, err := ctrl.SubmitInput(ctx, line)
		if errors.Is(err, game.ErrValidation) {
			r := ctrl.Range()
			fmt.Fprintf(p.Out, "Please enter a whole number from %d to %d.\n", r.Min, r.Max)
			continue
		}
		if err != nil && !errors.Is(err, game.ErrPersistence) {
			return err
		}
		p.announceHuman(o)
		if err != nil {
			p.persistFailed(err)
			break
		}
	}

	p.summary(ctrl.Snapshot())
	return nil
}

func (p *Player) chooseDifficulty(ctx context.Context, ctrl *game.Controller) error {
	fmt.Fprintln(p.Out, "Choose a difficulty level:")
	for i, d := range game.Difficulties {
		fmt.Fprintf(p.Out, "%d. %s (attempts: %d)\n", i+1, title(d.String()), d.MaxAttempts())
	}
	for {
		line, err := p.prompt(ctx, "Enter the level number: ")
		if err != nil {
			return err
		}
		n, err := ctrl.ChooseDifficulty(line)
		if err == nil {
			fmt.Fprintf(p.Out, "You chose the level: %s (Attempts: %d)\n", title(ctrl.Difficulty().String()), n)
			return nil
		}
		fmt.Fprintln(p.Out, "Invalid input. Please enter a number from the list.")
	}
}

func (p *Player) chooseRange(ctx context.Context, ctrl *game.Controller) error {
	fmt.Fprintln(p.Out, "\nChoose the range for the number to guess.")
	for {
		min, err := p.prompt(ctx, "Enter the minimum value: ")
		if err != nil {
			return err
		}
		max, err := p.prompt(ctx, "Enter the maximum value: ")
		if err != nil {
			return err
		}
		lo, errLo := strconv.Atoi(min)
		hi, errHi := strconv.Atoi(max)
		if errLo != nil || errHi != nil {
			fmt.Fprintln(p.Out, "Please enter correct numbers.")
			continue
		}
		if err := ctrl.ChooseRange(lo, hi); err != nil {
			fmt.Fprintln(p.Out, "The minimum value must be less than the maximum!")
			continue
		}
		fmt.Fprintf(p.Out, "Range set: from %d to %d\n", lo, hi)
		return nil
	}
}

func (p *Player) announceAI(o game.Outcome) {
	switch o.Feedback {
	case game.Correct:
		fmt.Fprintf(p.Out, "AI guesses %d and gets it in %d attempts!\n", o.Guess, o.Attempt)
	case game.TooLow:
		fmt.Fprintf(p.Out, "AI guesses %d: too low.\n", o.Guess)
	case game.TooHigh:
		fmt.Fprintf(p.Out, "AI guesses %d: too high.\n", o.Guess)
	}
	if o.ActorResolved && !o.Won {
		fmt.Fprintln(p.Out, "AI is out of attempts.")
	}
}

func (p *Player) announceHuman(o game.Outcome) {
	switch o.Feedback {
	case game.Correct:
		fmt.Fprintf(p.Out, "Congratulations! You guessed the number %d in %d attempts!\n", o.Guess, o.Attempt)
	case game.TooLow:
		fmt.Fprintln(p.Out, "The number is higher!")
	case game.TooHigh:
		fmt.Fprintln(p.Out, "The number is lower!")
	}
	if o.ActorResolved && !o.Won {
		fmt.Fprintln(p.Out, "You are out of attempts.")
	}
}

func (p *Player) persistFailed(err error) {
	log.Error().Err(err).Msg("save session")
	fmt.Fprintln(p.Out, "Warning: the results of this game could not be saved.")
}

func (p *Player) summary(s game.Snapshot) {
	fmt.Fprintln(p.Out, "\nGame over.")
	if s.Target != nil {
		fmt.Fprintf(p.Out, "The number was: %d\n", *s.Target)
	}
	for _, a := range []game.Actor{game.Human, game.AI} {
		v, ok := s.Actors[a]
		if !ok {
			continue
		}
		name := "You"
		if a == game.AI {
			name = "AI"
		}
		fmt.Fprintf(p.Out, "%s: %s after %d attempts %v\n", name, v.Status, len(v.Attempts), v.Attempts)
	}
}

func (p *Player) playAgain(ctx context.Context) (bool, error) {
	fmt.Fprintln(p.Out, "\nDo you want to play again?")
	for {
		line, err := p.prompt(ctx, "Enter 'yes' or 'no': ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
	}
}

// prompt writes msg and returns the next trimmed input line. It gives up
// when input ends or ctx is cancelled.
func (p *Player) prompt(ctx context.Context, msg string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", errAbandoned, err)
	}
	fmt.Fprint(p.Out, msg)
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return "", fmt.Errorf("%w: %w", errAbandoned, ctx.Err())
	case l, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.Out)
			return "", fmt.Errorf("%w: %w", errAbandoned, io.EOF)
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

// readLines scans r on its own goroutine so a blocked read never delays
// cancellation. The channel closes at end of input.
func readLines(r io.Reader, stop <-chan struct{}) <-chan inputLine {
	ch := make(chan inputLine)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- inputLine{text: sc.Text()}:
			case <-stop:
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case ch <- inputLine{err: err}:
			case <-stop:
			}
		}
	}()
	return ch
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
