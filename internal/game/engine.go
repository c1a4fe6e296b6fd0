// internal/game/engine.go
//
// Session controller for a single guess-the-number game.
// Responsibilities:
//   - Feedback oracle (Evaluate).
//   - State machine Init → RangeChosen → InProgress → Resolved.
//   - Round-synchronized turns: in duel mode the AI moves before the human
//     every round; an actor that won or ran out of attempts is frozen and skipped.
//   - Hand-off of the finished sequences to the Recorder, with retry of the
//     records that did not make it.
//
// Notes:
//   - Randomness comes only from the injected *rand.Rand so replays are exact.
//   - Solo mode is chosen explicitly by constructing without a Guesser.

package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOutOfTurn    = errors.New("not this actor's turn")
	ErrSessionState = errors.New("operation not allowed in current session state")
	ErrPersistence  = errors.New("persistence write failed")
)

// DefaultAIOwner is the owner id the AI's sequences are recorded under.
const DefaultAIOwner = "ai.player@game.com"

// Evaluate compares a guess with the target.
func Evaluate(guess, target int) Feedback {
	switch {
	case guess == target:
		return Correct
	case guess < target:
		return TooLow
	default:
		return TooHigh
	}
}

// Guesser produces the AI's next guess. The last element of history carries
// the most recent feedback; an empty history means the first guess.
type Guesser interface {
	NextGuess(r Range, history []Scored) int
}

// Recorder is the write side of the persistence gateway.
type Recorder interface {
	Append(ctx context.Context, rec Record) (int64, error)
}

// Mode tells whether an AI opponent takes part.
type Mode string

const (
	Solo Mode = "solo"
	Duel Mode = "duel"
)

// State is the session lifecycle position.
type State int

const (
	StateInit State = iota
	StateRangeChosen
	StateInProgress
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRangeChosen:
		return "range_chosen"
	case StateInProgress:
		return "in_progress"
	case StateResolved:
		return "resolved"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Options configures a Controller.
type Options struct {
	Rand       *rand.Rand // target sampling; seeded from the clock when nil
	Guesser    Guesser    // nil selects solo mode
	Recorder   Recorder   // required
	HumanOwner string
	AIOwner    string // defaults to DefaultAIOwner
	Now        func() time.Time
}

// Outcome reports the effect of one guess.
type Outcome struct {
	Actor           Actor    `json:"actor"`
	Guess           int      `json:"guess"`
	Feedback        Feedback `json:"feedback"`
	Attempt         int      `json:"attempt"`
	Round           int      `json:"round"`
	ActorResolved   bool     `json:"actorResolved"`
	Won             bool     `json:"won"`
	SessionResolved bool     `json:"sessionResolved"`
}

type pendingRecord struct {
	actor   Actor
	rec     Record
	written bool
}

// Controller drives one session. It is not safe for concurrent use.
type Controller struct {
	ID string

	rnd      *rand.Rand
	guesser  Guesser
	recorder Recorder
	owners   map[Actor]string
	now      func() time.Time

	mode       Mode
	state      State
	difficulty Difficulty
	bounds     Range
	target     int

	order []Actor
	seqs  map[Actor]*AttemptSequence
	turn  int
	round int

	pending []pendingRecord
}

// NewController builds a controller in the Init state.
func NewController(opts Options) (*Controller, error) {
	if opts.Recorder == nil {
		return nil, errors.New("game: recorder is required")
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.AIOwner == "" {
		opts.AIOwner = DefaultAIOwner
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		ID:       uuid.NewString(),
		rnd:      opts.Rand,
		guesser:  opts.Guesser,
		recorder: opts.Recorder,
		owners:   map[Actor]string{Human: opts.HumanOwner, AI: opts.AIOwner},
		now:      opts.Now,
		mode:     Solo,
		order:    []Actor{Human},
	}
	if opts.Guesser != nil {
		c.mode = Duel
		c.order = []Actor{AI, Human}
	}
	return c, nil
}

// Mode reports solo or duel.
func (c *Controller) Mode() Mode { return c.mode }

// State reports the lifecycle position.
func (c *Controller) State() State { return c.state }

// Difficulty reports the chosen difficulty (zero before ChooseDifficulty).
func (c *Controller) Difficulty() Difficulty { return c.difficulty }

// Range reports the chosen bounds.
func (c *Controller) Range() Range { return c.bounds }

// ChooseDifficulty selects the attempt budget by name or menu number.
func (c *Controller) ChooseDifficulty(name string) (int, error) {
	if c.state != StateInit {
		return 0, fmt.Errorf("%w: choose difficulty in %s", ErrSessionState, c.state)
	}
	d, err := ParseDifficulty(name)
	if err != nil {
		return 0, err
	}
	c.difficulty = d
	return d.MaxAttempts(), nil
}

// ChooseRange validates and fixes the bounds.
func (c *Controller) ChooseRange(min, max int) error {
	r, err := NewRange(min, max)
	if err != nil {
		return err
	}
	return c.setRange(r)
}

// ChooseRangeInput is ChooseRange for raw text input.
func (c *Controller) ChooseRangeInput(minRaw, maxRaw string) error {
	r, err := ParseRange(minRaw, maxRaw)
	if err != nil {
		return err
	}
	return c.setRange(r)
}

func (c *Controller) setRange(r Range) error {
	if c.state != StateInit {
		return fmt.Errorf("%w: choose range in %s", ErrSessionState, c.state)
	}
	if !c.difficulty.Valid() {
		return fmt.Errorf("%w: difficulty not chosen", ErrSessionState)
	}
	c.bounds = r
	c.state = StateRangeChosen
	return nil
}

// Start samples the target uniformly from the range and opens play.
func (c *Controller) Start() error {
	if c.state != StateRangeChosen {
		return fmt.Errorf("%w: start in %s", ErrSessionState, c.state)
	}
	return c.begin(sample(c.rnd, c.bounds))
}

// sample draws uniformly from r. Ranges wider than int63 fall back to
// rejection sampling over uint64.
func sample(rnd *rand.Rand, r Range) int {
	width := uint64(r.Max) - uint64(r.Min)
	if width < math.MaxInt64 {
		return r.Min + int(rnd.Int63n(int64(width)+1))
	}
	if width == math.MaxUint64 {
		return int(uint64(r.Min) + rnd.Uint64())
	}
	n := width + 1
	rem := (math.MaxUint64%n + 1) % n
	for {
		if v := rnd.Uint64(); v <= math.MaxUint64-rem {
			return int(uint64(r.Min) + v%n)
		}
	}
}

// StartWithTarget opens play with a fixed target.
func (c *Controller) StartWithTarget(target int) error {
	if c.state != StateRangeChosen {
		return fmt.Errorf("%w: start in %s", ErrSessionState, c.state)
	}
	if !c.bounds.Contains(target) {
		return fmt.Errorf("%w: target %d outside [%d, %d]", ErrValidation, target, c.bounds.Min, c.bounds.Max)
	}
	return c.begin(target)
}

func (c *Controller) begin(target int) error {
	c.target = target
	c.seqs = make(map[Actor]*AttemptSequence, len(c.order))
	for _, a := range c.order {
		c.seqs[a] = NewAttemptSequence(c.difficulty.MaxAttempts())
	}
	c.turn = 0
	c.round = 1
	c.state = StateInProgress
	return nil
}

// NextActor reports whose guess is due.
func (c *Controller) NextActor() (Actor, bool) {
	if c.state != StateInProgress {
		return "", false
	}
	return c.order[c.turn], true
}

// Round is the 1-based current round.
func (c *Controller) Round() int { return c.round }

// PlayAI asks the guesser for the AI's move and applies it.
func (c *Controller) PlayAI(ctx context.Context) (Outcome, error) {
	if c.guesser == nil {
		return Outcome{}, fmt.Errorf("%w: no AI in solo mode", ErrSessionState)
	}
	if next, ok := c.NextActor(); !ok || next != AI {
		return Outcome{}, ErrOutOfTurn
	}
	history := c.seqs[AI].History(c.target)
	g := c.bounds.Clamp(c.guesser.NextGuess(c.bounds, history))
	return c.SubmitGuess(ctx, AI, g)
}

// RunAI plays every AI move that is due before the human's next turn.
func (c *Controller) RunAI(ctx context.Context) ([]Outcome, error) {
	var out []Outcome
	for {
		next, ok := c.NextActor()
		if !ok || next != AI {
			return out, nil
		}
		o, err := c.PlayAI(ctx)
		out = append(out, o)
		if err != nil {
			return out, err
		}
	}
}

// SubmitInput parses raw human input and applies it. Non-numeric or
// out-of-range input is rejected without consuming an attempt.
func (c *Controller) SubmitInput(ctx context.Context, raw string) (Outcome, error) {
	v, err := c.bounds.ParseGuess(raw)
	if err != nil {
		return Outcome{}, err
	}
	return c.SubmitGuess(ctx, Human, v)
}

// SubmitGuess applies one actor's guess. When the guess resolves the whole
// session the finished sequences are flushed; a flush failure is returned
// wrapped in ErrPersistence together with the outcome.
func (c *Controller) SubmitGuess(ctx context.Context, actor Actor, value int) (Outcome, error) {
	next, ok := c.NextActor()
	if !ok {
		return Outcome{}, fmt.Errorf("%w: guess in %s", ErrSessionState, c.state)
	}
	if actor != next {
		return Outcome{}, fmt.Errorf("%w: expected %s, got %s", ErrOutOfTurn, next, actor)
	}
	if !c.bounds.Contains(value) {
		if actor == Human {
			return Outcome{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrGuessOutOfRange, value, c.bounds.Min, c.bounds.Max)
		}
		value = c.bounds.Clamp(value)
	}

	seq := c.seqs[actor]
	fb := Evaluate(value, c.target)
	if err := seq.Append(value, fb); err != nil {
		return Outcome{}, err
	}
	o := Outcome{
		Actor:         actor,
		Guess:         value,
		Feedback:      fb,
		Attempt:       seq.Len(),
		Round:         c.round,
		ActorResolved: seq.Done(),
		Won:           seq.Won(),
	}

	if c.advance() {
		o.SessionResolved = true
		c.resolve()
		if err := c.Flush(ctx); err != nil {
			return o, err
		}
	}
	return o, nil
}

// advance moves the turn pointer past frozen actors, opening a new round
// when the current one is exhausted. It reports whether every actor is done.
func (c *Controller) advance() bool {
	allDone := true
	for _, a := range c.order {
		if !c.seqs[a].Done() {
			allDone = false
			break
		}
	}
	if allDone {
		return true
	}
	c.turn++
	for {
		if c.turn >= len(c.order) {
			c.turn = 0
			c.round++
		}
		if !c.seqs[c.order[c.turn]].Done() {
			return false
		}
		c.turn++
	}
}

func (c *Controller) resolve() {
	c.state = StateResolved
	ts := c.now().UTC()
	// Human record is written first.
	for _, a := range []Actor{Human, AI} {
		seq, ok := c.seqs[a]
		if !ok {
			continue
		}
		c.pending = append(c.pending, pendingRecord{actor: a, rec: Record{
			OwnerID:       c.owners[a],
			Difficulty:    c.difficulty,
			Attempts:      seq.Guesses(),
			AttemptsCount: seq.Len(),
			Won:           seq.Won(),
			Target:        c.target,
			RangeMin:      c.bounds.Min,
			RangeMax:      c.bounds.Max,
			Timestamp:     ts,
		}})
	}
}

// Flush writes every finished record not yet persisted. Safe to call again
// after a failure; records already written are not re-inserted.
func (c *Controller) Flush(ctx context.Context) error {
	if c.state != StateResolved {
		return fmt.Errorf("%w: flush in %s", ErrSessionState, c.state)
	}
	for i := range c.pending {
		p := &c.pending[i]
		if p.written {
			continue
		}
		id, err := c.recorder.Append(ctx, p.rec)
		if err != nil {
			return fmt.Errorf("%w: %s record: %w", ErrPersistence, p.actor, err)
		}
		p.rec.ID = id
		p.written = true
	}
	return nil
}

// Durable reports whether the session resolved and all its records were written.
func (c *Controller) Durable() bool {
	if c.state != StateResolved {
		return false
	}
	for _, p := range c.pending {
		if !p.written {
			return false
		}
	}
	return true
}

// Records returns the finished records (with ids once written).
func (c *Controller) Records() []Record {
	out := make([]Record, len(c.pending))
	for i, p := range c.pending {
		out[i] = p.rec
	}
	return out
}

// ActorView is the read-only status of one actor.
type ActorView struct {
	Attempts []int  `json:"attempts"`
	Status   string `json:"status"` // "playing" | "won" | "lost"
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	ID          string              `json:"id"`
	State       string              `json:"state"`
	Mode        Mode                `json:"mode"`
	Difficulty  string              `json:"difficulty,omitempty"`
	MaxAttempts int                 `json:"maxAttempts,omitempty"`
	Range       Range               `json:"range"`
	Round       int                 `json:"round,omitempty"`
	Next        Actor               `json:"next,omitempty"`
	Actors      map[Actor]ActorView `json:"actors,omitempty"`
	Target      *int                `json:"target,omitempty"`
	Durable     bool                `json:"durable"`
}

// Snapshot captures the current state. The target is revealed only once resolved.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		ID:      c.ID,
		State:   c.state.String(),
		Mode:    c.mode,
		Range:   c.bounds,
		Round:   c.round,
		Durable: c.Durable(),
	}
	if c.difficulty.Valid() {
		s.Difficulty = c.difficulty.String()
		s.MaxAttempts = c.difficulty.MaxAttempts()
	}
	if next, ok := c.NextActor(); ok {
		s.Next = next
	}
	if c.seqs != nil {
		s.Actors = make(map[Actor]ActorView, len(c.seqs))
		for a, seq := range c.seqs {
			s.Actors[a] = ActorView{Attempts: seq.Guesses(), Status: status(seq)}
		}
	}
	if c.state == StateResolved {
		t := c.target
		s.Target = &t
	}
	return s
}

// status reports a coarse string for one actor's sequence.
func status(seq *AttemptSequence) string {
	if seq.Won() {
		return "won"
	}
	if seq.Done() {
		return "lost"
	}
	return "playing"
}
