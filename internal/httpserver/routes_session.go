// internal/httpserver/routes_session.go
//
// Session endpoints.
// Endpoints:
//   - POST /session/new    -> choose difficulty + range, sample target, return session id
//   - POST /session/guess  -> play pending AI moves, apply the human guess, report outcomes
//   - POST /session/flush  -> retry persistence of a resolved session
//   - GET  /session/{id}   -> read-only snapshot (target hidden until resolved)
//
// Notes:
//   - Sessions live in memory; only finished records reach the history store.
//   - A session can only be driven by the owner that created it.

package httpserver

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guessnumber/internal/game"
)

// sessionTTL bounds how long an idle session is kept in memory.
const sessionTTL = 24 * time.Hour

type liveSession struct {
	ctrl    *game.Controller
	owner   string
	touched time.Time
}

type newSessionReq struct {
	Difficulty json.RawMessage `json:"difficulty"`
	Min        json.RawMessage `json:"min"`
	Max        json.RawMessage `json:"max"`
	Mode       string          `json:"mode,omitempty"` // "solo" | "duel" | "" (duel when a model is trained)
}

type newSessionRes struct {
	SessionID   string        `json:"sessionId"`
	Mode        game.Mode     `json:"mode"`
	MaxAttempts int           `json:"maxAttempts"`
	Snapshot    game.Snapshot `json:"snapshot"`
}

type guessReq struct {
	SessionID string          `json:"sessionId"`
	Guess     json.RawMessage `json:"guess"`
}

type guessRes struct {
	Outcomes []game.Outcome `json:"outcomes"`
	Snapshot game.Snapshot  `json:"snapshot"`
}

type flushReq struct {
	SessionID string `json:"sessionId"`
}

// mountSessions registers the /session routes.
func (s *Server) mountSessions(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Post("/new", s.handleNew)
		r.Post("/guess", s.handleGuess)
		r.Post("/flush", s.handleFlush)
		r.Get("/{id}", s.handleGet)
	})
}

// handleNew creates a session in the InProgress state.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	owner := s.ownerID(w, r)

	var guesser game.Guesser
	switch strings.ToLower(strings.TrimSpace(req.Mode)) {
	case "solo":
	case "duel":
		guesser = s.guesser
		if guesser == nil {
			guesser = s.bisect
		}
	case "":
		guesser = s.guesser
	default:
		writeError(w, http.StatusBadRequest, "validation", "mode must be solo or duel")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctrl, err := game.NewController(game.Options{
		Rand:       rand.New(rand.NewSource(s.rnd.Int63())),
		Guesser:    guesser,
		Recorder:   s.history,
		HumanOwner: owner,
		AIOwner:    s.opts.AIOwner,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	maxAttempts, err := ctrl.ChooseDifficulty(rawString(req.Difficulty))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	if err := ctrl.ChooseRangeInput(rawString(req.Min), rawString(req.Max)); err != nil {
		s.writeGameError(w, err)
		return
	}
	if err := ctrl.Start(); err != nil {
		s.writeGameError(w, err)
		return
	}

	now := time.Now()
	s.prune(now)
	s.sessions[ctrl.ID] = &liveSession{ctrl: ctrl, owner: owner, touched: now}

	log.Info().
		Str("session", ctrl.ID).
		Str("owner", owner).
		Str("mode", string(ctrl.Mode())).
		Str("difficulty", ctrl.Difficulty().String()).
		Int("min", ctrl.Range().Min).
		Int("max", ctrl.Range().Max).
		Msg("session started")

	writeJSON(w, http.StatusCreated, newSessionRes{
		SessionID:   ctrl.ID,
		Mode:        ctrl.Mode(),
		MaxAttempts: maxAttempts,
		Snapshot:    ctrl.Snapshot(),
	})
}

// handleGuess applies one human guess. AI moves due earlier in the round are
// played first; once the human is out of attempts the AI plays to the end.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	owner := s.ownerID(w, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.lookup(req.SessionID, owner)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", req.SessionID)
		return
	}
	ctrl := ls.ctrl
	if ctrl.State() == game.StateResolved {
		writeError(w, http.StatusConflict, "session_resolved", "session already finished")
		return
	}
	// Validate before any AI move so rejected input changes nothing.
	value, err := ctrl.Range().ParseGuess(rawString(req.Guess))
	if err != nil {
		s.writeGameError(w, err)
		return
	}

	ctx := r.Context()
	outcomes, err := ctrl.RunAI(ctx)
	if err != nil {
		s.writeGuessError(w, ls, outcomes, err)
		return
	}
	o, err := ctrl.SubmitGuess(ctx, game.Human, value)
	if err != nil {
		if errors.Is(err, game.ErrPersistence) {
			outcomes = append(outcomes, o)
		}
		s.writeGuessError(w, ls, outcomes, err)
		return
	}
	outcomes = append(outcomes, o)
	if o.ActorResolved && !o.SessionResolved {
		more, err := ctrl.RunAI(ctx)
		outcomes = append(outcomes, more...)
		if err != nil {
			s.writeGuessError(w, ls, outcomes, err)
			return
		}
	}
	ls.touched = time.Now()

	if ctrl.State() == game.StateResolved {
		log.Info().Str("session", ctrl.ID).Int("rounds", ctrl.Round()).Msg("session resolved")
	}
	writeJSON(w, http.StatusOK, guessRes{Outcomes: outcomes, Snapshot: ctrl.Snapshot()})
}

// handleFlush retries persistence for a resolved session.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	var req flushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	owner := s.ownerID(w, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.lookup(req.SessionID, owner)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", req.SessionID)
		return
	}
	if err := ls.ctrl.Flush(r.Context()); err != nil {
		s.writeGameError(w, err)
		return
	}
	ls.touched = time.Now()
	writeJSON(w, http.StatusOK, ls.ctrl.Snapshot())
}

// handleGet returns a snapshot of the session.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.lookup(chi.URLParam(r, "id"), owner)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", chi.URLParam(r, "id"))
		return
	}
	writeJSON(w, http.StatusOK, ls.ctrl.Snapshot())
}

// lookup finds a session owned by owner. Caller holds s.mu.
func (s *Server) lookup(id, owner string) (*liveSession, bool) {
	ls, ok := s.sessions[id]
	if !ok || ls.owner != owner {
		return nil, false
	}
	return ls, true
}

// prune drops sessions idle for longer than sessionTTL. Caller holds s.mu.
func (s *Server) prune(now time.Time) {
	for id, ls := range s.sessions {
		if now.Sub(ls.touched) > sessionTTL {
			if !ls.ctrl.Durable() && ls.ctrl.State() == game.StateResolved {
				log.Warn().Str("session", id).Msg("dropping session with unwritten records")
			}
			delete(s.sessions, id)
		}
	}
}

// writeGuessError reports a failure after some moves may already have been applied.
func (s *Server) writeGuessError(w http.ResponseWriter, ls *liveSession, outcomes []game.Outcome, err error) {
	if !errors.Is(err, game.ErrPersistence) {
		s.writeGameError(w, err)
		return
	}
	ls.touched = time.Now()
	log.Error().Err(err).Str("session", ls.ctrl.ID).Msg("persist session")
	writeJSON(w, http.StatusInternalServerError, struct {
		errorRes
		guessRes
	}{
		errorRes: errorRes{Error: "persistence_failed", Message: err.Error()},
		guessRes: guessRes{Outcomes: outcomes, Snapshot: ls.ctrl.Snapshot()},
	})
}

// writeGameError maps engine errors onto HTTP statuses.
func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, game.ErrOutOfTurn):
		writeError(w, http.StatusConflict, "out_of_turn", err.Error())
	case errors.Is(err, game.ErrSessionState),
		errors.Is(err, game.ErrSequenceFull),
		errors.Is(err, game.ErrSequenceFrozen):
		writeError(w, http.StatusConflict, "session_state", err.Error())
	case errors.Is(err, game.ErrPersistence):
		log.Error().Err(err).Msg("persist session")
		writeError(w, http.StatusInternalServerError, "persistence_failed", err.Error())
	default:
		log.Error().Err(err).Msg("session error")
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// rawString accepts a JSON string or number and returns its text.
func rawString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}
