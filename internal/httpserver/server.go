// internal/httpserver/server.go
//
// HTTP server wiring for the guess-the-number engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Session endpoints mounted under /session (see routes_session.go).
//   - Owner identity: JWT (bearer or cookie) when valid, anonymous cookie otherwise.
//
// Notes:
//   - Identity tokens are issued elsewhere; this server only verifies them.
//   - Session processing is serialized: one session is worked on at a time.

package httpserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guessnumber/internal/ai"
	"github.com/robalobadob/guessnumber/internal/game"
	"github.com/robalobadob/guessnumber/internal/predictor"
	"github.com/robalobadob/guessnumber/internal/store"
)

// Options carries server settings resolved from config.
type Options struct {
	JWTSecret      string
	CookieName     string
	AnonCookieName string
	ClientOrigin   string
	AIOwner        string
	Seed           int64 // 0 seeds from the clock
	Secure         bool  // Secure + SameSite=None cookies
}

// Server bundles router, live sessions, history store and the trained model.
type Server struct {
	r       *chi.Mux
	opts    Options
	history store.Store
	guesser game.Guesser // nil when no model could be trained
	bisect  game.Guesser // model-free opponent for explicit duels

	mu       sync.Mutex // serializes all session work
	rnd      *rand.Rand
	sessions map[string]*liveSession
}

// New constructs a Server, installs middleware, and registers routes.
// With a nil model sessions default to solo; an explicit duel is played
// against the bisection heuristic.
func New(st store.Store, model *predictor.Model, opts Options) *Server {
	if opts.AIOwner == "" {
		opts.AIOwner = game.DefaultAIOwner
	}
	if opts.CookieName == "" {
		opts.CookieName = "guess_token"
	}
	if opts.AnonCookieName == "" {
		opts.AnonCookieName = "guess_anon"
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Server{
		r:        chi.NewRouter(),
		opts:     opts,
		history:  st,
		rnd:      rand.New(rand.NewSource(seed)),
		sessions: make(map[string]*liveSession),
		bisect:   ai.New(nil),
	}
	if model != nil {
		s.guesser = ai.New(model)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service":   "guessnumber",
			"aiModel":   s.guesser != nil,
			"endpoints": []string{"/health", "POST /session/new", "POST /session/guess", "POST /session/flush", "GET /session/{id}"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.mountSessions(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	log.Info().Bool("ai", s.guesser != nil).Msg("http server configured")
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError emits a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorRes{Error: code, Message: msg})
}

// writeJSON emits v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
