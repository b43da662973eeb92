package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tunedeck/internal/player"
	"tunedeck/internal/recommend"
	"tunedeck/internal/store"
)

// AccountService captures the account operations needed by the HTTP handlers.
type AccountService interface {
	Signup(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// PlayerService is the playback-engine surface exposed over HTTP.
type PlayerService interface {
	Play(ctx context.Context, userID, songID int64, songQueue []int64) (player.NowPlaying, error)
	Pause(ctx context.Context, userID int64) (store.PlayerState, error)
	Resume(ctx context.Context, userID int64) (store.PlayerState, error)
	Stop(ctx context.Context, userID int64) (store.PlayerState, error)
	Seek(ctx context.Context, userID int64, seconds int) (store.PlayerState, error)
	SetVolume(ctx context.Context, userID int64, volume int) (store.PlayerState, error)
	SetRepeatMode(ctx context.Context, userID int64, mode store.RepeatMode) (store.PlayerState, error)
	SetShuffle(ctx context.Context, userID int64, enabled bool) (store.PlayerState, []store.QueueEntry, error)
	Next(ctx context.Context, userID int64) (player.NowPlaying, error)
	Previous(ctx context.Context, userID int64) (player.NowPlaying, error)
	AddToQueue(ctx context.Context, userID, songID int64) (store.QueueEntry, error)
	RemoveFromQueue(ctx context.Context, userID int64, position int) error
	Queue(ctx context.Context, userID int64) (player.QueueView, error)
	State(ctx context.Context, userID int64) (store.PlayerState, error)
}

// RecommendationService proposes songs from listening history.
type RecommendationService interface {
	ForUser(ctx context.Context, userID int64) ([]recommend.Recommendation, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	accounts       AccountService
	player         PlayerService
	recommendation RecommendationService
	tokens         TokenVerifier
}

// New configures a Server with the given services.
func New(accounts AccountService, playerService PlayerService, recommendation RecommendationService, tokens TokenVerifier) *Server {
	return &Server{
		accounts:       accounts,
		player:         playerService,
		recommendation: recommendation,
		tokens:         tokens,
	}
}

// Routes exposes the HTTP handlers for accounts and playback.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/player", s.handleState)
	mux.HandleFunc("POST /api/v1/player/play", s.handlePlay)
	mux.HandleFunc("POST /api/v1/player/pause", s.handlePause)
	mux.HandleFunc("POST /api/v1/player/resume", s.handleResume)
	mux.HandleFunc("POST /api/v1/player/stop", s.handleStop)
	mux.HandleFunc("POST /api/v1/player/seek", s.handleSeek)
	mux.HandleFunc("POST /api/v1/player/volume", s.handleVolume)
	mux.HandleFunc("POST /api/v1/player/repeat", s.handleRepeat)
	mux.HandleFunc("POST /api/v1/player/shuffle", s.handleShuffle)
	mux.HandleFunc("POST /api/v1/player/next", s.handleNext)
	mux.HandleFunc("POST /api/v1/player/previous", s.handlePrevious)
	mux.HandleFunc("GET /api/v1/player/queue", s.handleGetQueue)
	mux.HandleFunc("POST /api/v1/player/queue", s.handleAddToQueue)
	mux.HandleFunc("DELETE /api/v1/player/queue/{position}", s.handleRemoveFromQueue)

	mux.HandleFunc("GET /api/v1/recommendations", s.handleRecommendations)

	return mux
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID int64 `json:"id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	id, err := s.accounts.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "username already taken"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{ID: id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "login failed"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	recommendations, err := s.recommendation.ForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if recommendations == nil {
		recommendations = []recommend.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recommendations)
}

// userID resolves the acting user from the bearer token, writing the error
// response itself when the token is missing or invalid.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return 0, false
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid session token"})
		return 0, false
	}
	return userID, true
}

// writeServiceError maps engine failures onto the HTTP contract. Every
// precondition violation surfaces as a typed error; nothing falls back to a
// default value.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, player.ErrUserNotFound),
		errors.Is(err, player.ErrSongNotFound),
		errors.Is(err, recommend.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, player.ErrSongForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, player.ErrInvalidSeek),
		errors.Is(err, player.ErrInvalidVolume),
		errors.Is(err, player.ErrInvalidRepeatMode):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, player.ErrNoActivePlayback),
		errors.Is(err, player.ErrNoPausedPlayback),
		errors.Is(err, player.ErrQueueEmpty),
		errors.Is(err, player.ErrNoCurrentSong):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrStateConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "player state changed concurrently, retry"})
	case errors.Is(err, recommend.ErrNoHistory):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
