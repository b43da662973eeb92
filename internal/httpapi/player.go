package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"tunedeck/internal/player"
	"tunedeck/internal/store"
)

type playRequest struct {
	SongID int64   `json:"songId"`
	Queue  []int64 `json:"queue"`
}

type seekRequest struct {
	Time *int `json:"time"`
}

type volumeRequest struct {
	Volume *int `json:"volume"`
}

type repeatRequest struct {
	Mode string `json:"mode"`
}

type repeatResponse struct {
	State store.PlayerState `json:"state"`
	Label string            `json:"label"`
}

type shuffleRequest struct {
	Enabled bool `json:"enabled"`
}

type shuffleResponse struct {
	State store.PlayerState  `json:"state"`
	Queue []store.QueueEntry `json:"queue"`
}

type addToQueueRequest struct {
	SongID int64 `json:"songId"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	state, err := s.player.State(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	nowPlaying, err := s.player.Play(r.Context(), userID, req.SongID, req.Queue)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nowPlaying)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.player.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.player.Resume)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.player.Stop)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Time == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "time is required"})
		return
	}

	state, err := s.player.Seek(r.Context(), userID, *req.Time)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Volume == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "volume is required"})
		return
	}

	state, err := s.player.SetVolume(r.Context(), userID, *req.Volume)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req repeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	mode, err := player.ParseRepeatMode(req.Mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	state, err := s.player.SetRepeatMode(r.Context(), userID, mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repeatResponse{State: state, Label: player.RepeatModeLabel(state.RepeatMode)})
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req shuffleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	state, queue, err := s.player.SetShuffle(r.Context(), userID, req.Enabled)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if queue == nil {
		queue = []store.QueueEntry{}
	}
	writeJSON(w, http.StatusOK, shuffleResponse{State: state, Queue: queue})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.navigation(w, r, s.player.Next)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.navigation(w, r, s.player.Previous)
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	view, err := s.player.Queue(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if view.Entries == nil {
		view.Entries = []store.QueueEntry{}
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAddToQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req addToQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	entry, err := s.player.AddToQueue(r.Context(), userID, req.SongID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil || position < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid queue position"})
		return
	}

	if err := s.player.RemoveFromQueue(r.Context(), userID, position); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stateTransition handles the bodyless transitions (pause, resume, stop).
func (s *Server) stateTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64) (store.PlayerState, error)) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	state, err := op(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// navigation handles next and previous.
func (s *Server) navigation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64) (player.NowPlaying, error)) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	nowPlaying, err := op(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nowPlaying)
}
