package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Adweery/soundstory-app-nnkocz/internal/classifier"
	"github.com/Adweery/soundstory-app-nnkocz/internal/session"
	"github.com/Adweery/soundstory-app-nnkocz/internal/storage"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *session.Service
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *session.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateSession handles POST /sessions requests.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	// An empty body is allowed; title is optional.
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("failed to decode request body",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	out, err := h.service.Start(r.Context(), req.Title)
	if err != nil {
		h.logger.Error("failed to start session",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to start session", "SESSION_START_FAILED")
		return
	}

	h.logger.Info("session started",
		slog.String("session_id", out.Session.ID),
		slog.Bool("audio_ready", out.AudioReady),
	)

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionResponse: toSessionResponse(out.Session),
		AudioReady:      out.AudioReady,
	})
}

// ListSessions handles GET /sessions requests.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list sessions",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list sessions", "SESSION_LIST_FAILED")
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /sessions/{id} requests.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required", "MISSING_SESSION_ID")
		return
	}

	sess, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, sessionID, err, "failed to get session", "SESSION_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// EndSession handles DELETE /sessions/{id} requests. Ending a session stops
// playback, archives the log when archival is configured, and keeps the
// session readable.
func (h *Handlers) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required", "MISSING_SESSION_ID")
		return
	}

	sess, err := h.service.End(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, sessionID, err, "failed to end session", "SESSION_END_FAILED")
		return
	}

	h.logger.Info("session ended",
		slog.String("session_id", sessionID),
	)

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Narrate handles POST /sessions/{id}/narration requests. It runs one full
// analysis cycle: classify the transcript, smooth against the session window,
// select a soundscape, and hand it to the audio engine.
func (h *Handlers) Narrate(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required", "MISSING_SESSION_ID")
		return
	}

	var req NarrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	result, err := h.service.Narrate(r.Context(), sessionID, req.Transcript)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "classifier unavailable", "CLASSIFIER_UNAVAILABLE")
		case errors.Is(err, classifier.ErrInvalidResponse):
			writeError(w, http.StatusBadGateway, "classifier returned an invalid result", "CLASSIFIER_INVALID")
		default:
			h.writeServiceError(w, sessionID, err, "failed to process narration", "NARRATION_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusOK, NarrationResponse{
		Tuple:     result.Tuple,
		Selection: result.Selection,
		Apply:     result.Apply,
		Layers:    result.Layers,
	})
}

// GetLog handles GET /sessions/{id}/log requests.
func (h *Handlers) GetLog(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required", "MISSING_SESSION_ID")
		return
	}

	entries, err := h.service.Log(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, sessionID, err, "failed to read session log", "LOG_FETCH_FAILED")
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}

	writeJSON(w, http.StatusOK, LogResponse{Entries: entries})
}

// SetVolumes handles PUT /sessions/{id}/volumes requests.
func (h *Handlers) SetVolumes(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required", "MISSING_SESSION_ID")
		return
	}

	var req VolumesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	if err := h.service.Volumes(r.Context(), sessionID, req.Music, req.Ambience, req.Sfx); err != nil {
		h.writeServiceError(w, sessionID, err, "failed to set volumes", "VOLUME_UPDATE_FAILED")
		return
	}

	layers, err := h.service.Mix(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, sessionID, err, "failed to read mix state", "MIX_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, MixResponse{Layers: layers})
}

// GetMix handles GET /sessions/{id}/mix requests.
func (h *Handlers) GetMix(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required", "MISSING_SESSION_ID")
		return
	}

	layers, err := h.service.Mix(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, sessionID, err, "failed to read mix state", "MIX_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, MixResponse{Layers: layers})
}

// writeServiceError maps the session service's sentinel errors to HTTP
// responses and falls back to a 500 with the given message and code.
func (h *Handlers) writeServiceError(w http.ResponseWriter, sessionID string, err error, message, code string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found", "SESSION_NOT_FOUND")
	case errors.Is(err, session.ErrSessionEnded):
		writeError(w, http.StatusConflict, "session has ended", "SESSION_ENDED")
	default:
		h.logger.Error(message,
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, message, code)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
