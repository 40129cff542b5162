package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/octafabbri/hey/pkg/logging"
)

// Handler exposes the conversation orchestrator over HTTP. Voice
// clients transcribe speech on their side and post final utterances
// here.
type Handler struct {
	orchestrator *Orchestrator
	logger       *logging.Logger
}

func NewHandler(orchestrator *Orchestrator, logger *logging.Logger) *Handler {
	if orchestrator == nil {
		panic("conversation: orchestrator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{orchestrator: orchestrator, logger: logger}
}

type turnRequest struct {
	UserID     string `json:"user_id"`
	DriverName string `json:"driver_name"`
	Language   string `json:"language"`
	Text       string `json:"text"`
}

// Start opens a conversation and processes the first utterance.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.handleTurn(w, r, uuid.NewString())
}

// Turn processes an utterance for an existing conversation.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation id is required")
		return
	}
	h.handleTurn(w, r, conversationID)
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request, conversationID string) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	profile := Profile{
		UserID:     req.UserID,
		DriverName: req.DriverName,
		Language:   req.Language,
	}

	reply, err := h.orchestrator.HandleUtterance(r.Context(), conversationID, profile, req.Text)
	if err != nil {
		if errors.Is(err, ErrTurnInProgress) {
			writeError(w, http.StatusConflict, "a turn is already being processed for this conversation")
			return
		}
		h.logger.Error("turn failed", "conversation_id", conversationID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
