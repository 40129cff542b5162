package notify

import (
	"encoding/json"
	"net/http"
)

// Handler exposes the unread-notification badge over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	if svc == nil {
		panic("notify: service cannot be nil")
	}
	return &Handler{svc: svc}
}

// Unread reports the caller's unread badge count.
func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"unread":  h.svc.UnreadCount(userID),
	})
}

// MarkRead clears the caller's unread badge.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	h.svc.MarkRead(userID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
