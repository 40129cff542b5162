package workorder

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/octafabbri/hey/pkg/logging"
)

// Handler exposes the negotiation workflow and work order listings.
type Handler struct {
	negotiation *Negotiation
	renderer    DocumentRenderer
	logger      *logging.Logger
}

func NewHandler(negotiation *Negotiation, renderer DocumentRenderer, logger *logging.Logger) *Handler {
	if negotiation == nil {
		panic("workorder: negotiation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{negotiation: negotiation, renderer: renderer, logger: logger}
}

type providerAction struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

type counterAction struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	ProposedDate string `json:"proposed_date"`
	ProposedTime string `json:"proposed_time"`
	Message      string `json:"message"`
}

// Get returns one work order.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.negotiation.repo.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// History lists a fleet user's requests, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	out, err := h.negotiation.HistoryForOwner(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Actionable lists the provider pool: everything awaiting a response.
func (h *Handler) Actionable(w http.ResponseWriter, r *http.Request) {
	out, err := h.negotiation.ActionableForProvider(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Active lists a provider's confirmed jobs.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	providerID := r.URL.Query().Get("provider_id")
	if providerID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}
	out, err := h.negotiation.ActiveForProvider(r.Context(), providerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Document streams the plain-text work order.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusNotImplemented, "document rendering is not configured")
		return
	}
	req, err := h.negotiation.repo.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	doc, err := h.renderer.Render(req)
	if err != nil {
		h.logger.Error("document render failed", "request_id", req.ID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to render document")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// Accept assigns the request to the calling provider.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var action providerAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil || action.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}
	req, err := h.negotiation.Accept(r.Context(), chi.URLParam(r, "requestID"), action.ProviderID, action.ProviderName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Reject declines the request.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var action providerAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil || action.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}
	req, err := h.negotiation.Reject(r.Context(), chi.URLParam(r, "requestID"), action.ProviderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Counter files a counter proposal against a scheduled request.
func (h *Handler) Counter(w http.ResponseWriter, r *http.Request) {
	var action counterAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil || action.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}
	proposal, err := h.negotiation.CounterPropose(r.Context(), chi.URLParam(r, "requestID"),
		action.ProviderID, action.ProviderName, action.ProposedDate, action.ProposedTime, action.Message)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// Proposals lists counter proposals for a request.
func (h *Handler) Proposals(w http.ResponseWriter, r *http.Request) {
	out, err := h.negotiation.ProposalsForRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ApproveProposal is the fleet user's yes to a counter offer.
func (h *Handler) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	req, err := h.negotiation.ApproveProposal(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// RejectProposal returns the request to the dispatch pool.
func (h *Handler) RejectProposal(w http.ResponseWriter, r *http.Request) {
	req, err := h.negotiation.RejectProposal(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Complete marks the job done.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	req, err := h.negotiation.Complete(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Cancel withdraws the request.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, err := h.negotiation.Cancel(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrProposalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotScheduled), errors.Is(err, ErrProposalResolved):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("workorder request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
