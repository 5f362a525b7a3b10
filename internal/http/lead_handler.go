package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

type LeadHandler struct {
	service domain.LeadService
	logger  logger.Logger
}

func NewLeadHandler(service domain.LeadService, logger logger.Logger) *LeadHandler {
	return &LeadHandler{
		service: service,
		logger:  logger,
	}
}

func (h *LeadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/leads.list", h.handleList)
	mux.HandleFunc("/api/leads.get", h.handleGet)
	mux.HandleFunc("/api/leads.create", h.handleCreate)
	mux.HandleFunc("/api/leads.update", h.handleUpdate)
	mux.HandleFunc("/api/leads.delete", h.handleDelete)
	mux.HandleFunc("/api/leads.transition", h.handleTransition)
	mux.HandleFunc("/api/leads.progression", h.handleProgression)
}

func (h *LeadHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params domain.LeadListParams
	if err := params.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.service.ListLeads(r.Context(), params)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list leads")
		writeServiceError(w, err, "Failed to list leads")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *LeadHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetLeadRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	lead, err := h.service.GetLead(r.Context(), req.ID)
	if err != nil {
		if _, ok := err.(*domain.ErrLeadNotFound); !ok {
			h.logger.WithField("error", err.Error()).Error("Failed to get lead")
		}
		writeServiceError(w, err, "Failed to get lead")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lead": lead,
	})
}

func (h *LeadHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateLead(r.Context(), lead)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to create lead")
		writeServiceError(w, err, "Failed to create lead")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"lead": created,
	})
}

// handleUpdate is a partial update: only keys present in the payload
// change. Child collections need presence detection on the raw body
// because an absent key and an explicit empty array mean different
// things (keep vs clear).
func (h *LeadHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req domain.UpdateLeadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.PhonesSet = gjson.GetBytes(body, "phones").Exists()
	req.EmailsSet = gjson.GetBytes(body, "emails").Exists()
	req.AddressSet = gjson.GetBytes(body, "address").Exists()

	patch, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	lead, err := h.service.UpdateLead(r.Context(), patch)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to update lead")
		writeServiceError(w, err, "Failed to update lead")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lead": lead,
	})
}

func (h *LeadHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.DeleteLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteLead(r.Context(), req.ID); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to delete lead")
		writeServiceError(w, err, "Failed to delete lead")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *LeadHandler) handleTransition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.TransitionLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := h.service.TransitionLead(r.Context(), &req)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to transition lead")
		writeServiceError(w, err, "Failed to transition lead")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lead": lead,
	})
}

func (h *LeadHandler) handleProgression(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetProgressionRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	progression, err := h.service.GetProgression(r.Context(), req.ID, req.Target)
	if err != nil {
		if _, ok := err.(*domain.ErrLeadNotFound); !ok {
			h.logger.WithField("error", err.Error()).Error("Failed to get lead progression")
		}
		writeServiceError(w, err, "Failed to get lead progression")
		return
	}

	writeJSON(w, http.StatusOK, progression)
}
