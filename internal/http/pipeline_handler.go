package http

import (
	"encoding/json"
	"net/http"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

type PipelineHandler struct {
	service domain.PipelineService
	logger  logger.Logger
}

func NewPipelineHandler(service domain.PipelineService, logger logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PipelineHandler) RegisterRoutes(mux *http.ServeMux) {
	// Register RPC-style endpoints with dot notation
	mux.HandleFunc("/api/pipelines.list", h.handleList)
	mux.HandleFunc("/api/pipelines.get", h.handleGet)
	mux.HandleFunc("/api/pipelines.save", h.handleSave)
	mux.HandleFunc("/api/pipelines.delete", h.handleDelete)
}

func (h *PipelineHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ListPipelinesRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pipelines, err := h.service.ListPipelines(r.Context(), req.Module)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list pipelines")
		writeServiceError(w, err, "Failed to list pipelines")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pipelines": pipelines,
	})
}

func (h *PipelineHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pipelineID := r.URL.Query().Get("id")
	if pipelineID == "" {
		WriteJSONError(w, "Missing pipeline ID", http.StatusBadRequest)
		return
	}

	pipeline, err := h.service.GetPipeline(r.Context(), pipelineID)
	if err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); !ok {
			h.logger.WithField("error", err.Error()).Error("Failed to get pipeline")
		}
		writeServiceError(w, err, "Failed to get pipeline")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pipeline": pipeline,
	})
}

func (h *PipelineHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.SavePipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pipeline, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.service.SavePipeline(r.Context(), pipeline)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to save pipeline")
		writeServiceError(w, err, "Failed to save pipeline")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pipeline": saved,
	})
}

func (h *PipelineHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.DeletePipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePipeline(r.Context(), req.ID); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to delete pipeline")
		writeServiceError(w, err, "Failed to delete pipeline")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
