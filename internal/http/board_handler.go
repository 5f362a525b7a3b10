package http

import (
	"encoding/json"
	"net/http"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

type BoardHandler struct {
	service domain.BoardService
	logger  logger.Logger
}

func NewBoardHandler(service domain.BoardService, logger logger.Logger) *BoardHandler {
	return &BoardHandler{
		service: service,
		logger:  logger,
	}
}

func (h *BoardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/board.get", h.handleGet)
	mux.HandleFunc("/api/board.column", h.handleColumn)
	mux.HandleFunc("/api/board.move", h.handleMove)
}

func (h *BoardHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetBoardRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	board, err := h.service.GetBoard(r.Context(), &req)
	if err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); !ok {
			h.logger.WithField("error", err.Error()).Error("Failed to get board")
		}
		writeServiceError(w, err, "Failed to get board")
		return
	}

	writeJSON(w, http.StatusOK, board)
}

func (h *BoardHandler) handleColumn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetBoardColumnRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	column, err := h.service.GetColumn(r.Context(), &req)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to get board column")
		writeServiceError(w, err, "Failed to get board column")
		return
	}

	writeJSON(w, http.StatusOK, column)
}

// handleMove returns 200 with moved=false when the transition is
// rejected; the body carries the resync columns. Transport-level
// failures still use error status codes.
func (h *BoardHandler) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.MoveLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.MoveLead(r.Context(), &req)
	if err != nil {
		if _, ok := err.(*domain.ErrLeadNotFound); !ok {
			h.logger.WithField("error", err.Error()).Error("Failed to move lead")
		}
		writeServiceError(w, err, "Failed to move lead")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
