package http

import (
	"net/http"
	"strings"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

// UserHandler exposes the owner-name lookup used by lead and board views
type UserHandler struct {
	service domain.UserService
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/users.names", h.handleNames)
}

func (h *UserHandler) handleNames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("ids")
	if raw == "" {
		WriteJSONError(w, "Missing user IDs", http.StatusBadRequest)
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	names, err := h.service.GetNames(r.Context(), ids)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to resolve user names")
		writeServiceError(w, err, "Failed to resolve user names")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"names": names,
	})
}
