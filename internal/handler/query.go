package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coursemind/coursemind/internal/agent"
	"github.com/coursemind/coursemind/internal/models"
)

// QueryPipeline is what the HTTP layer needs from the agent pipeline.
type QueryPipeline interface {
	Handle(ctx context.Context, req *models.QueryRequest, apiKey string) (*models.QueryResponse, error)
}

// QueryHandler handles POST /api/v1/query
type QueryHandler struct {
	pipeline QueryPipeline
}

func NewQueryHandler(pipeline QueryPipeline) *QueryHandler {
	return &QueryHandler{pipeline: pipeline}
}

// Query handles POST /api/v1/query
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Query == "" {
		models.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	apiKey := r.Header.Get("X-API-Key")

	resp, err := h.pipeline.Handle(r.Context(), &req, apiKey)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidQuery) {
			models.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, resp)
}
