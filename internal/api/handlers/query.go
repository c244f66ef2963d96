package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aethelred/foundry/internal/domain"
	"github.com/aethelred/foundry/internal/service"
)

// QueryHandler serves retrieval-augmented queries over the knowledge index.
type QueryHandler struct {
	querySvc *service.QueryService
}

func NewQueryHandler(querySvc *service.QueryService) *QueryHandler {
	return &QueryHandler{querySvc: querySvc}
}

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.querySvc.Query(r.Context(), req.Query, req.K)
	if err != nil {
		handleQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func handleQueryError(w http.ResponseWriter, err error) {
	var llmErr *domain.LLMError
	var embErr *domain.EmbeddingError
	switch {
	case errors.Is(err, service.ErrQueryEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &llmErr), errors.As(err, &embErr):
		writeError(w, http.StatusBadGateway, "upstream model unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "failed to answer query")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
