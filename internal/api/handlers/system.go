package handlers

import (
	"context"
	"net/http"

	"github.com/dscprotocol/assistant/internal/api"
)

// KnowledgeService reloads the knowledge base and reports its size.
type KnowledgeService interface {
	Reload(ctx context.Context) (int, error)
	ChunkCount() int
}

type SystemHandler struct {
	kb    KnowledgeService
	model string
}

// NewSystemHandler creates a new SystemHandler instance
func NewSystemHandler(kb KnowledgeService, model string) *SystemHandler {
	return &SystemHandler{kb: kb, model: model}
}

type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Chunks int    `json:"chunks"`
}

type ReloadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Model:  h.model,
		Chunks: h.kb.ChunkCount(),
	})
}

// Reload handles POST /api/reload-knowledge. A failed reload leaves the
// previous index serving and reports the failure to the caller.
func (h *SystemHandler) Reload(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.kb.Reload(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, ReloadResponse{
		Status:  "success",
		Message: "Knowledge base reloaded",
		Chunks:  chunks,
	})
}
