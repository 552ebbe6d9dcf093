package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dscprotocol/assistant/internal/api"
	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/dscprotocol/assistant/internal/service"
)

// AssistantService answers a single chat query.
type AssistantService interface {
	Query(ctx context.Context, in service.QueryInput) (*service.Answer, error)
}

type ChatHandler struct {
	svc AssistantService
}

// NewChatHandler creates a new ChatHandler instance
func NewChatHandler(svc AssistantService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message        string                `json:"message"`
	UserPosition   domain.UserPosition   `json:"user_position,omitempty"`
	ProtocolParams domain.ProtocolParams `json:"protocol_params,omitempty"`
	SessionID      string                `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	HealthWarning string   `json:"health_warning,omitempty"`
}

// Chat handles POST /api/chat. Personalized mode requires both the user
// position and the protocol parameters; anything else is general mode with
// the session forced onto the shared general history.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	personalized := len(req.UserPosition) > 0 && len(req.ProtocolParams) > 0

	sessionID := req.SessionID
	if !personalized {
		sessionID = domain.GeneralSessionID
	}

	input := service.QueryInput{
		Question:     req.Message,
		SessionID:    sessionID,
		Personalized: personalized,
	}
	if personalized {
		input.Position = req.UserPosition
		input.Params = req.ProtocolParams
	}

	answer, err := h.svc.Query(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ChatResponse{
		Answer:  answer.Text,
		Sources: answer.Sources,
	}

	// The warning tier is computed protocol-side, independent of the LLM,
	// and only when the caller supplied a position.
	if personalized {
		tier := domain.AnnotateHealthFactor(req.UserPosition.Float("health_factor", 0))
		resp.HealthWarning = tier.Message()
	}

	api.JSON(w, http.StatusOK, resp)
}
