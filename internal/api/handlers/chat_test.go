package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/dscprotocol/assistant/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Query(ctx context.Context, in service.QueryInput) (*service.Answer, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

func postChat(t *testing.T, h *ChatHandler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChat_GeneralMode(t *testing.T) {
	svc := new(MockAssistantService)
	svc.On("Query", mock.Anything, mock.MatchedBy(func(in service.QueryInput) bool {
		return in.Question == "What is liquidation?" &&
			in.SessionID == domain.GeneralSessionID &&
			!in.Personalized &&
			in.Position == nil && in.Params == nil
	})).Return(&service.Answer{Text: "Below 1.0.", Sources: []string{"liquidation.md"}}, nil)

	rec := postChat(t, NewChatHandler(svc), map[string]any{
		"message": "What is liquidation?",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Below 1.0.", resp.Answer)
	assert.Equal(t, []string{"liquidation.md"}, resp.Sources)
	assert.Empty(t, resp.HealthWarning)
	svc.AssertExpectations(t)
}

func TestChat_GeneralModeIgnoresSessionID(t *testing.T) {
	svc := new(MockAssistantService)
	svc.On("Query", mock.Anything, mock.MatchedBy(func(in service.QueryInput) bool {
		return in.SessionID == domain.GeneralSessionID
	})).Return(&service.Answer{Text: "ok", Sources: []string{}}, nil)

	rec := postChat(t, NewChatHandler(svc), map[string]any{
		"message":    "question",
		"session_id": "wallet-0xabc",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestChat_PersonalizedMode(t *testing.T) {
	svc := new(MockAssistantService)
	svc.On("Query", mock.Anything, mock.MatchedBy(func(in service.QueryInput) bool {
		return in.Personalized &&
			in.SessionID == "wallet-0xabc" &&
			in.Position.Float("health_factor", 0) == 1.2
	})).Return(&service.Answer{Text: "Risky.", Sources: []string{}}, nil)

	rec := postChat(t, NewChatHandler(svc), map[string]any{
		"message":    "How risky am I?",
		"session_id": "wallet-0xabc",
		"user_position": map[string]any{
			"health_factor": 1.2,
		},
		"protocol_params": map[string]any{
			"liquidation_threshold": 0.8,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.TierWarning.Message(), resp.HealthWarning)
	svc.AssertExpectations(t)
}

func TestChat_PositionWithoutParamsIsGeneral(t *testing.T) {
	svc := new(MockAssistantService)
	svc.On("Query", mock.Anything, mock.MatchedBy(func(in service.QueryInput) bool {
		return !in.Personalized && in.SessionID == domain.GeneralSessionID
	})).Return(&service.Answer{Text: "ok", Sources: []string{}}, nil)

	rec := postChat(t, NewChatHandler(svc), map[string]any{
		"message":       "question",
		"session_id":    "wallet-0xabc",
		"user_position": map[string]any{"health_factor": 1.2},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.HealthWarning)
	svc.AssertExpectations(t)
}

func TestChat_MissingHealthFactorIsCritical(t *testing.T) {
	svc := new(MockAssistantService)
	svc.On("Query", mock.Anything, mock.Anything).
		Return(&service.Answer{Text: "ok", Sources: []string{}}, nil)

	rec := postChat(t, NewChatHandler(svc), map[string]any{
		"message":         "question",
		"user_position":   map[string]any{"collateral": "SUI"},
		"protocol_params": map[string]any{"liquidation_threshold": 0.8},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.TierCritical.Message(), resp.HealthWarning)
}

func TestChat_EmptyMessage(t *testing.T) {
	svc := new(MockAssistantService)

	rec := postChat(t, NewChatHandler(svc), map[string]any{"message": "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestChat_InvalidBody(t *testing.T) {
	svc := new(MockAssistantService)
	h := NewChatHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_ServiceErrorMapped(t *testing.T) {
	svc := new(MockAssistantService)
	svc.On("Query", mock.Anything, mock.Anything).Return(nil, domain.ErrNoDocumentsFound)

	rec := postChat(t, NewChatHandler(svc), map[string]any{"message": "question"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
