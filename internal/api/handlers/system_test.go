package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Reload(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockKnowledgeService) ChunkCount() int {
	args := m.Called()
	return args.Int(0)
}

func TestHealth(t *testing.T) {
	kb := new(MockKnowledgeService)
	kb.On("ChunkCount").Return(128)

	h := NewSystemHandler(kb, "qwen3:8b")
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "qwen3:8b", resp.Model)
	assert.Equal(t, 128, resp.Chunks)
}

func TestReload_Success(t *testing.T) {
	kb := new(MockKnowledgeService)
	kb.On("Reload", mock.Anything).Return(42, nil)

	h := NewSystemHandler(kb, "qwen3:8b")
	req := httptest.NewRequest(http.MethodPost, "/api/reload-knowledge", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Knowledge base reloaded", resp.Message)
	assert.Equal(t, 42, resp.Chunks)
	kb.AssertExpectations(t)
}

func TestReload_EmptyKnowledgeBase(t *testing.T) {
	kb := new(MockKnowledgeService)
	kb.On("Reload", mock.Anything).Return(0, domain.ErrNoDocumentsFound)

	h := NewSystemHandler(kb, "qwen3:8b")
	req := httptest.NewRequest(http.MethodPost, "/api/reload-knowledge", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
