package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingDimensions matches nomic-embed-text served by Ollama.
	DefaultEmbeddingDimensions = 768
	// completionTemperature keeps answers close to the retrieved documentation.
	completionTemperature = 0.1
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// BackendAPI defines the completion-backend surface the client depends on.
type BackendAPI interface {
	CreateEmbeddings(ctx context.Context, model, text string) ([]float32, error)
	CreateCompletion(ctx context.Context, model, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Client wraps an OpenAI-compatible backend (OpenAI, Ollama, vLLM) for
// embeddings and chat completions.
type Client struct {
	api            BackendAPI
	chatModel      string
	embeddingModel string
	dimensions     int
}

type OpenAIAdapter struct {
	client *openai.Client
}

// NewOpenAIAdapter creates an adapter for the given endpoint. An empty
// baseURL targets the OpenAI API itself.
func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

// CreateEmbeddings calls the backend to embed a single text.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateCompletion sends a single-turn chat completion and returns the text.
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, model, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: completionTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the model identifiers available on the backend.
func (a *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	resp, err := a.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:            NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     dimensions,
	}
}

// NewClientWithAPI creates a client around a custom backend, used by tests.
func NewClientWithAPI(api BackendAPI, chatModel, embeddingModel string, dimensions int) *Client {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:            api,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
	}
}

// ChatModel returns the active chat model identifier.
func (c *Client) ChatModel() string {
	return c.chatModel
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, c.embeddingModel, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(embedding))
	}

	return embedding, nil
}

// Complete sends the prompt to the chat model and returns the raw completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyText
	}

	text, err := c.api.CreateCompletion(ctx, c.chatModel, prompt)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	return text, nil
}

// VerifyModels checks backend reachability and the presence of the configured
// chat model. Failures here are fatal at startup.
func (c *Client) VerifyModels(ctx context.Context) error {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInitialization, "completion backend is unreachable", err)
	}

	for _, id := range models {
		if id == c.chatModel {
			return nil
		}
	}

	return domain.NewDomainError(domain.ErrCodeInitialization,
		fmt.Sprintf("model %q is not available on the completion backend", c.chatModel))
}
