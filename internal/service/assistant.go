package service

import (
	"context"
	"log"
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/dscprotocol/assistant/internal/telemetry"
)

// FallbackAnswer is returned when the completion backend fails mid-query.
// The request still succeeds; only the answer text is degraded.
const FallbackAnswer = "I apologize, but I encountered an error while processing your question. " +
	"The language model backend may be unavailable — please try again in a moment."

// cannedReplies short-circuits small talk before any retrieval or LLM work.
// Matching is exact on the trimmed, lower-cased question. Short-circuited
// turns are not recorded in session history.
var cannedReplies = map[string]string{
	"hi":        greetingReply,
	"hello":     greetingReply,
	"hey":       greetingReply,
	"thanks":    thanksReply,
	"thank you": thanksReply,
}

const (
	greetingReply = "Hello! I'm the protocol assistant. Ask me anything about deposits, borrowing, repayments, or the health of your position."
	thanksReply   = "You're welcome! Let me know if you have any other questions about the protocol."
)

// HistoryStore defines the session-memory surface the engine depends on.
type HistoryStore interface {
	History(sessionID string) []domain.Turn
	Append(sessionID string, role domain.Role, content string)
}

// Rewriter produces a standalone question from history plus a follow-up.
type Rewriter interface {
	Rewrite(ctx context.Context, history []domain.Turn, question string) (string, error)
}

// ContextRetriever returns prompt context and source identifiers for a question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string) (string, []string, error)
}

// AssistantService orchestrates one query end to end: short-circuit check,
// rewrite, retrieve, compose, complete, persist.
type AssistantService struct {
	sessions   HistoryStore
	rewriter   Rewriter
	retriever  ContextRetriever
	completion CompletionClient
}

// NewAssistantService creates a new AssistantService instance
func NewAssistantService(
	sessions HistoryStore,
	rewriter Rewriter,
	retriever ContextRetriever,
	completion CompletionClient,
) *AssistantService {
	return &AssistantService{
		sessions:   sessions,
		rewriter:   rewriter,
		retriever:  retriever,
		completion: completion,
	}
}

// QueryInput is one user question plus its mode. Personalized queries carry
// the caller's position and the protocol parameters; general queries do not.
type QueryInput struct {
	Question     string
	SessionID    string
	Personalized bool
	Position     domain.UserPosition
	Params       domain.ProtocolParams
}

// Answer is the engine's response payload.
type Answer struct {
	Text    string
	Sources []string
}

// Query answers a single question. The rewritten question drives retrieval
// only; the prompt and the persisted user turn both carry the original
// question. Completion failures degrade to FallbackAnswer instead of failing
// the request.
func (s *AssistantService) Query(ctx context.Context, in QueryInput) (*Answer, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	if reply, ok := cannedReplies[strings.ToLower(question)]; ok {
		return &Answer{Text: reply, Sources: []string{}}, nil
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = domain.GeneralSessionID
	}

	ctx, span := telemetry.StartSpan(ctx, "assistant.query", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "query",
	})
	defer span.End()

	history := s.sessions.History(sessionID)

	standalone, err := s.rewriter.Rewrite(ctx, history, question)
	if err != nil {
		// A failed rewrite only costs retrieval quality; fall back to the
		// question as asked.
		log.Printf("query rewrite failed, using original question: %v", err)
		standalone = question
	}

	contextText, sources, err := s.retriever.Retrieve(ctx, standalone)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	prompt := BuildPrompt(PromptInput{
		Context:      contextText,
		Question:     question,
		Personalized: in.Personalized,
		Position:     in.Position,
		Params:       in.Params,
	})

	answer, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		log.Printf("completion failed, returning fallback answer: %v", err)
		telemetry.CaptureError(ctx, err)
		answer = FallbackAnswer
	}

	s.sessions.Append(sessionID, domain.RoleUser, question)
	s.sessions.Append(sessionID, domain.RoleAssistant, answer)

	if sources == nil {
		sources = []string{}
	}
	return &Answer{Text: answer, Sources: sources}, nil
}
