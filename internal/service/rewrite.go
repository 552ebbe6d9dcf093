package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
)

// CompletionClient defines the interface for text completion
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// QueryRewriter condenses conversation history plus a follow-up question into
// a standalone question used for retrieval. The rewritten form is never shown
// to the user and never stored in history.
type QueryRewriter struct {
	client CompletionClient
}

// NewQueryRewriter creates a new QueryRewriter instance
func NewQueryRewriter(client CompletionClient) *QueryRewriter {
	return &QueryRewriter{client: client}
}

// Rewrite returns a self-contained version of question. With no prior history
// the question is already standalone and is returned as-is without touching
// the completion backend.
func (r *QueryRewriter) Rewrite(ctx context.Context, history []domain.Turn, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	prompt := buildRewritePrompt(history, question)
	rewritten, err := r.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to rewrite question: %w", err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func buildRewritePrompt(history []domain.Turn, question string) string {
	var b strings.Builder
	b.WriteString("Given the conversation below, rewrite the follow-up question as a single standalone question.\n")
	b.WriteString("Resolve references like \"it\", \"that\", or pronouns using the conversation. Return only the rewritten question.\n\n")
	b.WriteString("CONVERSATION:\n")
	for _, turn := range history {
		b.WriteString(strings.ToUpper(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nFOLLOW-UP QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nSTANDALONE QUESTION:")
	return b.String()
}
