package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bluebanner/internal/ai"
	"bluebanner/internal/repository"
)

var ErrQuestionRequired = errors.New("question is required")

// askSystemPrompt pins the answer model to the retrieved context.
const askSystemPrompt = `You are a helpful FRC (FIRST Robotics Competition) technical assistant.
Answer the user's question based ONLY on the context provided below.
Be concise and clear in your explanation. If the context doesn't contain the answer,
say that you couldn't find the information in the provided documents.`

// noContextAnswer is returned without calling the chat model when
// retrieval comes back empty.
const noContextAnswer = "I'm sorry, I couldn't find any relevant information in my documents to answer that question."

// contextJoiner separates retrieved chunks in the prompt.
const contextJoiner = "\n---\n"

// AskService answers questions against the ingested documentation.
type AskService interface {
	// Ask embeds the question, retrieves the closest chunks, and has
	// the chat model compose an answer grounded in them.
	Ask(ctx context.Context, question string) (string, error)
}

type askService struct {
	llm     ai.Client
	vectors repository.VectorRepository
	topK    int
}

// NewAskService constructs an AskService.
func NewAskService(llm ai.Client, vectors repository.VectorRepository, topK int) AskService {
	if topK <= 0 {
		topK = 5
	}
	return &askService{llm: llm, vectors: vectors, topK: topK}
}

func (s *askService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrQuestionRequired
	}

	embedded, err := s.llm.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}
	if len(embedded) != 1 {
		return "", fmt.Errorf("expected 1 question embedding, got %d", len(embedded))
	}

	matches, err := s.vectors.Query(ctx, embedded[0], s.topK)
	if err != nil {
		return "", fmt.Errorf("query index: %w", err)
	}
	if len(matches) == 0 {
		return noContextAnswer, nil
	}

	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, m.Content)
	}

	userMessage := fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s",
		strings.Join(chunks, contextJoiner), question)

	answer, err := s.llm.Complete(ctx, askSystemPrompt, userMessage)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}
