package conversation

import (
	"context"
	"fmt"
	"strings"
)

// Session is one model-backed conversation: a fixed system prompt and
// temperature chosen at creation, plus a history that only grows. Every
// SendMessage replays the full history so the model keeps context.
type Session struct {
	llm         LLMClient
	model       string
	system      string
	temperature float32
	history     []ChatMessage
}

// NewSession creates a session. The system prompt and temperature are
// fixed for the session's lifetime.
func NewSession(llm LLMClient, model, systemPrompt string, temperature float32) *Session {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	return &Session{
		llm:         llm,
		model:       model,
		system:      systemPrompt,
		temperature: temperature,
	}
}

// SendMessage appends the user text to the history, requests a
// completion, records the assistant reply, and returns it. On error
// nothing is recorded and the error propagates to the caller.
func (s *Session) SendMessage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("conversation: message text is empty")
	}

	messages := make([]ChatMessage, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: text})

	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      []string{s.system},
		Messages:    messages,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("conversation: session completion: %w", err)
	}

	s.history = append(s.history,
		ChatMessage{Role: ChatRoleUser, Content: text},
		ChatMessage{Role: ChatRoleAssistant, Content: resp.Text},
	)
	return resp.Text, nil
}

// History returns a copy of the transcript so far.
func (s *Session) History() []ChatMessage {
	out := make([]ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// RestoreHistory replaces the session history, used when rehydrating a
// conversation from the history store.
func (s *Session) RestoreHistory(history []ChatMessage) {
	s.history = append(s.history[:0], history...)
}
