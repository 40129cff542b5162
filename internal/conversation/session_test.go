package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLLM struct {
	replies  []string
	err      error
	requests []LLMRequest
}

func (r *recordingLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return LLMResponse{}, r.err
	}
	reply := "ok"
	if len(r.replies) > 0 {
		reply = r.replies[0]
		r.replies = r.replies[1:]
	}
	return LLMResponse{Text: reply}, nil
}

func TestSessionReplaysHistory(t *testing.T) {
	llm := &recordingLLM{replies: []string{"Hi Dale.", "Copy that."}}
	session := NewSession(llm, "test-model", "be helpful", 0.7)
	ctx := context.Background()

	reply, err := session.SendMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi Dale.", reply)

	_, err = session.SendMessage(ctx, "I'm on I-80")
	require.NoError(t, err)

	// The second call carries the first exchange plus the new message.
	require.Len(t, llm.requests, 2)
	second := llm.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, ChatRoleUser, second.Messages[0].Role)
	assert.Equal(t, "hello", second.Messages[0].Content)
	assert.Equal(t, ChatRoleAssistant, second.Messages[1].Role)
	assert.Equal(t, "Hi Dale.", second.Messages[1].Content)
	assert.Equal(t, "I'm on I-80", second.Messages[2].Content)
	assert.Equal(t, []string{"be helpful"}, second.System)
}

func TestSessionFailedTurnLeavesHistoryUntouched(t *testing.T) {
	llm := &recordingLLM{err: errors.New("boom")}
	session := NewSession(llm, "test-model", "be helpful", 0.7)

	_, err := session.SendMessage(context.Background(), "hello")
	assert.Error(t, err)
	assert.Empty(t, session.History())
}

func TestSessionRejectsEmptyMessage(t *testing.T) {
	session := NewSession(&recordingLLM{}, "test-model", "be helpful", 0.7)
	_, err := session.SendMessage(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSessionRestoreHistory(t *testing.T) {
	session := NewSession(&recordingLLM{}, "test-model", "be helpful", 0.7)
	history := []ChatMessage{
		{Role: ChatRoleUser, Content: "hello"},
		{Role: ChatRoleAssistant, Content: "hi"},
	}
	session.RestoreHistory(history)
	assert.Equal(t, history, session.History())
}
