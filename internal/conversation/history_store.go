package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/octafabbri/hey/internal/dispatch"
)

// Abandoned intakes expire on their own; a finished one is deleted
// explicitly by the orchestrator.
const conversationTTL = 24 * time.Hour

// RedisConversationStore persists chat history and the draft record in
// Redis so an intake can be inspected or resumed after a restart.
type RedisConversationStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisConversationStore(client *redis.Client) *RedisConversationStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisConversationStore{
		redis:  client,
		tracer: otel.Tracer("hey.internal.conversation.store"),
	}
}

func (s *RedisConversationStore) SaveHistory(ctx context.Context, conversationID string, history []ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_history")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(conversationID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisConversationStore) LoadHistory(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("conversation: unknown conversation %s", conversationID)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	return history, nil
}

func (s *RedisConversationStore) SaveRequest(ctx context.Context, conversationID string, req *dispatch.ServiceRequest) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_request")
	defer span.End()

	data, err := json.Marshal(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal draft request: %w", err)
	}
	if err := s.redis.Set(ctx, requestKey(conversationID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist draft request: %w", err)
	}
	return nil
}

func (s *RedisConversationStore) LoadRequest(ctx context.Context, conversationID string) (*dispatch.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_request")
	defer span.End()

	data, err := s.redis.Get(ctx, requestKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load draft request: %w", err)
	}

	var req dispatch.ServiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode draft request: %w", err)
	}
	return &req, nil
}

func (s *RedisConversationStore) Delete(ctx context.Context, conversationID string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.delete")
	defer span.End()

	if err := s.redis.Del(ctx, historyKey(conversationID), requestKey(conversationID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to delete conversation: %w", err)
	}
	return nil
}

func historyKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

func requestKey(id string) string {
	return fmt.Sprintf("service_request_draft:%s", id)
}
