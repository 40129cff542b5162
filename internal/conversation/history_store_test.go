package conversation

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

func newTestStore(t *testing.T) (*RedisConversationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisConversationStore(client), mr
}

func TestConversationStoreHistoryRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	history := []ChatMessage{
		{Role: ChatRoleUser, Content: "I've got a flat"},
		{Role: ChatRoleAssistant, Content: "Where are you?"},
	}
	require.NoError(t, store.SaveHistory(ctx, "conv-1", history))

	loaded, err := store.LoadHistory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, history, loaded)

	// Abandoned conversations expire on their own.
	ttl := mr.TTL("conversation:conv-1")
	assert.Equal(t, conversationTTL, ttl)
}

func TestConversationStoreLoadUnknownHistory(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.LoadHistory(context.Background(), "nope")
	assert.Error(t, err)
}

func TestConversationStoreRequestRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	req := dispatch.NewServiceRequest("user-1", "Dale")
	req.ServiceType = dispatch.ServiceTypeTire
	req.TireInfo = &dispatch.TireInfo{NumberOfTires: 2}
	require.NoError(t, store.SaveRequest(ctx, "conv-1", req))

	loaded, err := store.LoadRequest(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, req.ID, loaded.ID)
	assert.Equal(t, dispatch.ServiceTypeTire, loaded.ServiceType)
	require.NotNil(t, loaded.TireInfo)
	assert.Equal(t, 2, loaded.TireInfo.NumberOfTires)
}

func TestConversationStoreLoadMissingRequestIsNil(t *testing.T) {
	store, _ := newTestStore(t)
	loaded, err := store.LoadRequest(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestConversationStoreDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHistory(ctx, "conv-1", []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}))
	require.NoError(t, store.SaveRequest(ctx, "conv-1", dispatch.NewServiceRequest("user-1", "Dale")))
	require.NoError(t, store.Delete(ctx, "conv-1"))

	assert.False(t, mr.Exists("conversation:conv-1"))
	assert.False(t, mr.Exists("service_request_draft:conv-1"))
}
