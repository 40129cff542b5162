package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

type capturingSender struct {
	sent []EmailMessage
	err  error
}

func (c *capturingSender) Send(ctx context.Context, msg EmailMessage) error {
	c.sent = append(c.sent, msg)
	return c.err
}

type capturingBroadcaster struct {
	events []*dispatch.ServiceRequest
}

func (c *capturingBroadcaster) BroadcastStatusChange(req *dispatch.ServiceRequest) {
	c.events = append(c.events, req)
}

func TestNotifyStatusChangeEmailsNotifiableTransitions(t *testing.T) {
	sender := &capturingSender{}
	broadcaster := &capturingBroadcaster{}
	svc := NewService(sender, broadcaster, "ops@example.com", nil)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.Status = dispatch.StatusAccepted
	req.AssignedProviderName = "Roadside Co"

	require.NoError(t, svc.NotifyStatusChange(context.Background(), req))

	require.Len(t, broadcaster.events, 1)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Contains(t, msg.Subject, "accepted")
	assert.Contains(t, msg.Body, "Provider: Roadside Co")
}

func TestNotifyStatusChangeSkipsQuietTransitions(t *testing.T) {
	sender := &capturingSender{}
	broadcaster := &capturingBroadcaster{}
	svc := NewService(sender, broadcaster, "ops@example.com", nil)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.Status = dispatch.StatusCompleted

	require.NoError(t, svc.NotifyStatusChange(context.Background(), req))

	// Dashboards still hear about it; the inbox does not.
	assert.Len(t, broadcaster.events, 1)
	assert.Empty(t, sender.sent)
}

func TestNotifyStatusChangeWithoutEmailConfigured(t *testing.T) {
	broadcaster := &capturingBroadcaster{}
	svc := NewService(nil, broadcaster, "", nil)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.Status = dispatch.StatusSubmitted

	require.NoError(t, svc.NotifyStatusChange(context.Background(), req))
	assert.Len(t, broadcaster.events, 1)
}

func TestUnreadBadgeTracksProviderResponses(t *testing.T) {
	svc := NewService(nil, &capturingBroadcaster{}, "", nil)

	accepted := dispatch.NewServiceRequest("owner-1", "Dale")
	accepted.Status = dispatch.StatusAccepted
	require.NoError(t, svc.NotifyStatusChange(context.Background(), accepted))

	countered := dispatch.NewServiceRequest("owner-1", "Dale")
	countered.Status = dispatch.StatusCounterProposed
	require.NoError(t, svc.NotifyStatusChange(context.Background(), countered))

	// Submitting is the owner's own action, not an alert.
	submitted := dispatch.NewServiceRequest("owner-1", "Dale")
	submitted.Status = dispatch.StatusSubmitted
	require.NoError(t, svc.NotifyStatusChange(context.Background(), submitted))

	assert.Equal(t, 2, svc.UnreadCount("owner-1"))
	assert.Equal(t, 0, svc.UnreadCount("owner-2"))

	svc.MarkRead("owner-1")
	assert.Equal(t, 0, svc.UnreadCount("owner-1"))
}

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil))
	assert.NotNil(t, NewSendGridSender(SendGridConfig{APIKey: "SG.test"}, nil))
}
