package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/octafabbri/hey/internal/dispatch"
	"github.com/octafabbri/hey/pkg/logging"
)

// Broadcaster pushes a status change to connected dashboards.
// Implemented by the realtime websocket hub.
type Broadcaster interface {
	BroadcastStatusChange(req *dispatch.ServiceRequest)
}

// Service fans a work order status change out to email and realtime
// subscribers. Either channel may be absent.
type Service struct {
	email       EmailSender
	broadcaster Broadcaster
	opsEmail    string
	logger      *logging.Logger

	mu     sync.Mutex
	unread map[string]int
}

func NewService(email EmailSender, broadcaster Broadcaster, opsEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:       email,
		broadcaster: broadcaster,
		opsEmail:    opsEmail,
		logger:      logger,
		unread:      make(map[string]int),
	}
}

// notifiable is the set of transitions a fleet user cares about
// immediately; the rest show up on the dashboard on next load.
var notifiable = map[dispatch.Status]string{
	dispatch.StatusSubmitted:       "New service request submitted",
	dispatch.StatusAccepted:        "Your service request was accepted",
	dispatch.StatusRejected:        "Your service request was declined",
	dispatch.StatusCounterProposed: "A provider proposed a different time",
}

// ownerAlerts are the provider-driven transitions that bump the
// requesting fleet user's unread badge.
var ownerAlerts = map[dispatch.Status]bool{
	dispatch.StatusAccepted:        true,
	dispatch.StatusRejected:        true,
	dispatch.StatusCounterProposed: true,
	dispatch.StatusCompleted:       true,
}

// NotifyStatusChange emails the ops inbox and broadcasts to dashboards.
// A failed email is an error for the caller to log; the broadcast is
// always attempted first and never fails.
func (s *Service) NotifyStatusChange(ctx context.Context, req *dispatch.ServiceRequest) error {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastStatusChange(req)
	}

	if ownerAlerts[req.Status] && req.CreatedByID != "" {
		s.mu.Lock()
		s.unread[req.CreatedByID]++
		s.mu.Unlock()
	}

	subject, ok := notifiable[req.Status]
	if !ok {
		return nil
	}
	if s.email == nil || s.opsEmail == "" {
		s.logger.Debug("email channel not configured, skipping", "request_id", req.ID)
		return nil
	}

	body := fmt.Sprintf(
		"Work order %s is now %s.\n\nDriver: %s\nFleet: %s\nService: %s\nPriority: %s\nLocation: %s\n",
		req.ID,
		req.Status,
		req.DriverName,
		req.FleetName,
		req.ServiceType,
		req.Urgency,
		req.Location.CurrentLocation,
	)
	if req.AssignedProviderName != "" {
		body += fmt.Sprintf("Provider: %s\n", req.AssignedProviderName)
	}

	return s.email.Send(ctx, EmailMessage{
		To:      s.opsEmail,
		ToName:  "Dispatch Ops",
		Subject: fmt.Sprintf("%s (%s)", subject, req.ID),
		Body:    body,
	})
}

// UnreadCount returns how many provider responses the user has not
// acknowledged yet.
func (s *Service) UnreadCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[userID]
}

// MarkRead clears the user's unread badge.
func (s *Service) MarkRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unread, userID)
}
