package workorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/octafabbri/hey/internal/dispatch"
	"github.com/octafabbri/hey/internal/observability/metrics"
	"github.com/octafabbri/hey/pkg/logging"
)

var negotiationTracer = otel.Tracer("hey.internal.workorder.negotiation")

var (
	// ErrInvalidTransition is returned when an action is not allowed
	// from the request's current status. Handlers map it to 409.
	ErrInvalidTransition = errors.New("workorder: invalid status transition")
	// ErrNotScheduled guards counter proposals, which only make sense
	// against a scheduled appointment.
	ErrNotScheduled = errors.New("workorder: request is not scheduled")
	// ErrProposalResolved is returned when a proposal was already
	// approved or rejected.
	ErrProposalResolved = errors.New("workorder: counter proposal already resolved")
)

// actionable statuses a provider can respond to: fresh submissions and
// requests whose counter offer the fleet turned down.
var providerActionable = []dispatch.Status{dispatch.StatusSubmitted, dispatch.StatusCounterRejected}

// Negotiation drives the provider side of a work order: accept,
// reject, counter-propose, and the fleet's resolution of counters.
type Negotiation struct {
	repo     Repository
	notifier Notifier
	metrics  *metrics.DispatchMetrics
	logger   *logging.Logger
}

func NewNegotiation(repo Repository, notifier Notifier, m *metrics.DispatchMetrics, logger *logging.Logger) *Negotiation {
	if repo == nil {
		panic("workorder: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Negotiation{repo: repo, notifier: notifier, metrics: m, logger: logger}
}

// Accept assigns the request to the provider. Allowed from submitted
// and from counter_rejected, where the request is back in the pool.
func (n *Negotiation) Accept(ctx context.Context, requestID, providerID, providerName string) (*dispatch.ServiceRequest, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.accept")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID), attribute.String("provider.id", providerID))

	req, err := n.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !statusIn(req.Status, providerActionable) {
		return nil, fmt.Errorf("%w: cannot accept from %s", ErrInvalidTransition, req.Status)
	}

	req.Status = dispatch.StatusAccepted
	req.AssignedProviderID = providerID
	req.AssignedProviderName = providerName
	now := time.Now().UTC()
	req.AcceptedAt = &now

	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("accept", string(req.Status))
	n.notify(ctx, req)
	return req, nil
}

// Reject declines the request outright.
func (n *Negotiation) Reject(ctx context.Context, requestID, providerID string) (*dispatch.ServiceRequest, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.reject")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID), attribute.String("provider.id", providerID))

	req, err := n.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !statusIn(req.Status, providerActionable) {
		return nil, fmt.Errorf("%w: cannot reject from %s", ErrInvalidTransition, req.Status)
	}

	req.Status = dispatch.StatusRejected
	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("reject", string(req.Status))
	n.notify(ctx, req)
	return req, nil
}

// CounterPropose offers an alternative schedule. Only valid against a
// SCHEDULED request; the request is assigned to the proposing provider
// while the fleet decides.
func (n *Negotiation) CounterPropose(ctx context.Context, requestID, providerID, providerName, proposedDate, proposedTime, message string) (*dispatch.CounterProposal, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.counter_propose")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID), attribute.String("provider.id", providerID))

	req, err := n.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Urgency != dispatch.UrgencyScheduled {
		return nil, ErrNotScheduled
	}
	if !statusIn(req.Status, providerActionable) {
		return nil, fmt.Errorf("%w: cannot counter from %s", ErrInvalidTransition, req.Status)
	}
	if strings.TrimSpace(proposedDate) == "" || strings.TrimSpace(proposedTime) == "" {
		return nil, errors.New("workorder: proposed date and time are required")
	}

	proposal := dispatch.NewCounterProposal(requestID, providerID, providerName, proposedDate, proposedTime, message)
	if err := n.repo.CreateProposal(ctx, proposal); err != nil {
		span.RecordError(err)
		return nil, err
	}

	req.Status = dispatch.StatusCounterProposed
	req.AssignedProviderID = providerID
	req.AssignedProviderName = providerName
	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("counter_propose", string(req.Status))
	n.notify(ctx, req)
	return proposal, nil
}

// ApproveProposal locks in the provider's alternative: the request
// takes the proposed date and time and moves to counter_approved.
func (n *Negotiation) ApproveProposal(ctx context.Context, proposalID string) (*dispatch.ServiceRequest, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.approve_proposal")
	defer span.End()
	span.SetAttributes(attribute.String("proposal.id", proposalID))

	proposal, err := n.repo.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != dispatch.ProposalPending {
		return nil, ErrProposalResolved
	}

	req, err := n.repo.Get(ctx, proposal.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != dispatch.StatusCounterProposed {
		return nil, fmt.Errorf("%w: cannot approve proposal from %s", ErrInvalidTransition, req.Status)
	}

	now := time.Now().UTC()
	proposal.Status = dispatch.ProposalApproved
	proposal.RespondedAt = &now
	if err := n.repo.UpdateProposal(ctx, proposal); err != nil {
		span.RecordError(err)
		return nil, err
	}

	req.Status = dispatch.StatusCounterApproved
	if req.ScheduledAppointment == nil {
		req.ScheduledAppointment = &dispatch.Appointment{}
	}
	req.ScheduledAppointment.ScheduledDate = proposal.ProposedDate
	req.ScheduledAppointment.ScheduledTime = proposal.ProposedTime
	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("approve_proposal", string(req.Status))
	n.notify(ctx, req)
	return req, nil
}

// RejectProposal sends the request back to the pool: the provider
// assignment is cleared so any provider, including the same one, can
// pick it up again.
func (n *Negotiation) RejectProposal(ctx context.Context, proposalID string) (*dispatch.ServiceRequest, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.reject_proposal")
	defer span.End()
	span.SetAttributes(attribute.String("proposal.id", proposalID))

	proposal, err := n.repo.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != dispatch.ProposalPending {
		return nil, ErrProposalResolved
	}

	req, err := n.repo.Get(ctx, proposal.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != dispatch.StatusCounterProposed {
		return nil, fmt.Errorf("%w: cannot reject proposal from %s", ErrInvalidTransition, req.Status)
	}

	now := time.Now().UTC()
	proposal.Status = dispatch.ProposalRejected
	proposal.RespondedAt = &now
	if err := n.repo.UpdateProposal(ctx, proposal); err != nil {
		span.RecordError(err)
		return nil, err
	}

	req.Status = dispatch.StatusCounterRejected
	req.AssignedProviderID = ""
	req.AssignedProviderName = ""
	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("reject_proposal", string(req.Status))
	n.notify(ctx, req)
	return req, nil
}

// Complete marks the work done.
func (n *Negotiation) Complete(ctx context.Context, requestID string) (*dispatch.ServiceRequest, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.complete")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID))

	req, err := n.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !statusIn(req.Status, []dispatch.Status{dispatch.StatusAccepted, dispatch.StatusCounterApproved}) {
		return nil, fmt.Errorf("%w: cannot complete from %s", ErrInvalidTransition, req.Status)
	}

	req.Status = dispatch.StatusCompleted
	now := time.Now().UTC()
	req.CompletedAt = &now
	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("complete", string(req.Status))
	return req, nil
}

// Cancel withdraws the request. Allowed from any non-terminal status.
func (n *Negotiation) Cancel(ctx context.Context, requestID string) (*dispatch.ServiceRequest, error) {
	ctx, span := negotiationTracer.Start(ctx, "workorder.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID))

	req, err := n.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == dispatch.StatusCompleted || req.Status == dispatch.StatusCancelled {
		return nil, fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, req.Status)
	}

	req.Status = dispatch.StatusCancelled
	if err := n.repo.Upsert(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n.metrics.RecordNegotiation("cancel", string(req.Status))
	return req, nil
}

// ActionableForProvider lists the dispatch pool a provider can respond
// to right now.
func (n *Negotiation) ActionableForProvider(ctx context.Context) ([]*dispatch.ServiceRequest, error) {
	return n.repo.List(ctx, Filter{Statuses: providerActionable})
}

// ActiveForProvider lists a provider's confirmed jobs.
func (n *Negotiation) ActiveForProvider(ctx context.Context, providerID string) ([]*dispatch.ServiceRequest, error) {
	return n.repo.List(ctx, Filter{
		ProviderID: providerID,
		Statuses:   []dispatch.Status{dispatch.StatusAccepted, dispatch.StatusCounterApproved},
	})
}

// HistoryForOwner lists every request a fleet user has created.
func (n *Negotiation) HistoryForOwner(ctx context.Context, ownerID string) ([]*dispatch.ServiceRequest, error) {
	return n.repo.List(ctx, Filter{OwnerID: ownerID})
}

// ProposalsForRequest lists counter proposals, newest first.
func (n *Negotiation) ProposalsForRequest(ctx context.Context, requestID string) ([]*dispatch.CounterProposal, error) {
	return n.repo.ListProposals(ctx, requestID)
}

func (n *Negotiation) notify(ctx context.Context, req *dispatch.ServiceRequest) {
	if n.notifier == nil {
		return
	}
	if err := n.notifier.NotifyStatusChange(ctx, req); err != nil {
		n.logger.Error("status change notification failed",
			"request_id", req.ID, "status", string(req.Status), "error", err.Error())
	}
}

func statusIn(status dispatch.Status, allowed []dispatch.Status) bool {
	for _, s := range allowed {
		if status == s {
			return true
		}
	}
	return false
}
