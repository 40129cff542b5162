// Package workorder owns the post-conversation life of a service
// request: submission, provider negotiation, and completion.
package workorder

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/octafabbri/hey/internal/dispatch"
)

var (
	ErrNotFound         = errors.New("workorder: service request not found")
	ErrProposalNotFound = errors.New("workorder: counter proposal not found")
)

// Filter narrows a List call. Zero values match everything.
type Filter struct {
	OwnerID    string
	ProviderID string
	Statuses   []dispatch.Status
}

func (f Filter) matches(req *dispatch.ServiceRequest) bool {
	if f.OwnerID != "" && req.CreatedByID != f.OwnerID {
		return false
	}
	if f.ProviderID != "" && req.AssignedProviderID != f.ProviderID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if req.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Repository is the storage boundary for work orders and their counter
// proposals.
type Repository interface {
	Upsert(ctx context.Context, req *dispatch.ServiceRequest) error
	Get(ctx context.Context, id string) (*dispatch.ServiceRequest, error)
	List(ctx context.Context, filter Filter) ([]*dispatch.ServiceRequest, error)

	CreateProposal(ctx context.Context, proposal *dispatch.CounterProposal) error
	GetProposal(ctx context.Context, id string) (*dispatch.CounterProposal, error)
	UpdateProposal(ctx context.Context, proposal *dispatch.CounterProposal) error
	ListProposals(ctx context.Context, requestID string) ([]*dispatch.CounterProposal, error)
}

// InMemoryRepository backs tests and local development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	requests  map[string]*dispatch.ServiceRequest
	proposals map[string]*dispatch.CounterProposal
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		requests:  make(map[string]*dispatch.ServiceRequest),
		proposals: make(map[string]*dispatch.CounterProposal),
	}
}

func (r *InMemoryRepository) Upsert(ctx context.Context, req *dispatch.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req.Clone()
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*dispatch.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return req.Clone(), nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter Filter) ([]*dispatch.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*dispatch.ServiceRequest
	for _, req := range r.requests {
		if filter.matches(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (r *InMemoryRepository) CreateProposal(ctx context.Context, proposal *dispatch.CounterProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *proposal
	r.proposals[proposal.ID] = &cp
	return nil
}

func (r *InMemoryRepository) GetProposal(ctx context.Context, id string) (*dispatch.CounterProposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proposal, ok := r.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	cp := *proposal
	return &cp, nil
}

func (r *InMemoryRepository) UpdateProposal(ctx context.Context, proposal *dispatch.CounterProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.proposals[proposal.ID]; !ok {
		return ErrProposalNotFound
	}
	cp := *proposal
	r.proposals[proposal.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListProposals(ctx context.Context, requestID string) ([]*dispatch.CounterProposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*dispatch.CounterProposal
	for _, proposal := range r.proposals {
		if proposal.ServiceRequestID == requestID {
			cp := *proposal
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
