package workorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

type failingRepo struct {
	Repository
	err error
}

func (r *failingRepo) Upsert(ctx context.Context, req *dispatch.ServiceRequest) error {
	return r.err
}

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) NotifyStatusChange(ctx context.Context, req *dispatch.ServiceRequest) error {
	n.calls++
	return n.err
}

func TestFinalizeSubmitsDraft(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &countingNotifier{}
	f := NewFinalizer(repo, NewTextRenderer(), notifier, nil)

	draft := dispatch.NewServiceRequest("owner-1", "Dale")
	draft.ServiceType = dispatch.ServiceTypeTire
	draft.TireInfo = &dispatch.TireInfo{RequestedService: dispatch.TireReplace, NumberOfTires: 1}

	submitted, err := f.Finalize(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, dispatch.StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	// The caller's draft is never mutated; persistence gates the change.
	assert.Equal(t, dispatch.StatusDraft, draft.Status)
	assert.Nil(t, draft.SubmittedAt)

	stored, err := repo.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSubmitted, stored.Status)
	assert.Equal(t, 1, notifier.calls)
}

func TestFinalizeNonDraftIsNoOp(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &countingNotifier{}
	f := NewFinalizer(repo, nil, notifier, nil)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.Status = dispatch.StatusSubmitted

	out, err := f.Finalize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSubmitted, out.Status)
	assert.Zero(t, notifier.calls)

	// Nothing was written; the record never reached the repository.
	_, err = repo.Get(context.Background(), req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizePersistFailureLeavesDraft(t *testing.T) {
	repo := &failingRepo{err: errors.New("connection refused")}
	f := NewFinalizer(repo, nil, nil, nil)

	draft := dispatch.NewServiceRequest("owner-1", "Dale")

	_, err := f.Finalize(context.Background(), draft)
	require.Error(t, err)
	assert.Equal(t, dispatch.StatusDraft, draft.Status)
	assert.Nil(t, draft.SubmittedAt)
}

func TestFinalizeNotifierFailureDoesNotBlock(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &countingNotifier{err: errors.New("smtp down")}
	f := NewFinalizer(repo, nil, notifier, nil)

	draft := dispatch.NewServiceRequest("owner-1", "Dale")

	submitted, err := f.Finalize(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSubmitted, submitted.Status)
	assert.Equal(t, 1, notifier.calls)
}
