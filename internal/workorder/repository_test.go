package workorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

func TestInMemoryUpsertStoresClone(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.TireInfo = &dispatch.TireInfo{NumberOfTires: 1}
	require.NoError(t, repo.Upsert(ctx, req))

	// Mutating the caller's record after the write must not leak into
	// the stored copy.
	req.DriverName = "Someone Else"
	req.TireInfo.NumberOfTires = 9

	stored, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dale", stored.DriverName)
	assert.Equal(t, 1, stored.TireInfo.NumberOfTires)
}

func TestInMemoryListSortsNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	older := dispatch.NewServiceRequest("owner-1", "Dale")
	older.Timestamp = time.Now().Add(-time.Hour)
	newer := dispatch.NewServiceRequest("owner-1", "Dale")

	require.NoError(t, repo.Upsert(ctx, older))
	require.NoError(t, repo.Upsert(ctx, newer))

	out, err := repo.List(ctx, Filter{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, newer.ID, out[0].ID)
	assert.Equal(t, older.ID, out[1].ID)
}

func TestInMemoryListFilterByProvider(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	mine := dispatch.NewServiceRequest("owner-1", "Dale")
	mine.AssignedProviderID = "prov-1"
	other := dispatch.NewServiceRequest("owner-2", "Bea")
	other.AssignedProviderID = "prov-2"

	require.NoError(t, repo.Upsert(ctx, mine))
	require.NoError(t, repo.Upsert(ctx, other))

	out, err := repo.List(ctx, Filter{ProviderID: "prov-1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, mine.ID, out[0].ID)
}

func TestInMemoryProposalLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	proposal := dispatch.NewCounterProposal("req-1", "prov-1", "Roadside Co", "Wednesday", "8:00 AM", "")
	require.NoError(t, repo.CreateProposal(ctx, proposal))

	proposal.Status = dispatch.ProposalApproved
	require.NoError(t, repo.UpdateProposal(ctx, proposal))

	loaded, err := repo.GetProposal(ctx, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.ProposalApproved, loaded.Status)

	listed, err := repo.ListProposals(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	err = repo.UpdateProposal(ctx, dispatch.NewCounterProposal("req-1", "p", "", "d", "t", ""))
	assert.ErrorIs(t, err, ErrProposalNotFound)
}
