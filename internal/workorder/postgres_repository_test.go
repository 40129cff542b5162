package workorder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

var requestColumnNames = []string{
	"id", "created_by_id", "created_at", "driver_name", "contact_phone", "fleet_name",
	"service_type", "urgency", "location", "vehicle", "tire_info", "mechanical_info",
	"scheduled_appointment", "conversation_transcript", "status", "assigned_provider_id",
	"assigned_provider_name", "submitted_at", "accepted_at", "completed_at",
}

func TestPostgresUpsertInsertsRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.ServiceType = dispatch.ServiceTypeTire
	req.TireInfo = &dispatch.TireInfo{RequestedService: dispatch.TireReplace, NumberOfTires: 1}

	mock.ExpectExec("INSERT INTO service_requests").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Upsert(context.Background(), req))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScansRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	unsafe := false
	location, _ := json.Marshal(dispatch.LocationInfo{CurrentLocation: "I-80 mile 314", IsSafeLocation: &unsafe})
	vehicle, _ := json.Marshal(dispatch.VehicleInfo{VehicleType: dispatch.VehicleTruck})
	tire, _ := json.Marshal(dispatch.TireInfo{RequestedService: dispatch.TireReplace, NumberOfTires: 2})
	createdBy := "owner-1"
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM service_requests WHERE id =").
		WithArgs("req-1").
		WillReturnRows(pgxmock.NewRows(requestColumnNames).AddRow(
			"req-1", &createdBy, now, "Dale", "555-0142", "Big Sky Logistics",
			"TIRE", "ERS", location, vehicle, tire, []byte(nil),
			[]byte(nil), "user: hi\nai: hello", "submitted", (*string)(nil),
			(*string)(nil), &now, (*time.Time)(nil), (*time.Time)(nil),
		))

	req, err := repo.Get(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, "owner-1", req.CreatedByID)
	assert.Equal(t, dispatch.ServiceTypeTire, req.ServiceType)
	assert.Equal(t, dispatch.StatusSubmitted, req.Status)
	assert.Equal(t, "I-80 mile 314", req.Location.CurrentLocation)
	require.NotNil(t, req.Location.IsSafeLocation)
	assert.False(t, *req.Location.IsSafeLocation)
	require.NotNil(t, req.TireInfo)
	assert.Equal(t, 2, req.TireInfo.NumberOfTires)
	assert.Nil(t, req.MechanicalInfo)
	assert.NotNil(t, req.SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM service_requests WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresListFiltersByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	location, _ := json.Marshal(dispatch.LocationInfo{})
	vehicle, _ := json.Marshal(dispatch.VehicleInfo{})
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM service_requests WHERE status = ANY\(\$1\) ORDER BY created_at DESC`).
		WithArgs([]string{"submitted", "counter_rejected"}).
		WillReturnRows(pgxmock.NewRows(requestColumnNames).AddRow(
			"req-1", (*string)(nil), now, "Dale", "", "",
			"TIRE", "ERS", location, vehicle, []byte(nil), []byte(nil),
			[]byte(nil), "", "submitted", (*string)(nil),
			(*string)(nil), (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil),
		))

	out, err := repo.List(context.Background(), Filter{
		Statuses: []dispatch.Status{dispatch.StatusSubmitted, dispatch.StatusCounterRejected},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "req-1", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateProposalMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	proposal := dispatch.NewCounterProposal("req-1", "prov-1", "Roadside Co", "Wednesday", "8:00 AM", "")
	proposal.Status = dispatch.ProposalApproved

	mock.ExpectExec("UPDATE counter_proposals").
		WithArgs(proposal.ID, "approved", proposal.RespondedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateProposal(context.Background(), proposal)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestPostgresProposalRoundTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	proposal := dispatch.NewCounterProposal("req-1", "prov-1", "Roadside Co", "Wednesday", "8:00 AM", "Booked Monday")

	mock.ExpectExec("INSERT INTO counter_proposals").
		WithArgs(proposal.ID, "req-1", "prov-1", "Roadside Co", "Wednesday", "8:00 AM",
			"Booked Monday", "pending", proposal.CreatedAt, proposal.RespondedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.CreateProposal(context.Background(), proposal))

	mock.ExpectQuery("SELECT (.+) FROM counter_proposals WHERE id =").
		WithArgs(proposal.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "service_request_id", "provider_id", "provider_name", "proposed_date",
			"proposed_time", "message", "status", "created_at", "responded_at",
		}).AddRow(
			proposal.ID, "req-1", "prov-1", "Roadside Co", "Wednesday",
			"8:00 AM", "Booked Monday", "pending", proposal.CreatedAt, (*time.Time)(nil),
		))

	loaded, err := repo.GetProposal(context.Background(), proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.ProposalPending, loaded.Status)
	assert.Equal(t, "Wednesday", loaded.ProposedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
