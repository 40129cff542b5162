package workorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octafabbri/hey/internal/dispatch"
)

// db is the subset of pgxpool.Pool the repository needs; pgxmock
// implements it for tests.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores work orders in the relational database.
// Nested info blocks live in JSONB columns so the intake schema can
// evolve without migrations.
type PostgresRepository struct {
	db db
}

func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("workorder: db required")
	}
	return &PostgresRepository{db: db}
}

const requestColumns = `id, created_by_id, created_at, driver_name, contact_phone, fleet_name,
	service_type, urgency, location, vehicle, tire_info, mechanical_info, scheduled_appointment,
	conversation_transcript, status, assigned_provider_id, assigned_provider_name,
	submitted_at, accepted_at, completed_at`

func (r *PostgresRepository) Upsert(ctx context.Context, req *dispatch.ServiceRequest) error {
	location, err := json.Marshal(req.Location)
	if err != nil {
		return fmt.Errorf("workorder: marshal location: %w", err)
	}
	vehicle, err := json.Marshal(req.Vehicle)
	if err != nil {
		return fmt.Errorf("workorder: marshal vehicle: %w", err)
	}
	tire, err := marshalNullable(req.TireInfo)
	if err != nil {
		return fmt.Errorf("workorder: marshal tire info: %w", err)
	}
	mechanical, err := marshalNullable(req.MechanicalInfo)
	if err != nil {
		return fmt.Errorf("workorder: marshal mechanical info: %w", err)
	}
	appointment, err := marshalNullable(req.ScheduledAppointment)
	if err != nil {
		return fmt.Errorf("workorder: marshal appointment: %w", err)
	}

	query := `
		INSERT INTO service_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			driver_name = EXCLUDED.driver_name,
			contact_phone = EXCLUDED.contact_phone,
			fleet_name = EXCLUDED.fleet_name,
			service_type = EXCLUDED.service_type,
			urgency = EXCLUDED.urgency,
			location = EXCLUDED.location,
			vehicle = EXCLUDED.vehicle,
			tire_info = EXCLUDED.tire_info,
			mechanical_info = EXCLUDED.mechanical_info,
			scheduled_appointment = EXCLUDED.scheduled_appointment,
			conversation_transcript = EXCLUDED.conversation_transcript,
			status = EXCLUDED.status,
			assigned_provider_id = EXCLUDED.assigned_provider_id,
			assigned_provider_name = EXCLUDED.assigned_provider_name,
			submitted_at = EXCLUDED.submitted_at,
			accepted_at = EXCLUDED.accepted_at,
			completed_at = EXCLUDED.completed_at
	`
	_, err = r.db.Exec(ctx, query,
		req.ID,
		nullString(req.CreatedByID),
		req.Timestamp,
		req.DriverName,
		req.ContactPhone,
		req.FleetName,
		string(req.ServiceType),
		string(req.Urgency),
		location,
		vehicle,
		tire,
		mechanical,
		appointment,
		req.ConversationTranscript,
		string(req.Status),
		nullString(req.AssignedProviderID),
		nullString(req.AssignedProviderName),
		req.SubmittedAt,
		req.AcceptedAt,
		req.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("workorder: upsert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*dispatch.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("workorder: get failed: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]*dispatch.ServiceRequest, error) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conds = append(conds, fmt.Sprintf("created_by_id = $%d", len(args)))
	}
	if filter.ProviderID != "" {
		args = append(args, filter.ProviderID)
		conds = append(conds, fmt.Sprintf("assigned_provider_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM service_requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("workorder: list failed: %w", err)
	}
	defer rows.Close()

	var out []*dispatch.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("workorder: list scan failed: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workorder: list rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CreateProposal(ctx context.Context, proposal *dispatch.CounterProposal) error {
	query := `
		INSERT INTO counter_proposals (id, service_request_id, provider_id, provider_name,
			proposed_date, proposed_time, message, status, created_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		proposal.ID,
		proposal.ServiceRequestID,
		proposal.ProviderID,
		proposal.ProviderName,
		proposal.ProposedDate,
		proposal.ProposedTime,
		proposal.Message,
		string(proposal.Status),
		proposal.CreatedAt,
		proposal.RespondedAt,
	)
	if err != nil {
		return fmt.Errorf("workorder: create proposal failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetProposal(ctx context.Context, id string) (*dispatch.CounterProposal, error) {
	query := `
		SELECT id, service_request_id, provider_id, provider_name, proposed_date, proposed_time,
			message, status, created_at, responded_at
		FROM counter_proposals WHERE id = $1
	`
	proposal, err := scanProposal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("workorder: get proposal failed: %w", err)
	}
	return proposal, nil
}

func (r *PostgresRepository) UpdateProposal(ctx context.Context, proposal *dispatch.CounterProposal) error {
	query := `
		UPDATE counter_proposals
		SET status = $2, responded_at = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, proposal.ID, string(proposal.Status), proposal.RespondedAt)
	if err != nil {
		return fmt.Errorf("workorder: update proposal failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProposalNotFound
	}
	return nil
}

func (r *PostgresRepository) ListProposals(ctx context.Context, requestID string) ([]*dispatch.CounterProposal, error) {
	query := `
		SELECT id, service_request_id, provider_id, provider_name, proposed_date, proposed_time,
			message, status, created_at, responded_at
		FROM counter_proposals
		WHERE service_request_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("workorder: list proposals failed: %w", err)
	}
	defer rows.Close()

	var out []*dispatch.CounterProposal
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("workorder: list proposals scan failed: %w", err)
		}
		out = append(out, proposal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workorder: list proposals rows: %w", err)
	}
	return out, nil
}

func scanRequest(row pgx.Row) (*dispatch.ServiceRequest, error) {
	var (
		req          dispatch.ServiceRequest
		createdBy    *string
		serviceType  string
		urgency      string
		status       string
		location     []byte
		vehicle      []byte
		tire         []byte
		mechanical   []byte
		appointment  []byte
		providerID   *string
		providerName *string
	)
	err := row.Scan(
		&req.ID,
		&createdBy,
		&req.Timestamp,
		&req.DriverName,
		&req.ContactPhone,
		&req.FleetName,
		&serviceType,
		&urgency,
		&location,
		&vehicle,
		&tire,
		&mechanical,
		&appointment,
		&req.ConversationTranscript,
		&status,
		&providerID,
		&providerName,
		&req.SubmittedAt,
		&req.AcceptedAt,
		&req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	req.CreatedByID = derefString(createdBy)
	req.ServiceType = dispatch.ServiceType(serviceType)
	req.Urgency = dispatch.Urgency(urgency)
	req.Status = dispatch.Status(status)
	req.AssignedProviderID = derefString(providerID)
	req.AssignedProviderName = derefString(providerName)

	if err := json.Unmarshal(location, &req.Location); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	if err := json.Unmarshal(vehicle, &req.Vehicle); err != nil {
		return nil, fmt.Errorf("decode vehicle: %w", err)
	}
	if err := unmarshalNullable(tire, &req.TireInfo); err != nil {
		return nil, fmt.Errorf("decode tire info: %w", err)
	}
	if err := unmarshalNullable(mechanical, &req.MechanicalInfo); err != nil {
		return nil, fmt.Errorf("decode mechanical info: %w", err)
	}
	if err := unmarshalNullable(appointment, &req.ScheduledAppointment); err != nil {
		return nil, fmt.Errorf("decode appointment: %w", err)
	}
	return &req, nil
}

func scanProposal(row pgx.Row) (*dispatch.CounterProposal, error) {
	var (
		proposal dispatch.CounterProposal
		status   string
	)
	err := row.Scan(
		&proposal.ID,
		&proposal.ServiceRequestID,
		&proposal.ProviderID,
		&proposal.ProviderName,
		&proposal.ProposedDate,
		&proposal.ProposedTime,
		&proposal.Message,
		&status,
		&proposal.CreatedAt,
		&proposal.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	proposal.Status = dispatch.ProposalStatus(status)
	return &proposal, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case *dispatch.TireInfo:
		if val == nil {
			return nil, nil
		}
	case *dispatch.MechanicalInfo:
		if val == nil {
			return nil, nil
		}
	case *dispatch.Appointment:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalNullable[T any](data []byte, dst **T) error {
	if len(data) == 0 {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
