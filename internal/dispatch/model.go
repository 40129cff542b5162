package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// ServiceType routes a request to a tire specialist or a mechanic.
type ServiceType string

const (
	ServiceTypeTire       ServiceType = "TIRE"
	ServiceTypeMechanical ServiceType = "MECHANICAL"
)

// Urgency is the dispatch priority tier. ERS (Emergency Road Service)
// means same-day, DELAYED next-day, SCHEDULED a future appointment.
type Urgency string

const (
	UrgencyERS       Urgency = "ERS"
	UrgencyDelayed   Urgency = "DELAYED"
	UrgencyScheduled Urgency = "SCHEDULED"
)

// VehicleType distinguishes the power unit from the trailer.
type VehicleType string

const (
	VehicleTruck   VehicleType = "TRUCK"
	VehicleTrailer VehicleType = "TRAILER"
)

// TireService is what the technician should do with the tire.
type TireService string

const (
	TireReplace TireService = "REPLACE"
	TireRepair  TireService = "REPAIR"
)

// Status is the post-draft lifecycle of a service request. The draft
// phase is owned by the conversation orchestrator; everything after
// submitted is driven by provider and fleet actions.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusSubmitted       Status = "submitted"
	StatusAccepted        Status = "accepted"
	StatusRejected        Status = "rejected"
	StatusCounterProposed Status = "counter_proposed"
	StatusCounterApproved Status = "counter_approved"
	StatusCounterRejected Status = "counter_rejected"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// LocationInfo describes where the vehicle is.
type LocationInfo struct {
	CurrentLocation   string `json:"current_location,omitempty"`
	HighwayOrRoad     string `json:"highway_or_road,omitempty"`
	NearestMileMarker string `json:"nearest_mile_marker,omitempty"`
	IsSafeLocation    *bool  `json:"is_safe_location,omitempty"`
}

// VehicleInfo describes the unit needing service.
type VehicleInfo struct {
	VehicleType VehicleType `json:"vehicle_type,omitempty"`
	Make        string      `json:"make,omitempty"`
	Model       string      `json:"model,omitempty"`
	Year        string      `json:"year,omitempty"`
	UnitNumber  string      `json:"unit_number,omitempty"`
}

// TireInfo is required when ServiceType is TIRE.
type TireInfo struct {
	RequestedService TireService `json:"requested_service,omitempty"`
	RequestedTire    string      `json:"requested_tire,omitempty"`
	NumberOfTires    int         `json:"number_of_tires,omitempty"`
	TirePosition     string      `json:"tire_position,omitempty"`
}

// MechanicalInfo is required when ServiceType is MECHANICAL.
type MechanicalInfo struct {
	RequestedService string `json:"requested_service,omitempty"`
	Description      string `json:"description,omitempty"`
}

// Appointment holds the requested date and time for SCHEDULED work.
// Dates and times are kept as the driver phrased them ("Next Monday",
// "2:00 PM"); normalization is the provider's call.
type Appointment struct {
	ScheduledDate string `json:"scheduled_date,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
}

// ServiceRequest is the central record built up across conversation
// turns and then negotiated between fleet and provider.
type ServiceRequest struct {
	ID          string    `json:"id"`
	CreatedByID string    `json:"created_by_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`

	DriverName   string `json:"driver_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	FleetName    string `json:"fleet_name,omitempty"`

	ServiceType ServiceType `json:"service_type,omitempty"`
	Urgency     Urgency     `json:"urgency,omitempty"`

	Location LocationInfo `json:"location"`
	Vehicle  VehicleInfo  `json:"vehicle"`

	TireInfo             *TireInfo       `json:"tire_info,omitempty"`
	MechanicalInfo       *MechanicalInfo `json:"mechanical_info,omitempty"`
	ScheduledAppointment *Appointment    `json:"scheduled_appointment,omitempty"`

	ConversationTranscript string `json:"conversation_transcript,omitempty"`

	Status Status `json:"status"`

	AssignedProviderID   string     `json:"assigned_provider_id,omitempty"`
	AssignedProviderName string     `json:"assigned_provider_name,omitempty"`
	SubmittedAt          *time.Time `json:"submitted_at,omitempty"`
	AcceptedAt           *time.Time `json:"accepted_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// NewServiceRequest creates a draft record owned by the given user.
func NewServiceRequest(createdByID, driverName string) *ServiceRequest {
	return &ServiceRequest{
		ID:          uuid.NewString(),
		CreatedByID: createdByID,
		Timestamp:   time.Now().UTC(),
		DriverName:  driverName,
		Status:      StatusDraft,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing the
// nested info blocks.
func (r *ServiceRequest) Clone() *ServiceRequest {
	cp := *r
	if r.Location.IsSafeLocation != nil {
		safe := *r.Location.IsSafeLocation
		cp.Location.IsSafeLocation = &safe
	}
	if r.TireInfo != nil {
		ti := *r.TireInfo
		cp.TireInfo = &ti
	}
	if r.MechanicalInfo != nil {
		mi := *r.MechanicalInfo
		cp.MechanicalInfo = &mi
	}
	if r.ScheduledAppointment != nil {
		ap := *r.ScheduledAppointment
		cp.ScheduledAppointment = &ap
	}
	if r.SubmittedAt != nil {
		t := *r.SubmittedAt
		cp.SubmittedAt = &t
	}
	if r.AcceptedAt != nil {
		t := *r.AcceptedAt
		cp.AcceptedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// AppendTranscript adds one user/assistant exchange to the audit log.
func (r *ServiceRequest) AppendTranscript(exchange string) {
	if r.ConversationTranscript == "" {
		r.ConversationTranscript = exchange
		return
	}
	r.ConversationTranscript += "\n\n" + exchange
}

// ProposalStatus is the lifecycle of a counter-proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// CounterProposal is a provider's alternative schedule for a SCHEDULED
// request. Terminal once the fleet user approves or rejects it.
type CounterProposal struct {
	ID               string         `json:"id"`
	ServiceRequestID string         `json:"service_request_id"`
	ProviderID       string         `json:"provider_id"`
	ProviderName     string         `json:"provider_name"`
	ProposedDate     string         `json:"proposed_date"`
	ProposedTime     string         `json:"proposed_time"`
	Message          string         `json:"message,omitempty"`
	Status           ProposalStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	RespondedAt      *time.Time     `json:"responded_at,omitempty"`
}

// NewCounterProposal creates a pending proposal for a request.
func NewCounterProposal(requestID, providerID, providerName, date, timeOfDay, message string) *CounterProposal {
	return &CounterProposal{
		ID:               uuid.NewString(),
		ServiceRequestID: requestID,
		ProviderID:       providerID,
		ProviderName:     providerName,
		ProposedDate:     date,
		ProposedTime:     timeOfDay,
		Message:          message,
		Status:           ProposalPending,
		CreatedAt:        time.Now().UTC(),
	}
}
