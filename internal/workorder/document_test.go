package workorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

func TestRenderTireWorkOrder(t *testing.T) {
	unsafe := false
	submittedAt := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.ContactPhone = "555-0142"
	req.FleetName = "Big Sky Logistics"
	req.ServiceType = dispatch.ServiceTypeTire
	req.Urgency = dispatch.UrgencyERS
	req.Location = dispatch.LocationInfo{
		CurrentLocation:   "I-80 westbound near Laramie",
		HighwayOrRoad:     "I-80",
		NearestMileMarker: "314",
		IsSafeLocation:    &unsafe,
	}
	req.Vehicle = dispatch.VehicleInfo{VehicleType: dispatch.VehicleTruck, Make: "Kenworth", Model: "T680", Year: "2021", UnitNumber: "412"}
	req.TireInfo = &dispatch.TireInfo{
		RequestedService: dispatch.TireReplace,
		RequestedTire:    "295/75R22.5",
		NumberOfTires:    1,
		TirePosition:     "driver side rear",
	}
	req.SubmittedAt = &submittedAt

	doc, err := NewTextRenderer().Render(req)
	require.NoError(t, err)
	text := string(doc)

	assert.Contains(t, text, "WORK ORDER "+req.ID)
	assert.Contains(t, text, "Generated 2026-03-04 15:30 UTC")
	assert.Contains(t, text, "Name:   Dale")
	assert.Contains(t, text, "Mile marker: 314")
	assert.Contains(t, text, "Safe spot:   NO - EXPEDITE")
	assert.Contains(t, text, "Unit: 412")
	assert.Contains(t, text, "SERVICE (TIRE, PRIORITY ERS)")
	assert.Contains(t, text, "Requested: tire REPLACE")
	assert.Contains(t, text, "Quantity:  1")
	assert.NotContains(t, text, "Scheduled:")
}

func TestRenderScheduledMechanicalWorkOrder(t *testing.T) {
	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.ServiceType = dispatch.ServiceTypeMechanical
	req.Urgency = dispatch.UrgencyScheduled
	req.Location = dispatch.LocationInfo{CurrentLocation: "TA truck stop, Cheyenne"}
	req.Vehicle = dispatch.VehicleInfo{VehicleType: dispatch.VehicleTruck}
	req.MechanicalInfo = &dispatch.MechanicalInfo{RequestedService: "brake service", Description: "soft pedal, grinding on downhills"}
	req.ScheduledAppointment = &dispatch.Appointment{ScheduledDate: "Next Monday", ScheduledTime: "Morning"}

	doc, err := NewTextRenderer().Render(req)
	require.NoError(t, err)
	text := string(doc)

	assert.Contains(t, text, "Requested: brake service")
	assert.Contains(t, text, "Details:   soft pedal, grinding on downhills")
	assert.Contains(t, text, "Scheduled: Next Monday at Morning")
	// Optional blocks stay out when the data is absent.
	assert.NotContains(t, text, "Mile marker:")
	assert.NotContains(t, text, "Safe spot:")
	assert.NotContains(t, text, "Unit:")
}
