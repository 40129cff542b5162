package conversation

import (
	"fmt"
	"strings"

	"github.com/octafabbri/hey/internal/dispatch"
)

// BuildConfirmationSummary renders the deterministic read-back spoken
// once a record validates complete. It is assembled from the record,
// never from a model call, so what the driver confirms is exactly what
// gets submitted.
func BuildConfirmationSummary(req *dispatch.ServiceRequest) string {
	vehicleType := "vehicle"
	if req.Vehicle.VehicleType != "" {
		vehicleType = strings.ToLower(string(req.Vehicle.VehicleType))
	}

	var urgencyText string
	switch req.Urgency {
	case dispatch.UrgencyERS:
		urgencyText = "emergency same-day"
	case dispatch.UrgencyDelayed:
		urgencyText = "next-day"
	default:
		urgencyText = "scheduled"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Alright, let me read this back to you. ")
	fmt.Fprintf(&b, "Driver name, %s. ", req.DriverName)
	fmt.Fprintf(&b, "Phone, %s. ", req.ContactPhone)
	fmt.Fprintf(&b, "Fleet, %s. ", req.FleetName)
	fmt.Fprintf(&b, "Location, %s. ", req.Location.CurrentLocation)
	fmt.Fprintf(&b, "Vehicle type, %s. ", vehicleType)

	if req.ServiceType == dispatch.ServiceTypeTire && req.TireInfo != nil {
		service := "service"
		if req.TireInfo.RequestedService != "" {
			service = strings.ToLower(string(req.TireInfo.RequestedService))
		}
		fmt.Fprintf(&b, "Service type, tire %s. ", service)
		fmt.Fprintf(&b, "Tire, %s. ", req.TireInfo.RequestedTire)
		fmt.Fprintf(&b, "Quantity, %d. ", req.TireInfo.NumberOfTires)
		fmt.Fprintf(&b, "Position, %s. ", req.TireInfo.TirePosition)
	} else if req.ServiceType == dispatch.ServiceTypeMechanical && req.MechanicalInfo != nil {
		fmt.Fprintf(&b, "Service type, mechanical. ")
		fmt.Fprintf(&b, "Requested service, %s. ", req.MechanicalInfo.RequestedService)
		fmt.Fprintf(&b, "Issue, %s. ", req.MechanicalInfo.Description)
	}

	fmt.Fprintf(&b, "Priority, %s. ", urgencyText)

	if req.Urgency == dispatch.UrgencyScheduled && req.ScheduledAppointment != nil {
		fmt.Fprintf(&b, "Scheduled for %s at %s. ",
			req.ScheduledAppointment.ScheduledDate,
			req.ScheduledAppointment.ScheduledTime)
	}

	b.WriteString("Does everything look right, or do you need to change anything?")
	return b.String()
}
