package dispatch

// Validation is the result of a completeness check. MissingFields uses
// dotted paths ("location.current_location") so a caller can prompt
// for the exact answers still outstanding; a conditional block that is
// entirely absent is reported once by its block key ("tire_info").
type Validation struct {
	IsComplete    bool     `json:"is_complete"`
	MissingFields []string `json:"missing_fields"`
}

// Validate applies the layered completeness rules: base fields always,
// tire fields only for TIRE requests, mechanical fields only for
// MECHANICAL, and appointment fields only for SCHEDULED urgency.
// Fields behind a condition that does not apply are never reported.
func Validate(req *ServiceRequest) Validation {
	var missing []string

	if req.DriverName == "" {
		missing = append(missing, "driver_name")
	}
	if req.ContactPhone == "" {
		missing = append(missing, "contact_phone")
	}
	if req.FleetName == "" {
		missing = append(missing, "fleet_name")
	}
	if req.ServiceType == "" {
		missing = append(missing, "service_type")
	}
	if req.Urgency == "" {
		missing = append(missing, "urgency")
	}
	if req.Location.CurrentLocation == "" {
		missing = append(missing, "location.current_location")
	}
	if req.Vehicle.VehicleType == "" {
		missing = append(missing, "vehicle.vehicle_type")
	}

	if req.ServiceType == ServiceTypeTire {
		if tire := req.TireInfo; tire == nil {
			missing = append(missing, "tire_info")
		} else {
			if tire.RequestedService == "" {
				missing = append(missing, "tire_info.requested_service")
			}
			if tire.RequestedTire == "" {
				missing = append(missing, "tire_info.requested_tire")
			}
			if tire.NumberOfTires <= 0 {
				missing = append(missing, "tire_info.number_of_tires")
			}
			if tire.TirePosition == "" {
				missing = append(missing, "tire_info.tire_position")
			}
		}
	}

	if req.ServiceType == ServiceTypeMechanical {
		if mech := req.MechanicalInfo; mech == nil {
			missing = append(missing, "mechanical_info")
		} else {
			if mech.RequestedService == "" {
				missing = append(missing, "mechanical_info.requested_service")
			}
			if mech.Description == "" {
				missing = append(missing, "mechanical_info.description")
			}
		}
	}

	if req.Urgency == UrgencyScheduled {
		if appt := req.ScheduledAppointment; appt == nil {
			missing = append(missing, "scheduled_appointment")
		} else {
			if appt.ScheduledDate == "" {
				missing = append(missing, "scheduled_appointment.scheduled_date")
			}
			if appt.ScheduledTime == "" {
				missing = append(missing, "scheduled_appointment.scheduled_time")
			}
		}
	}

	return Validation{IsComplete: len(missing) == 0, MissingFields: missing}
}
