package dispatch

import "strings"

// Partial mirrors ServiceRequest with every field optional, as decoded
// from an extraction response. Enum fields arrive as free strings and
// are normalized during merge; unrecognized values are discarded.
type Partial struct {
	DriverName   string `json:"driver_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	FleetName    string `json:"fleet_name,omitempty"`

	ServiceType string `json:"service_type,omitempty"`
	Urgency     string `json:"urgency,omitempty"`

	Location *PartialLocation `json:"location,omitempty"`
	Vehicle  *PartialVehicle  `json:"vehicle,omitempty"`

	TireInfo             *PartialTire        `json:"tire_info,omitempty"`
	MechanicalInfo       *PartialMechanical  `json:"mechanical_info,omitempty"`
	ScheduledAppointment *PartialAppointment `json:"scheduled_appointment,omitempty"`
}

type PartialLocation struct {
	CurrentLocation   string `json:"current_location,omitempty"`
	HighwayOrRoad     string `json:"highway_or_road,omitempty"`
	NearestMileMarker string `json:"nearest_mile_marker,omitempty"`
	IsSafeLocation    *bool  `json:"is_safe_location,omitempty"`
}

type PartialVehicle struct {
	VehicleType string `json:"vehicle_type,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Year        string `json:"year,omitempty"`
	UnitNumber  string `json:"unit_number,omitempty"`
}

type PartialTire struct {
	RequestedService string `json:"requested_service,omitempty"`
	RequestedTire    string `json:"requested_tire,omitempty"`
	NumberOfTires    int    `json:"number_of_tires,omitempty"`
	TirePosition     string `json:"tire_position,omitempty"`
}

type PartialMechanical struct {
	RequestedService string `json:"requested_service,omitempty"`
	Description      string `json:"description,omitempty"`
}

type PartialAppointment struct {
	ScheduledDate string `json:"scheduled_date,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
}

// IsEmpty reports whether the partial carries no usable information.
func (p *Partial) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.DriverName == "" && p.ContactPhone == "" && p.FleetName == "" &&
		p.ServiceType == "" && p.Urgency == "" &&
		p.Location == nil && p.Vehicle == nil &&
		p.TireInfo == nil && p.MechanicalInfo == nil && p.ScheduledAppointment == nil
}

// Merge folds a partial into an existing record and returns a new
// record; neither input is mutated. Absent and empty values leave the
// record's earlier answers intact, so a turn that mentions nothing new
// loses nothing. Nested blocks merge field by field. Enum strings are
// normalized to upper case and dropped when they match no known value.
func Merge(existing *ServiceRequest, partial *Partial) *ServiceRequest {
	merged := existing.Clone()
	if partial == nil {
		return merged
	}

	setString(&merged.DriverName, partial.DriverName)
	setString(&merged.ContactPhone, partial.ContactPhone)
	setString(&merged.FleetName, partial.FleetName)

	if st, ok := parseServiceType(partial.ServiceType); ok {
		merged.ServiceType = st
	}
	if u, ok := parseUrgency(partial.Urgency); ok {
		merged.Urgency = u
	}

	if loc := partial.Location; loc != nil {
		setString(&merged.Location.CurrentLocation, loc.CurrentLocation)
		setString(&merged.Location.HighwayOrRoad, loc.HighwayOrRoad)
		setString(&merged.Location.NearestMileMarker, loc.NearestMileMarker)
		if loc.IsSafeLocation != nil {
			safe := *loc.IsSafeLocation
			merged.Location.IsSafeLocation = &safe
		}
	}

	if veh := partial.Vehicle; veh != nil {
		if vt, ok := parseVehicleType(veh.VehicleType); ok {
			merged.Vehicle.VehicleType = vt
		}
		setString(&merged.Vehicle.Make, veh.Make)
		setString(&merged.Vehicle.Model, veh.Model)
		setString(&merged.Vehicle.Year, veh.Year)
		setString(&merged.Vehicle.UnitNumber, veh.UnitNumber)
	}

	if tire := partial.TireInfo; tire != nil {
		if merged.TireInfo == nil {
			merged.TireInfo = &TireInfo{}
		}
		if ts, ok := parseTireService(tire.RequestedService); ok {
			merged.TireInfo.RequestedService = ts
		}
		setString(&merged.TireInfo.RequestedTire, tire.RequestedTire)
		if tire.NumberOfTires > 0 {
			merged.TireInfo.NumberOfTires = tire.NumberOfTires
		}
		setString(&merged.TireInfo.TirePosition, tire.TirePosition)
	}

	if mech := partial.MechanicalInfo; mech != nil {
		if merged.MechanicalInfo == nil {
			merged.MechanicalInfo = &MechanicalInfo{}
		}
		setString(&merged.MechanicalInfo.RequestedService, mech.RequestedService)
		setString(&merged.MechanicalInfo.Description, mech.Description)
	}

	if appt := partial.ScheduledAppointment; appt != nil {
		if merged.ScheduledAppointment == nil {
			merged.ScheduledAppointment = &Appointment{}
		}
		setString(&merged.ScheduledAppointment.ScheduledDate, appt.ScheduledDate)
		setString(&merged.ScheduledAppointment.ScheduledTime, appt.ScheduledTime)
	}

	return merged
}

func setString(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = strings.TrimSpace(src)
	}
}

func parseServiceType(s string) (ServiceType, bool) {
	switch ServiceType(strings.ToUpper(strings.TrimSpace(s))) {
	case ServiceTypeTire:
		return ServiceTypeTire, true
	case ServiceTypeMechanical:
		return ServiceTypeMechanical, true
	}
	return "", false
}

func parseUrgency(s string) (Urgency, bool) {
	switch Urgency(strings.ToUpper(strings.TrimSpace(s))) {
	case UrgencyERS:
		return UrgencyERS, true
	case UrgencyDelayed:
		return UrgencyDelayed, true
	case UrgencyScheduled:
		return UrgencyScheduled, true
	}
	return "", false
}

func parseVehicleType(s string) (VehicleType, bool) {
	switch VehicleType(strings.ToUpper(strings.TrimSpace(s))) {
	case VehicleTruck:
		return VehicleTruck, true
	case VehicleTrailer:
		return VehicleTrailer, true
	}
	return "", false
}

func parseTireService(s string) (TireService, bool) {
	switch TireService(strings.ToUpper(strings.TrimSpace(s))) {
	case TireReplace:
		return TireReplace, true
	case TireRepair:
		return TireRepair, true
	}
	return "", false
}
