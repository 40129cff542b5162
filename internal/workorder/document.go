package workorder

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/octafabbri/hey/internal/dispatch"
)

// workOrderTemplate is the plain-text document a driver downloads and
// a technician takes on the road.
var workOrderTemplate = template.Must(template.New("workorder").Parse(`WORK ORDER {{.ID}}
Generated {{.GeneratedAt}}

DRIVER
  Name:   {{.Req.DriverName}}
  Phone:  {{.Req.ContactPhone}}
  Fleet:  {{.Req.FleetName}}

LOCATION
  Current:     {{.Req.Location.CurrentLocation}}
{{- if .Req.Location.HighwayOrRoad}}
  Highway:     {{.Req.Location.HighwayOrRoad}}
{{- end}}
{{- if .Req.Location.NearestMileMarker}}
  Mile marker: {{.Req.Location.NearestMileMarker}}
{{- end}}
{{- if .SafeLocation}}
  Safe spot:   {{.SafeLocation}}
{{- end}}

VEHICLE
  Type: {{.Req.Vehicle.VehicleType}}
{{- if .Req.Vehicle.Make}}
  Make: {{.Req.Vehicle.Make}} {{.Req.Vehicle.Model}} {{.Req.Vehicle.Year}}
{{- end}}
{{- if .Req.Vehicle.UnitNumber}}
  Unit: {{.Req.Vehicle.UnitNumber}}
{{- end}}

SERVICE ({{.Req.ServiceType}}, PRIORITY {{.Req.Urgency}})
{{- if .Req.TireInfo}}
  Requested: tire {{.Req.TireInfo.RequestedService}}
  Tire:      {{.Req.TireInfo.RequestedTire}}
  Quantity:  {{.Req.TireInfo.NumberOfTires}}
  Position:  {{.Req.TireInfo.TirePosition}}
{{- end}}
{{- if .Req.MechanicalInfo}}
  Requested: {{.Req.MechanicalInfo.RequestedService}}
  Details:   {{.Req.MechanicalInfo.Description}}
{{- end}}
{{- if .Req.ScheduledAppointment}}
  Scheduled: {{.Req.ScheduledAppointment.ScheduledDate}} at {{.Req.ScheduledAppointment.ScheduledTime}}
{{- end}}
`))

// TextRenderer renders a work order as a plain-text document.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

type documentData struct {
	ID           string
	GeneratedAt  string
	SafeLocation string
	Req          *dispatch.ServiceRequest
}

func (r *TextRenderer) Render(req *dispatch.ServiceRequest) ([]byte, error) {
	generatedAt := req.Timestamp.Format("2006-01-02 15:04 MST")
	if req.SubmittedAt != nil {
		generatedAt = req.SubmittedAt.Format("2006-01-02 15:04 MST")
	}

	safeLocation := ""
	if req.Location.IsSafeLocation != nil {
		safeLocation = "yes"
		if !*req.Location.IsSafeLocation {
			safeLocation = "NO - EXPEDITE"
		}
	}

	var buf bytes.Buffer
	if err := workOrderTemplate.Execute(&buf, documentData{
		ID:           req.ID,
		GeneratedAt:  generatedAt,
		SafeLocation: safeLocation,
		Req:          req,
	}); err != nil {
		return nil, fmt.Errorf("workorder: render document: %w", err)
	}
	return buf.Bytes(), nil
}
