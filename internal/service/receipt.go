package service

import (
	"bytes"
	"fmt"
	"html/template"

	"parkreserve/internal/entities"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Parking Ticket {{.BookingID}}</title></head>
<body>
  <h1>ParkReserve Booking Ticket</h1>
  <p>Booking: <strong>{{.BookingID}}</strong> ({{.Status}})</p>
  <table>
    <tr><td>Name</td><td>{{.UserName}}</td></tr>
    <tr><td>Slot</td><td>{{.SlotNumber}} ({{.SlotType}})</td></tr>
    {{if .Location}}<tr><td>Location</td><td>{{.Location}}</td></tr>{{end}}
    <tr><td>Vehicle plate</td><td>{{.PlateNumber}}</td></tr>
    <tr><td>Plan</td><td>{{.PlanName}}</td></tr>
    <tr><td>Amount</td><td>{{printf "%.2f" .Amount}}</td></tr>
    <tr><td>Check-in</td><td>{{.CheckIn}}</td></tr>
    <tr><td>Check-out</td><td>{{.CheckOut}}</td></tr>
    <tr><td>Paid</td><td>{{if .IsPaid}}yes{{else}}no{{end}}</td></tr>
  </table>
</body>
</html>`

// TicketRenderer renders booking receipts as HTML. It is a pure function of
// booking state; delivery and download are someone else's job.
type TicketRenderer struct {
	tmpl *template.Template
}

func NewTicketRenderer() *TicketRenderer {
	return &TicketRenderer{tmpl: template.Must(template.New("receipt").Parse(receiptTemplate))}
}

func (r *TicketRenderer) Render(d *entities.BookingDetail) ([]byte, error) {
	data := struct {
		*entities.BookingDetail
		Amount   float64
		CheckIn  string
		CheckOut string
	}{
		BookingDetail: d,
		Amount:        float64(d.AmountCents) / 100,
		CheckIn:       d.StartTime.Format(timeLayout),
		CheckOut:      d.EndTime.Format(timeLayout),
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render receipt for booking %s: %w", d.BookingID, err)
	}
	return buf.Bytes(), nil
}
