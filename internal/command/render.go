package command

import (
	"fmt"
	"strings"

	"techbook/internal/models"
)

const renderTimeLayout = "Mon Jan 2 2006 15:04 MST"

// Render formats a result as plain text for chat and terminal surfaces.
func Render(r *Result) string {
	if r == nil {
		return ""
	}
	if !r.OK() {
		return fmt.Sprintf("Error [%s]: %s", r.Error.Code, r.Error.Message)
	}

	var sb strings.Builder
	sb.WriteString(r.Message)
	if r.Booking != nil && r.Intent != "" {
		sb.WriteString("\n")
		sb.WriteString(RenderBooking(r.Booking))
	}
	for i := range r.Bookings {
		sb.WriteString("\n")
		sb.WriteString(RenderBooking(&r.Bookings[i]))
	}
	return sb.String()
}

// RenderBooking is the one-line summary of a booking.
func RenderBooking(b *models.Booking) string {
	return fmt.Sprintf("- %s | %s (%s) for %s | %s to %s",
		b.ID, b.TechnicianName, b.Profession, b.CustomerName,
		b.StartTime.Format(renderTimeLayout), b.EndTime.Format("15:04"))
}
