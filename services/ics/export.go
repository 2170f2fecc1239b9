package ics

import (
	"time"

	"morningfocus/models"
	"morningfocus/services/calendar"
	"morningfocus/services/reflection"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//Morning Focus//Focus Blocks//EN"

// UID returns the stable VEVENT uid of a stored block.
func UID(b models.ScheduledBlock) string {
	return b.ID + "@morningfocus"
}

// Export renders the confirmed blocks of r as a VCALENDAR. Summaries match
// the titles of the events created on confirm.
func Export(r *models.Reflection, blocks []models.ScheduledBlock, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Morning Focus " + r.Date)

	title := reflection.TitleBase(r)
	split := len(blocks) > 1
	for _, b := range blocks {
		ev := cal.AddEvent(UID(b))
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(b.StartTime.UTC())
		ev.SetEndAt(b.EndTime.UTC())
		ev.SetSummary(reflection.EventSummary(title, b.BlockIndex, b.TotalBlocks, split))
		ev.SetDescription(calendar.DefaultEventDescription)
		if b.CalendarEventID != "" {
			ev.SetProperty(ical.ComponentProperty("X-MORNINGFOCUS-EVENT-ID"), b.CalendarEventID)
		}
	}
	return cal.Serialize()
}

// Filename is the attachment name for the export of r.
func Filename(r *models.Reflection) string {
	return "focus-" + r.Date + ".ics"
}
