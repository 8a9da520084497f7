package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//smartflow//production schedule//CN"

// Event 日历中的一段生产作业
type Event struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
	Status      string // pending | in_progress | completed
}

// Build 生成 iCalendar 文本（PUBLISH），时间统一写为 UTC
func Build(name string, events []Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(name)

	for _, e := range events {
		evt := cal.AddEvent(e.UID)
		evt.SetDtStampTime(stamp.UTC())
		evt.SetStartAt(e.Start.UTC())
		evt.SetEndAt(e.End.UTC())
		evt.SetSummary(e.Summary)
		if e.Description != "" {
			evt.SetDescription(e.Description)
		}
		if e.Location != "" {
			evt.SetLocation(e.Location)
		}
		evt.SetProperty(ics.ComponentPropertyStatus, icsStatus(e.Status))
	}
	return cal.Serialize()
}

// icsStatus 条目状态 → VEVENT STATUS
func icsStatus(status string) string {
	switch status {
	case "completed", "in_progress":
		return "CONFIRMED"
	default:
		return "TENTATIVE"
	}
}
