package calendar

import (
	"fmt"
	"strings"
	"time"

	"quest/internal/recurrence"
)

const icsDateLayout = "20060102"

// BuildICS renders templates as an iCalendar feed, one all-day event per
// template with its recurrence and skipped dates.
func BuildICS(templates []recurrence.Template, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Quest//Mission Schedule//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := now.UTC().Format("20060102T150405Z")
	for _, t := range templates {
		if t.Validate() != nil {
			continue
		}
		if t.Rule != nil && t.Rule.Unit() == recurrence.UnitWeek && t.Rule.Weekdays().Empty() {
			continue
		}
		lines = append(lines, eventLines(t, stamp)...)
	}
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func eventLines(t recurrence.Template, stamp string) []string {
	start := firstOccurrence(t)
	title := strings.TrimSpace(t.Name)
	if title == "" {
		title = "Quest mission"
	}

	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(fmt.Sprintf("mission-%s@quest", t.ID)),
		"DTSTAMP:" + stamp,
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + start.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + start.AddDate(0, 0, 1).Format(icsDateLayout),
	}
	if t.Points != 0 {
		lines = append(lines, fmt.Sprintf("DESCRIPTION:%d points", t.Points))
	}
	if rrule := ruleToRRULE(t.Rule, start); rrule != "" {
		lines = append(lines, "RRULE:"+rrule)
		for _, d := range t.Exceptions.Dates() {
			lines = append(lines, "EXDATE;VALUE=DATE:"+d.Format(icsDateLayout))
		}
	}
	return append(lines, "END:VEVENT")
}

var icsWeekdays = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// ruleToRRULE maps a rule to RFC 5545. Weekly rules start their weeks on the
// first occurrence's weekday, which is how whole weeks are counted here.
// Monthly rules anchored past the 28th also list the last day (-1) and keep
// the first match, so short months fire on their last day.
func ruleToRRULE(r *recurrence.Rule, start time.Time) string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	switch r.Unit() {
	case recurrence.UnitDay:
		parts = append(parts, "FREQ=DAILY")
	case recurrence.UnitWeek:
		parts = append(parts, "FREQ=WEEKLY")
	case recurrence.UnitMonth:
		parts = append(parts, "FREQ=MONTHLY")
	case recurrence.UnitYear:
		parts = append(parts, "FREQ=YEARLY")
	default:
		return ""
	}
	parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval()))

	switch r.Unit() {
	case recurrence.UnitWeek:
		days := r.Weekdays().Days()
		if len(days) == 0 {
			// never due; COUNT=0 is not valid RFC 5545, so emit nothing
			return ""
		}
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = icsWeekdays[d]
		}
		parts = append(parts, "BYDAY="+strings.Join(names, ","), "WKST="+icsWeekdays[start.Weekday()])
	case recurrence.UnitMonth:
		if start.Day() > 28 {
			parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d,-1", start.Day()), "BYSETPOS=1")
		}
	}
	if end, ok := r.End(); ok {
		parts = append(parts, "UNTIL="+end.Format(icsDateLayout))
	}
	return strings.Join(parts, ";")
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}

// firstOccurrence is the anchor, or for weekly rules the first selected
// weekday on or after it. Exceptions are ignored; EXDATE covers them.
func firstOccurrence(t recurrence.Template) time.Time {
	start := recurrence.Day(t.Anchor)
	if t.Rule == nil || t.Rule.Unit() != recurrence.UnitWeek {
		return start
	}
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		if t.Rule.Weekdays().Has(d.Weekday()) {
			return d
		}
	}
	return start
}
