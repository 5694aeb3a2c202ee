package recurrence

import "time"

// IsDue reports whether candidate is an occurrence of a template anchored at
// anchor with the given rule and skipped dates. A nil rule means the
// template occurs only on anchor. Zero dates are never due.
func IsDue(rule *Rule, anchor time.Time, exceptions Exceptions, candidate time.Time) bool {
	if anchor.IsZero() || candidate.IsZero() {
		return false
	}
	anchor, candidate = Day(anchor), Day(candidate)

	if candidate.Before(anchor) {
		return false
	}
	if rule != nil && rule.HasEnd() && candidate.After(rule.end) {
		return false
	}

	if !matches(rule, anchor, candidate) {
		return false
	}
	return !exceptions.Has(candidate)
}

// matches applies the rule alone, assuming anchor <= candidate and both are
// normalized.
func matches(rule *Rule, anchor, candidate time.Time) bool {
	if rule == nil {
		return candidate.Equal(anchor)
	}
	if rule.interval < 1 {
		return false
	}

	switch rule.unit {
	case UnitDay:
		return DaysBetween(anchor, candidate)%rule.interval == 0

	case UnitWeek:
		if rule.weekdays.Empty() || !rule.weekdays.Has(candidate.Weekday()) {
			return false
		}
		first, ok := firstWeeklyOccurrence(rule.weekdays, anchor)
		if !ok || candidate.Before(first) {
			return false
		}
		weeks := DaysBetween(first, candidate) / 7
		return weeks%rule.interval == 0

	case UnitMonth:
		monthDiff := (candidate.Year()-anchor.Year())*12 + int(candidate.Month()-anchor.Month())
		if monthDiff < 0 || monthDiff%rule.interval != 0 {
			return false
		}
		target := min(anchor.Day(), lastDayOfMonth(candidate.Year(), candidate.Month()))
		return candidate.Day() == target

	case UnitYear:
		yearDiff := candidate.Year() - anchor.Year()
		if yearDiff < 0 || yearDiff%rule.interval != 0 {
			return false
		}
		return candidate.Month() == anchor.Month() && candidate.Day() == anchor.Day()

	default:
		return false
	}
}

// firstWeeklyOccurrence is the earliest date on or after anchor whose weekday
// is in days.
func firstWeeklyOccurrence(days WeekdaySet, anchor time.Time) (time.Time, bool) {
	for i := 0; i < 7; i++ {
		d := anchor.AddDate(0, 0, i)
		if days.Has(d.Weekday()) {
			return d, true
		}
	}
	return time.Time{}, false
}
