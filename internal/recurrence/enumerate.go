package recurrence

import "time"

const (
	// DefaultLimit is how many upcoming occurrences the agenda shows per
	// template.
	DefaultLimit = 7

	minHorizonDays = 14
)

// Horizon is the number of days Enumerate scans for limit occurrences of
// rule. It grows with the rule's step so sparse rules still fill the limit.
func Horizon(rule *Rule, limit int) int {
	if rule == nil || limit < 1 {
		return minHorizonDays
	}
	interval := max(rule.interval, 1)
	var step int
	switch rule.unit {
	case UnitDay:
		step = interval
	case UnitWeek:
		step = interval * 7
	case UnitMonth:
		step = interval * 31
	case UnitYear:
		step = interval * 366
	default:
		return minHorizonDays
	}
	return max(minHorizonDays, step*limit)
}

// Enumerate returns up to limit ascending dates, starting at the later of
// t.Anchor and from, on which t is due. At most horizonDays days are
// scanned; horizonDays <= 0 uses Horizon. An invalid template yields nil.
func Enumerate(t Template, from time.Time, limit, horizonDays int) []time.Time {
	if limit < 1 || t.Validate() != nil || from.IsZero() {
		return nil
	}
	if horizonDays <= 0 {
		horizonDays = Horizon(t.Rule, limit)
		if leapDayYearly(t) {
			// only one year in four has the anchor date
			horizonDays *= 4
		}
	}

	candidate := Day(from)
	if anchor := Day(t.Anchor); candidate.Before(anchor) {
		candidate = anchor
	}

	var out []time.Time
	for scanned := 0; scanned < horizonDays && len(out) < limit; scanned++ {
		if t.Rule == nil && candidate.After(Day(t.Anchor)) {
			break
		}
		if t.Rule != nil && t.Rule.HasEnd() && candidate.After(t.Rule.end) {
			break
		}
		if IsDue(t.Rule, t.Anchor, t.Exceptions, candidate) {
			out = append(out, candidate)
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return out
}

// Next returns the first occurrence of t on or after from.
func Next(t Template, from time.Time) (time.Time, bool) {
	dates := Enumerate(t, from, 1, 0)
	if len(dates) == 0 {
		return time.Time{}, false
	}
	return dates[0], true
}

func leapDayYearly(t Template) bool {
	if t.Rule == nil || t.Rule.unit != UnitYear {
		return false
	}
	return t.Anchor.Month() == time.February && t.Anchor.Day() == 29
}
