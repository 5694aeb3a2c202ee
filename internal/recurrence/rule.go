package recurrence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

var ErrInvalidRule = errors.New("invalid recurrence rule")

func ParseUnit(v string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(v))); u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return u, nil
	case "daily":
		return UnitDay, nil
	case "weekly":
		return UnitWeek, nil
	case "monthly":
		return UnitMonth, nil
	case "yearly":
		return UnitYear, nil
	default:
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidRule, v)
	}
}

// WeekdaySet is a bitmask of weekdays, bit 0 = Sunday.
type WeekdaySet uint8

const allWeekdays WeekdaySet = 1<<7 - 1

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool { return s&allWeekdays == 0 }

func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}

// Rule is the recurrence attached to a template. Weekdays only exist on
// weekly rules; the constructors are the only way to build a valid Rule.
type Rule struct {
	unit     Unit
	interval int
	weekdays WeekdaySet
	end      time.Time
}

func newRule(unit Unit, interval int) Rule {
	if interval < 1 {
		interval = 1
	}
	return Rule{unit: unit, interval: interval}
}

func Daily(interval int) Rule { return newRule(UnitDay, interval) }

// Weekly repeats every interval weeks on the given days. With no days the
// rule is valid but never due.
func Weekly(interval int, days ...time.Weekday) Rule {
	r := newRule(UnitWeek, interval)
	r.weekdays = NewWeekdaySet(days...)
	return r
}

func Monthly(interval int) Rule { return newRule(UnitMonth, interval) }

func Yearly(interval int) Rule { return newRule(UnitYear, interval) }

// Until returns a copy of r ending on end, inclusive. A zero end clears it.
func (r Rule) Until(end time.Time) Rule {
	r.end = Day(end)
	return r
}

func (r Rule) Unit() Unit { return r.unit }

func (r Rule) Interval() int { return r.interval }

func (r Rule) Weekdays() WeekdaySet { return r.weekdays }

func (r Rule) End() (time.Time, bool) { return r.end, !r.end.IsZero() }

func (r Rule) HasEnd() bool { return !r.end.IsZero() }

func (r *Rule) Validate() error {
	if r == nil {
		return nil
	}
	switch r.unit {
	case UnitDay, UnitMonth, UnitYear:
		if r.weekdays != 0 {
			return fmt.Errorf("%w: weekdays set on %s rule", ErrInvalidRule, r.unit)
		}
	case UnitWeek:
		if r.weekdays&^allWeekdays != 0 {
			return fmt.Errorf("%w: weekday out of range", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRule, r.unit)
	}
	if r.interval < 1 {
		return fmt.Errorf("%w: interval %d", ErrInvalidRule, r.interval)
	}
	return nil
}

func (r Rule) String() string {
	var b strings.Builder
	if r.interval == 1 {
		fmt.Fprintf(&b, "every %s", r.unit)
	} else {
		fmt.Fprintf(&b, "every %d %ss", r.interval, r.unit)
	}
	if r.unit == UnitWeek {
		if r.weekdays.Empty() {
			b.WriteString(" (no days)")
		} else {
			b.WriteString(" on " + r.weekdays.String())
		}
	}
	if r.HasEnd() {
		b.WriteString(" until " + FormatDate(r.end))
	}
	return b.String()
}

type ruleJSON struct {
	Unit     string            `json:"repeatUnit"`
	Interval int               `json:"repeatInterval,omitempty"`
	Days     []json.RawMessage `json:"daysOfWeek,omitempty"`
	EndDate  string            `json:"endDate,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := ruleJSON{Unit: string(r.unit), Interval: r.interval, EndDate: FormatDate(r.end)}
	for _, d := range r.weekdays.Days() {
		out.Days = append(out.Days, json.RawMessage(fmt.Sprintf("%d", int(d))))
	}
	return json.Marshal(out)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	unit, err := ParseUnit(in.Unit)
	if err != nil {
		return err
	}
	if in.Interval < 0 {
		return fmt.Errorf("%w: interval %d", ErrInvalidRule, in.Interval)
	}
	if len(in.Days) > 0 && unit != UnitWeek {
		return fmt.Errorf("%w: daysOfWeek set on %s rule", ErrInvalidRule, unit)
	}

	next := newRule(unit, in.Interval)
	for _, raw := range in.Days {
		var d int
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("%w: weekday %s is not a number", ErrInvalidRule, string(raw))
		}
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, d)
		}
		next.weekdays = next.weekdays.With(time.Weekday(d))
	}
	if in.EndDate != "" {
		end, err := ParseDate(in.EndDate)
		if err != nil {
			return fmt.Errorf("%w: end date: %v", ErrInvalidRule, err)
		}
		next.end = end
	}
	*r = next
	return nil
}

// ParseWeekdays reads a comma separated list of weekday numbers (0=Sunday)
// or names. A name may be abbreviated down to three letters ("wed", "thurs").
func ParseWeekdays(v string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, field := range strings.Split(v, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		if len(field) == 1 && field[0] >= '0' && field[0] <= '6' {
			out = append(out, time.Weekday(field[0]-'0'))
			continue
		}
		d, ok := weekdayByName(field)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidRule, field)
		}
		out = append(out, d)
	}
	return out, nil
}

func weekdayByName(name string) (time.Weekday, bool) {
	if len(name) < 3 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), name) {
			return d, true
		}
	}
	return 0, false
}

// ParseRule builds a rule from user input. An empty or "none" unit means no
// recurrence and returns nil; days or an end date without a unit are an
// error.
func ParseRule(unit string, interval int, days, end string) (*Rule, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "none", "once":
		if strings.TrimSpace(days) != "" || strings.TrimSpace(end) != "" {
			return nil, fmt.Errorf("%w: days or end date given without a repeat unit", ErrInvalidRule)
		}
		return nil, nil
	}
	u, err := ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: interval %d", ErrInvalidRule, interval)
	}
	weekdays, err := ParseWeekdays(days)
	if err != nil {
		return nil, err
	}
	if len(weekdays) > 0 && u != UnitWeek {
		return nil, fmt.Errorf("%w: days given for %s rule", ErrInvalidRule, u)
	}

	var r Rule
	switch u {
	case UnitDay:
		r = Daily(interval)
	case UnitWeek:
		r = Weekly(interval, weekdays...)
	case UnitMonth:
		r = Monthly(interval)
	case UnitYear:
		r = Yearly(interval)
	}
	if strings.TrimSpace(end) != "" {
		endDate, err := ParseDate(end)
		if err != nil {
			return nil, err
		}
		r = r.Until(endDate)
	}
	return &r, nil
}
