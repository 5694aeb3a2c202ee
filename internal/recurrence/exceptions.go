package recurrence

import (
	"sort"
	"time"
)

// Exceptions is the set of dates a template skips even when its rule
// matches. A nil set reads as empty; Add needs a set made by NewExceptions
// or a literal, or use Template.AddException.
type Exceptions map[string]struct{}

func NewExceptions(dates ...time.Time) Exceptions {
	e := make(Exceptions, len(dates))
	for _, d := range dates {
		e.Add(d)
	}
	return e
}

func (e Exceptions) Add(d time.Time) {
	if d.IsZero() {
		return
	}
	e[FormatDate(Day(d))] = struct{}{}
}

func (e Exceptions) Remove(d time.Time) {
	delete(e, FormatDate(Day(d)))
}

func (e Exceptions) Has(d time.Time) bool {
	if len(e) == 0 || d.IsZero() {
		return false
	}
	_, ok := e[FormatDate(Day(d))]
	return ok
}

func (e Exceptions) Len() int { return len(e) }

// Dates returns the skipped dates in ascending order.
func (e Exceptions) Dates() []time.Time {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		if d, err := ParseDate(k); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// Merge returns a new set holding the dates of e and every other set.
func (e Exceptions) Merge(others ...Exceptions) Exceptions {
	out := make(Exceptions, len(e))
	for k := range e {
		out[k] = struct{}{}
	}
	for _, o := range others {
		for k := range o {
			out[k] = struct{}{}
		}
	}
	return out
}
