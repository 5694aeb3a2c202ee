package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Template is a scheduled mission. A nil Rule means it happens once, on
// Anchor.
type Template struct {
	ID          string
	Name        string
	Points      int
	Repetitions int
	Anchor      time.Time
	Rule        *Rule
	Exceptions  Exceptions
}

// AddException skips d, creating the exception set if the template has none.
func (t *Template) AddException(d time.Time) {
	if t.Exceptions == nil {
		t.Exceptions = Exceptions{}
	}
	t.Exceptions.Add(d)
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("template id is empty")
	}
	if t.Anchor.IsZero() {
		return fmt.Errorf("template %s: %w: missing anchor", t.ID, ErrInvalidDate)
	}
	if err := t.Rule.Validate(); err != nil {
		return fmt.Errorf("template %s: %w", t.ID, err)
	}
	return nil
}

func (t Template) IsRecurring() bool { return t.Rule != nil }

// DueOn reports whether the template has an occurrence on d.
func (t Template) DueOn(d time.Time) bool {
	return IsDue(t.Rule, t.Anchor, t.Exceptions, d)
}

func (t Template) Describe() string {
	if t.Rule == nil {
		return "once on " + FormatDate(t.Anchor)
	}
	return t.Rule.String() + " from " + FormatDate(t.Anchor)
}
