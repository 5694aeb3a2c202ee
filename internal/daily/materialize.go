package daily

import (
	"io"
	"log"
	"time"

	"quest/internal/recurrence"
	"quest/internal/task"
)

// Materializer decides which task instances today still needs.
type Materializer struct {
	Logger *log.Logger
	NewID  func() string
	Now    func() time.Time
}

func (m Materializer) logger() *log.Logger {
	if m.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return m.Logger
}

// MaterializeToday returns the instances to insert for today: one per due
// template that has no instance for today yet. Existing instances are never
// returned or modified, so running it again over its own output yields
// nothing. exceptions adds skipped dates by template id on top of each
// template's own set.
func (m Materializer) MaterializeToday(
	templates []recurrence.Template,
	exceptions map[string]recurrence.Exceptions,
	existing []task.Instance,
	today time.Time,
) []task.Instance {
	if today.IsZero() {
		m.logger().Printf("materialize: invalid date, nothing to do")
		return nil
	}
	today = recurrence.Day(today)
	day := recurrence.FormatDate(today)

	newID := m.NewID
	if newID == nil {
		newID = task.NewID
	}
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}

	have := make(map[task.Key]struct{}, len(existing))
	for _, inst := range existing {
		if inst.TemplateID == "" {
			continue
		}
		have[inst.Key()] = struct{}{}
	}

	var out []task.Instance
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			m.logger().Printf("materialize: skipping template: %v", err)
			continue
		}
		key := task.Key{TemplateID: t.ID, Date: day}
		if _, ok := have[key]; ok {
			continue
		}
		skipped := t.Exceptions
		if extra, ok := exceptions[t.ID]; ok && extra.Len() > 0 {
			skipped = skipped.Merge(extra)
		}
		if !recurrence.IsDue(t.Rule, t.Anchor, skipped, today) {
			continue
		}
		out = append(out, task.FromTemplate(newID(), t, today, now))
		have[key] = struct{}{}
	}
	return out
}
