package task

import (
	"time"

	"github.com/google/uuid"

	"quest/internal/recurrence"
)

// Instance is a concrete task on a given day. TemplateID is empty for
// ad-hoc tasks. Completed and CurrentRepetitions belong to the day's task
// list; the scheduler never changes them.
type Instance struct {
	ID                 string
	TemplateID         string
	Date               time.Time
	Name               string
	Points             int
	Repetitions        int
	CurrentRepetitions int
	Completed          bool
	CreatedAt          time.Time
}

type Key struct {
	TemplateID string
	Date       string
}

func (i Instance) Key() Key {
	return Key{TemplateID: i.TemplateID, Date: recurrence.FormatDate(recurrence.Day(i.Date))}
}

func NewID() string {
	return uuid.New().String()
}

// FromTemplate seeds an instance from the template's current name, points
// and repetition count.
func FromTemplate(id string, t recurrence.Template, date, now time.Time) Instance {
	reps := t.Repetitions
	if reps < 1 {
		reps = 1
	}
	return Instance{
		ID:          id,
		TemplateID:  t.ID,
		Date:        recurrence.Day(date),
		Name:        t.Name,
		Points:      t.Points,
		Repetitions: reps,
		CreatedAt:   now,
	}
}

func NewAdhoc(name string, points int, date, now time.Time) Instance {
	return Instance{
		ID:          NewID(),
		Date:        recurrence.Day(date),
		Name:        name,
		Points:      points,
		Repetitions: 1,
		CreatedAt:   now,
	}
}

func (i Instance) IsAdhoc() bool { return i.TemplateID == "" }

func (i Instance) Progress() float64 {
	if i.Completed {
		return 1
	}
	if i.Repetitions <= 0 {
		return 0
	}
	return float64(i.CurrentRepetitions) / float64(i.Repetitions)
}
