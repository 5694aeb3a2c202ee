package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quest/internal/recurrence"
	"quest/internal/task"
)

// scheduleForm holds the raw text of each field while a template is being
// scheduled; it is parsed only on save.
type scheduleForm struct {
	values [formFieldCount]string
	index  int
}

const (
	fieldName = iota
	fieldPoints
	fieldReps
	fieldAnchor
	fieldUnit
	fieldInterval
	fieldDays
	fieldEnd
	formFieldCount
)

func formFields() []string {
	return []string{
		"name",
		"points",
		"repetitions",
		"anchor (YYYY-MM-DD)",
		"repeat (none/day/week/month/year)",
		"every N",
		"days (mon,wed or 1,3)",
		"until (YYYY-MM-DD)",
	}
}

func newScheduleForm(today time.Time) *scheduleForm {
	f := &scheduleForm{}
	f.values[fieldPoints] = "1"
	f.values[fieldReps] = "1"
	f.values[fieldAnchor] = recurrence.FormatDate(today)
	f.values[fieldUnit] = "none"
	f.values[fieldInterval] = "1"
	return f
}

func (f scheduleForm) currentLabel() string {
	return formFields()[f.index]
}

func (f scheduleForm) currentValue() string {
	return f.values[f.index]
}

func (f *scheduleForm) setCurrentValue(v string) {
	f.values[f.index] = v
}

func (f scheduleForm) last() bool {
	return f.index >= formFieldCount-1
}

// template parses the form into a new template with a fresh ID.
func (f scheduleForm) template() (recurrence.Template, error) {
	name := strings.TrimSpace(f.values[fieldName])
	if name == "" {
		return recurrence.Template{}, fmt.Errorf("name cannot be empty")
	}
	points, err := parseInt(f.values[fieldPoints], 0)
	if err != nil {
		return recurrence.Template{}, fmt.Errorf("points: %w", err)
	}
	reps, err := parseInt(f.values[fieldReps], 1)
	if err != nil {
		return recurrence.Template{}, fmt.Errorf("repetitions: %w", err)
	}
	anchor, err := recurrence.ParseDate(f.values[fieldAnchor])
	if err != nil {
		return recurrence.Template{}, fmt.Errorf("anchor: %w", err)
	}
	interval, err := parseInt(f.values[fieldInterval], 1)
	if err != nil {
		return recurrence.Template{}, fmt.Errorf("interval: %w", err)
	}
	rule, err := recurrence.ParseRule(f.values[fieldUnit], interval, f.values[fieldDays], f.values[fieldEnd])
	if err != nil {
		return recurrence.Template{}, err
	}

	t := recurrence.Template{
		ID:          task.NewID(),
		Name:        name,
		Points:      points,
		Repetitions: reps,
		Anchor:      anchor,
		Rule:        rule,
	}
	return t, t.Validate()
}

func parseInt(v string, def int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
