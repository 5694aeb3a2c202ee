// Package export writes and reads a YAML backup of scheduled templates.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"quest/internal/recurrence"
)

const formatVersion = 1

type document struct {
	Version    int        `yaml:"version"`
	ExportedAt string     `yaml:"exported_at"`
	Templates  []template `yaml:"templates"`
}

type template struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Points      int      `yaml:"points,omitempty"`
	Repetitions int      `yaml:"repetitions,omitempty"`
	Anchor      string   `yaml:"anchor"`
	Repeat      *repeat  `yaml:"repeat,omitempty"`
	Exceptions  []string `yaml:"exceptions,omitempty"`
}

type repeat struct {
	Unit       string `yaml:"unit"`
	Interval   int    `yaml:"interval,omitempty"`
	DaysOfWeek []int  `yaml:"days_of_week,omitempty"`
	EndDate    string `yaml:"end_date,omitempty"`
}

// Write stores templates at path, replacing any previous file atomically.
func Write(path string, templates []recurrence.Template, now time.Time) error {
	doc := document{
		Version:    formatVersion,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Templates:  make([]template, 0, len(templates)),
	}
	for _, t := range templates {
		doc.Templates = append(doc.Templates, fromTemplate(t))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return atomic.WriteFile(path, &buf)
}

// Read loads templates from a backup written by Write. Every template is
// validated; the first invalid one fails the whole read.
func Read(path string) ([]recurrence.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("unsupported backup version %d", doc.Version)
	}

	out := make([]recurrence.Template, 0, len(doc.Templates))
	for i, raw := range doc.Templates {
		t, err := raw.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", i, raw.ID, err)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func fromTemplate(t recurrence.Template) template {
	out := template{
		ID:          t.ID,
		Name:        t.Name,
		Points:      t.Points,
		Repetitions: t.Repetitions,
		Anchor:      recurrence.FormatDate(t.Anchor),
	}
	for _, d := range t.Exceptions.Dates() {
		out.Exceptions = append(out.Exceptions, recurrence.FormatDate(d))
	}
	if t.Rule != nil {
		r := &repeat{Unit: string(t.Rule.Unit()), Interval: t.Rule.Interval()}
		for _, d := range t.Rule.Weekdays().Days() {
			r.DaysOfWeek = append(r.DaysOfWeek, int(d))
		}
		if end, ok := t.Rule.End(); ok {
			r.EndDate = recurrence.FormatDate(end)
		}
		out.Repeat = r
	}
	return out
}

func (t template) toTemplate() (recurrence.Template, error) {
	anchor, err := recurrence.ParseDate(t.Anchor)
	if err != nil {
		return recurrence.Template{}, err
	}
	out := recurrence.Template{
		ID:          t.ID,
		Name:        t.Name,
		Points:      t.Points,
		Repetitions: t.Repetitions,
		Anchor:      anchor,
		Exceptions:  recurrence.Exceptions{},
	}
	for _, raw := range t.Exceptions {
		d, err := recurrence.ParseDate(raw)
		if err != nil {
			return recurrence.Template{}, err
		}
		out.AddException(d)
	}
	if t.Repeat != nil {
		r, err := t.Repeat.toRule()
		if err != nil {
			return recurrence.Template{}, err
		}
		out.Rule = &r
	}
	return out, nil
}

func (r repeat) toRule() (recurrence.Rule, error) {
	unit, err := recurrence.ParseUnit(r.Unit)
	if err != nil {
		return recurrence.Rule{}, err
	}
	if r.Interval < 0 {
		return recurrence.Rule{}, fmt.Errorf("%w: interval %d", recurrence.ErrInvalidRule, r.Interval)
	}
	if len(r.DaysOfWeek) > 0 && unit != recurrence.UnitWeek {
		return recurrence.Rule{}, fmt.Errorf("%w: days_of_week on %s rule", recurrence.ErrInvalidRule, unit)
	}

	var rule recurrence.Rule
	switch unit {
	case recurrence.UnitDay:
		rule = recurrence.Daily(r.Interval)
	case recurrence.UnitWeek:
		days := make([]time.Weekday, 0, len(r.DaysOfWeek))
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				return recurrence.Rule{}, fmt.Errorf("%w: weekday %d out of range", recurrence.ErrInvalidRule, d)
			}
			days = append(days, time.Weekday(d))
		}
		rule = recurrence.Weekly(r.Interval, days...)
	case recurrence.UnitMonth:
		rule = recurrence.Monthly(r.Interval)
	case recurrence.UnitYear:
		rule = recurrence.Yearly(r.Interval)
	default:
		return recurrence.Rule{}, errors.New("unreachable unit")
	}
	if r.EndDate != "" {
		end, err := recurrence.ParseDate(r.EndDate)
		if err != nil {
			return recurrence.Rule{}, err
		}
		rule = rule.Until(end)
	}
	return rule, nil
}
