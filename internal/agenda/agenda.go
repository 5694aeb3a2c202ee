package agenda

import (
	"io"
	"log"
	"sort"
	"time"

	"quest/internal/recurrence"
)

type Item struct {
	TemplateID string
	Name       string
	Points     int
	Date       time.Time
	// Canonical marks the occurrence on the template's anchor date, the only
	// one a template may be deleted from.
	Canonical bool
}

type Group struct {
	Date  time.Time
	Label string
	Items []Item
}

type Projector struct {
	Limit       int
	HorizonDays int
	Logger      *log.Logger
}

// Build lists upcoming occurrences of every template from today on,
// grouped by date.
func Build(templates []recurrence.Template, today time.Time, limit int) []Group {
	p := Projector{Limit: limit}
	return p.Build(templates, today)
}

func (p Projector) Build(templates []recurrence.Template, today time.Time) []Group {
	limit := p.Limit
	if limit <= 0 {
		limit = recurrence.DefaultLimit
	}
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	today = recurrence.Day(today)

	var items []Item
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			logger.Printf("agenda: skipping template: %v", err)
			continue
		}
		anchor := recurrence.Day(t.Anchor)
		for _, date := range recurrence.Enumerate(t, today, limit, p.HorizonDays) {
			items = append(items, Item{
				TemplateID: t.ID,
				Name:       t.Name,
				Points:     t.Points,
				Date:       date,
				Canonical:  date.Equal(anchor),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.TemplateID < b.TemplateID
	})

	var groups []Group
	for _, it := range items {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(it.Date) {
			groups[n-1].Items = append(groups[n-1].Items, it)
			continue
		}
		groups = append(groups, Group{
			Date:  it.Date,
			Label: Label(it.Date, today),
			Items: []Item{it},
		})
	}
	return groups
}

// Label names date relative to today.
func Label(date, today time.Time) string {
	switch recurrence.DaysBetween(today, date) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return date.Format("Mon") + " " + recurrence.FormatDate(date)
	}
}
