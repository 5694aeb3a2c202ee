package agenda

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest/internal/recurrence"
)

func rule(r recurrence.Rule) *recurrence.Rule { return &r }

type groupView struct {
	Label string
	Items []string
}

func view(groups []Group) []groupView {
	out := make([]groupView, len(groups))
	for i, g := range groups {
		out[i].Label = g.Label
		for _, it := range g.Items {
			name := it.Name
			if it.Canonical {
				name += "*"
			}
			out[i].Items = append(out[i].Items, name)
		}
	}
	return out
}

func TestBuild_GroupsAndLabels(t *testing.T) {
	today := recurrence.Date(2024, 3, 4) // Monday
	templates := []recurrence.Template{
		{ID: "run", Name: "run", Anchor: recurrence.Date(2024, 3, 4), Rule: rule(recurrence.Weekly(1, time.Monday, time.Wednesday))},
		{ID: "read", Name: "read", Anchor: recurrence.Date(2024, 3, 1), Rule: rule(recurrence.Daily(2))},
		{ID: "dentist", Name: "dentist", Anchor: recurrence.Date(2024, 3, 6)},
	}

	groups := Projector{Limit: 2}.Build(templates, today)

	want := []groupView{
		{Label: "today", Items: []string{"run*"}},
		{Label: "tomorrow", Items: []string{"read"}},
		{Label: "Wed 2024-03-06", Items: []string{"dentist*", "run"}},
		{Label: "Thu 2024-03-07", Items: []string{"read"}},
	}

	if diff := cmp.Diff(want, view(groups)); diff != "" {
		t.Fatalf("agenda mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_CapsPerTemplate(t *testing.T) {
	today := recurrence.Date(2024, 3, 4)
	templates := []recurrence.Template{
		{ID: "a", Name: "a", Anchor: today, Rule: rule(recurrence.Daily(1))},
		{ID: "b", Name: "b", Anchor: today, Rule: rule(recurrence.Daily(1))},
	}

	groups := Build(templates, today, 0)

	counts := map[string]int{}
	for _, g := range groups {
		for _, it := range g.Items {
			counts[it.TemplateID]++
		}
	}
	assert.Equal(t, map[string]int{"a": recurrence.DefaultLimit, "b": recurrence.DefaultLimit}, counts)
	assert.Len(t, groups, recurrence.DefaultLimit)
}

func TestBuild_NothingBeforeToday(t *testing.T) {
	today := recurrence.Date(2024, 3, 10)
	templates := []recurrence.Template{
		{ID: "old", Name: "old", Anchor: recurrence.Date(2024, 3, 1)},
		{ID: "daily", Name: "daily", Anchor: recurrence.Date(2024, 3, 1), Rule: rule(recurrence.Daily(1))},
	}

	groups := Build(templates, today, 3)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.False(t, g.Date.Before(today))
		for _, it := range g.Items {
			assert.Equal(t, "daily", it.TemplateID)
			assert.False(t, it.Canonical)
		}
	}
	assert.Equal(t, "today", groups[0].Label)
	assert.Equal(t, "tomorrow", groups[1].Label)
}

func TestBuild_InvalidTemplateLoggedAndSkipped(t *testing.T) {
	var buf bytes.Buffer
	p := Projector{Logger: log.New(&buf, "", 0)}
	today := recurrence.Date(2024, 3, 4)
	templates := []recurrence.Template{
		{ID: "broken", Name: "broken", Rule: rule(recurrence.Daily(1))},
		{ID: "ok", Name: "ok", Anchor: today},
	}

	groups := p.Build(templates, today)

	require.Len(t, groups, 1)
	assert.Equal(t, "ok", groups[0].Items[0].TemplateID)
	assert.Contains(t, buf.String(), "broken")
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil, recurrence.Date(2024, 3, 4), 7))
}

func TestLabel(t *testing.T) {
	today := recurrence.Date(2024, 12, 31)
	assert.Equal(t, "today", Label(today, today))
	assert.Equal(t, "tomorrow", Label(recurrence.Date(2025, 1, 1), today))
	assert.Equal(t, "Thu 2025-01-02", Label(recurrence.Date(2025, 1, 2), today))
}
