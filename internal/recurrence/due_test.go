package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(v string) time.Time {
	t, err := ParseDate(v)
	if err != nil {
		panic(err)
	}
	return t
}

func rulePtr(r Rule) *Rule { return &r }

func TestIsDue_NonRecurringOnlyOnAnchor(t *testing.T) {
	anchor := d("2024-05-10")

	assert.True(t, IsDue(nil, anchor, nil, d("2024-05-10")))
	assert.False(t, IsDue(nil, anchor, nil, d("2024-05-11")))
	assert.False(t, IsDue(nil, anchor, nil, d("2024-05-09")))

	for day := d("2024-01-01"); day.Year() == 2024; day = day.AddDate(0, 0, 1) {
		if day.Equal(anchor) {
			continue
		}
		if IsDue(nil, anchor, nil, day) {
			t.Fatalf("one-off template due on %s", FormatDate(day))
		}
	}
}

func TestIsDue_Daily(t *testing.T) {
	anchor := d("2024-03-01")
	rule := rulePtr(Daily(3))

	tests := []struct {
		date string
		want bool
	}{
		{"2024-02-29", false},
		{"2024-03-01", true},
		{"2024-03-02", false},
		{"2024-03-04", true},
		{"2024-03-31", true},
		{"2024-04-01", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDue(rule, anchor, nil, d(tt.date)), tt.date)
	}
}

func TestIsDue_WeeklyMultiDayEveryOtherWeek(t *testing.T) {
	anchor := d("2024-03-04") // Monday
	rule := rulePtr(Weekly(2, time.Monday, time.Wednesday))

	var got []string
	for day := anchor; day.Before(d("2024-03-24")); day = day.AddDate(0, 0, 1) {
		if IsDue(rule, anchor, nil, day) {
			got = append(got, FormatDate(day))
		}
	}
	assert.Equal(t, []string{"2024-03-04", "2024-03-06", "2024-03-18", "2024-03-20"}, got)
}

func TestIsDue_WeeklyAnchorOffSelectedDay(t *testing.T) {
	// Anchor on a Sunday; the first occurrence is the following Tuesday and
	// whole weeks are counted from there.
	anchor := d("2024-03-03")
	rule := rulePtr(Weekly(2, time.Tuesday))

	assert.False(t, IsDue(rule, anchor, nil, d("2024-03-03")))
	assert.True(t, IsDue(rule, anchor, nil, d("2024-03-05")))
	assert.False(t, IsDue(rule, anchor, nil, d("2024-03-12")))
	assert.True(t, IsDue(rule, anchor, nil, d("2024-03-19")))
}

func TestIsDue_WeeklyEmptyDaysNeverDue(t *testing.T) {
	anchor := d("2024-03-04")
	rule := rulePtr(Weekly(1))

	for i := 0; i < 60; i++ {
		assert.False(t, IsDue(rule, anchor, nil, anchor.AddDate(0, 0, i)))
	}
}

func TestIsDue_MonthlyClampsToMonthEnd(t *testing.T) {
	anchor := d("2024-01-31")
	rule := rulePtr(Monthly(1))

	assert.True(t, IsDue(rule, anchor, nil, d("2024-01-31")))
	assert.True(t, IsDue(rule, anchor, nil, d("2024-02-29")))
	assert.False(t, IsDue(rule, anchor, nil, d("2024-02-28")))
	assert.True(t, IsDue(rule, anchor, nil, d("2024-03-31")))
	assert.False(t, IsDue(rule, anchor, nil, d("2024-03-30")))
	assert.True(t, IsDue(rule, anchor, nil, d("2024-04-30")))
	assert.True(t, IsDue(rule, anchor, nil, d("2025-02-28")))
}

func TestIsDue_MonthlyInterval(t *testing.T) {
	anchor := d("2024-01-15")
	rule := rulePtr(Monthly(3))

	assert.False(t, IsDue(rule, anchor, nil, d("2024-02-15")))
	assert.True(t, IsDue(rule, anchor, nil, d("2024-04-15")))
	assert.True(t, IsDue(rule, anchor, nil, d("2025-01-15")))
	assert.False(t, IsDue(rule, anchor, nil, d("2023-10-15")))
}

func TestIsDue_YearlyLeapDayAnchor(t *testing.T) {
	anchor := d("2024-02-29")
	rule := rulePtr(Yearly(1))

	for day := d("2025-01-01"); day.Year() < 2028; day = day.AddDate(0, 0, 1) {
		if IsDue(rule, anchor, nil, day) {
			t.Fatalf("leap-day rule due on %s", FormatDate(day))
		}
	}
	assert.True(t, IsDue(rule, anchor, nil, d("2028-02-29")))
	assert.False(t, IsDue(rule, anchor, nil, d("2028-02-28")))
}

func TestIsDue_YearlyInterval(t *testing.T) {
	anchor := d("2020-07-04")
	rule := rulePtr(Yearly(2))

	assert.True(t, IsDue(rule, anchor, nil, d("2022-07-04")))
	assert.False(t, IsDue(rule, anchor, nil, d("2023-07-04")))
	assert.False(t, IsDue(rule, anchor, nil, d("2022-07-05")))
}

func TestIsDue_EndDateIsInclusive(t *testing.T) {
	anchor := d("2024-03-01")
	end := d("2024-03-10")
	rule := rulePtr(Daily(1).Until(end))

	assert.True(t, IsDue(rule, anchor, nil, end))
	for i := 1; i < 400; i++ {
		assert.False(t, IsDue(rule, anchor, nil, end.AddDate(0, 0, i)))
	}
}

func TestIsDue_EndDateBoundsEveryUnit(t *testing.T) {
	anchor := d("2024-01-31")
	end := d("2024-06-30")
	rules := []Rule{
		Daily(1).Until(end),
		Weekly(1, time.Sunday, time.Wednesday, time.Saturday).Until(end),
		Monthly(1).Until(end),
		Yearly(1).Until(end),
	}
	for _, r := range rules {
		for day := end.AddDate(0, 0, 1); day.Before(d("2026-01-01")); day = day.AddDate(0, 0, 1) {
			if IsDue(&r, anchor, nil, day) {
				t.Fatalf("%s due on %s after end", r, FormatDate(day))
			}
		}
	}
}

func TestIsDue_ExceptionsExcluded(t *testing.T) {
	anchor := d("2024-03-01")
	rules := []*Rule{nil, rulePtr(Daily(1)), rulePtr(Weekly(1, time.Friday)), rulePtr(Monthly(1)), rulePtr(Yearly(1))}
	skipped := []time.Time{d("2024-03-01"), d("2024-03-08"), d("2024-04-01"), d("2025-03-01")}
	exceptions := NewExceptions(skipped...)

	for _, r := range rules {
		for _, day := range skipped {
			assert.False(t, IsDue(r, anchor, exceptions, day), "rule %v on %s", r, FormatDate(day))
		}
	}
	assert.True(t, IsDue(rulePtr(Daily(1)), anchor, exceptions, d("2024-03-02")))
}

func TestTemplate_AddExceptionOnEmptyTemplate(t *testing.T) {
	tmpl := Template{ID: "a", Anchor: d("2024-03-01"), Rule: rulePtr(Daily(1))}
	assert.False(t, tmpl.Exceptions.Has(d("2024-03-02")))

	assert.NotPanics(t, func() { tmpl.AddException(d("2024-03-02")) })
	tmpl.AddException(time.Time{})
	assert.Equal(t, 1, tmpl.Exceptions.Len())
	assert.False(t, tmpl.DueOn(d("2024-03-02")))
	assert.True(t, tmpl.DueOn(d("2024-03-03")))
}

func TestIsDue_IgnoresTimeOfDay(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	candidate := time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(rulePtr(Daily(2)), anchor, nil, candidate))
}

func TestIsDue_ZeroDates(t *testing.T) {
	assert.False(t, IsDue(nil, time.Time{}, nil, d("2024-01-01")))
	assert.False(t, IsDue(rulePtr(Daily(1)), d("2024-01-01"), nil, time.Time{}))
}

func TestIsDue_ZeroValueRuleNeverDue(t *testing.T) {
	assert.False(t, IsDue(&Rule{}, d("2024-01-01"), nil, d("2024-01-01")))
}
