package recurrence

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsNormalizeInterval(t *testing.T) {
	assert.Equal(t, 1, Daily(0).Interval())
	assert.Equal(t, 1, Monthly(-4).Interval())
	assert.Equal(t, 3, Yearly(3).Interval())
}

func TestWeekdaySet(t *testing.T) {
	s := NewWeekdaySet(time.Monday, time.Wednesday, time.Weekday(9))

	assert.True(t, s.Has(time.Monday))
	assert.False(t, s.Has(time.Tuesday))
	assert.False(t, s.Has(time.Weekday(9)))
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, s.Days())
	assert.Equal(t, "Mon,Wed", s.String())
	assert.True(t, WeekdaySet(0).Empty())
}

func TestRuleValidate(t *testing.T) {
	var nilRule *Rule
	assert.NoError(t, nilRule.Validate())
	assert.NoError(t, rulePtr(Weekly(1)).Validate())
	assert.NoError(t, rulePtr(Daily(2).Until(d("2030-01-01"))).Validate())

	err := (&Rule{}).Validate()
	assert.True(t, errors.Is(err, ErrInvalidRule))
}

func TestRuleString(t *testing.T) {
	assert.Equal(t, "every day", Daily(1).String())
	assert.Equal(t, "every 2 weeks on Mon,Wed", Weekly(2, time.Monday, time.Wednesday).String())
	assert.Equal(t, "every week (no days)", Weekly(1).String())
	assert.Equal(t, "every month until 2024-12-31", Monthly(1).Until(d("2024-12-31")).String())
}

func TestRuleJSONRoundTrip(t *testing.T) {
	in := Weekly(2, time.Monday, time.Wednesday).Until(d("2024-06-30"))

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"repeatUnit":"week","repeatInterval":2,"daysOfWeek":[1,3],"endDate":"2024-06-30"}`, string(data))

	var out Rule
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestRuleUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Rule
		wantErr bool
	}{
		{name: "missing interval defaults to one", input: `{"repeatUnit":"day"}`, want: Daily(1)},
		{name: "zero interval defaults to one", input: `{"repeatUnit":"month","repeatInterval":0}`, want: Monthly(1)},
		{name: "legacy unit names", input: `{"repeatUnit":"yearly","repeatInterval":2}`, want: Yearly(2)},
		{name: "weekly with no days", input: `{"repeatUnit":"week","daysOfWeek":[]}`, want: Weekly(1)},
		{name: "negative interval", input: `{"repeatUnit":"day","repeatInterval":-1}`, wantErr: true},
		{name: "unknown unit", input: `{"repeatUnit":"fortnight"}`, wantErr: true},
		{name: "non-numeric weekday", input: `{"repeatUnit":"week","daysOfWeek":["mon"]}`, wantErr: true},
		{name: "weekday out of range", input: `{"repeatUnit":"week","daysOfWeek":[7]}`, wantErr: true},
		{name: "days on a monthly rule", input: `{"repeatUnit":"month","daysOfWeek":[1]}`, wantErr: true},
		{name: "bad end date", input: `{"repeatUnit":"day","endDate":"soon"}`, wantErr: true},
		{name: "not an object", input: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Rule
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRule), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" Week ")
	require.NoError(t, err)
	assert.Equal(t, UnitWeek, u)

	_, err = ParseUnit("")
	assert.Error(t, err)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("1, wed ,Friday,0,thurs")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Sunday, time.Thursday}, days)

	days, err = ParseWeekdays("")
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = ParseWeekdays("7")
	assert.ErrorIs(t, err, ErrInvalidRule)
	_, err = ParseWeekdays("someday")
	assert.ErrorIs(t, err, ErrInvalidRule)

	for _, bad := range []string{"month", "satan", "we", "mondays"} {
		_, err = ParseWeekdays(bad)
		assert.ErrorIs(t, err, ErrInvalidRule, bad)
	}
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("none", 3, "", "")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = ParseRule("", 1, "mon", "")
	assert.ErrorIs(t, err, ErrInvalidRule)
	_, err = ParseRule("none", 1, "", "2024-06-30")
	assert.ErrorIs(t, err, ErrInvalidRule)

	r, err = ParseRule("week", 2, "mon,wed", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, Weekly(2, time.Monday, time.Wednesday).Until(d("2024-06-30")), *r)

	r, err = ParseRule("monthly", 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, Monthly(1), *r)

	_, err = ParseRule("day", 1, "mon", "")
	assert.ErrorIs(t, err, ErrInvalidRule)
	_, err = ParseRule("day", 1, "", "never")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseRule("hourly", 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidRule)
}
