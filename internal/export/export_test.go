package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest/internal/recurrence"
)

func rule(r recurrence.Rule) *recurrence.Rule { return &r }

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.yaml")
	templates := []recurrence.Template{
		{
			ID:          "a",
			Name:        "run",
			Points:      3,
			Repetitions: 2,
			Anchor:      recurrence.Date(2024, 3, 4),
			Rule:        rule(recurrence.Weekly(2, time.Monday, time.Wednesday).Until(recurrence.Date(2024, 12, 31))),
			Exceptions:  recurrence.NewExceptions(recurrence.Date(2024, 3, 18)),
		},
		{ID: "b", Name: "dentist", Anchor: recurrence.Date(2024, 5, 10), Exceptions: recurrence.Exceptions{}},
	}

	require.NoError(t, Write(path, templates, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "days_of_week:")
	assert.Contains(t, string(data), "2024-03-01T12:00:00Z")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, templates, got)
}

func TestRead_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong version", "version: 9\ntemplates: []\n"},
		{"bad anchor", "version: 1\ntemplates:\n  - id: a\n    anchor: tomorrow\n"},
		{"bad unit", "version: 1\ntemplates:\n  - id: a\n    anchor: 2024-01-01\n    repeat: {unit: hourly}\n"},
		{"weekday range", "version: 1\ntemplates:\n  - id: a\n    anchor: 2024-01-01\n    repeat: {unit: week, days_of_week: [8]}\n"},
		{"days on daily", "version: 1\ntemplates:\n  - id: a\n    anchor: 2024-01-01\n    repeat: {unit: day, days_of_week: [1]}\n"},
		{"missing id", "version: 1\ntemplates:\n  - anchor: 2024-01-01\n"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "backup.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := Read(path)
			assert.Error(t, err)
		})
	}
}

func TestRead_RuleErrorsAreTyped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.yaml")
	body := strings.Join([]string{
		"version: 1",
		"templates:",
		"  - id: a",
		"    anchor: 2024-01-01",
		"    repeat: {unit: day, interval: -2}",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Read(path)
	assert.True(t, errors.Is(err, recurrence.ErrInvalidRule))
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
