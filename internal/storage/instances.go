package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quest/internal/recurrence"
	"quest/internal/task"
)

func (s *Store) Instances(date time.Time) ([]task.Instance, error) {
	rows, err := s.db.Query(`
SELECT id, template_id, date, name, points, repetitions, current_repetitions, completed, created_at
FROM instances WHERE date = ? ORDER BY created_at, id;`, recurrence.FormatDate(recurrence.Day(date)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Instance
	for rows.Next() {
		var inst task.Instance
		var templateID sql.NullString
		var day, created string
		var completed int
		if err := rows.Scan(&inst.ID, &templateID, &day, &inst.Name, &inst.Points, &inst.Repetitions,
			&inst.CurrentRepetitions, &completed, &created); err != nil {
			return nil, err
		}
		inst.TemplateID = templateID.String
		inst.Completed = completed == 1
		if parsed, err := recurrence.ParseDate(day); err == nil {
			inst.Date = parsed
		}
		if parsed, err := time.Parse(time.RFC3339, created); err == nil {
			inst.CreatedAt = parsed
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertInstances stores new instances for date in one transaction and
// returns the ones actually written. An instance for a (template, date) pair
// that already exists is left as it is and not returned.
func (s *Store) InsertInstances(date time.Time, instances []task.Instance) ([]task.Instance, error) {
	day := recurrence.FormatDate(recurrence.Day(date))
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO instances (id, template_id, date, name, points, repetitions, current_repetitions, completed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(template_id, date) DO NOTHING;`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var inserted []task.Instance
	for _, inst := range instances {
		if got := recurrence.FormatDate(recurrence.Day(inst.Date)); got != day {
			return nil, fmt.Errorf("instance %s is for %s, not %s", inst.ID, got, day)
		}
		templateID := sql.NullString{String: inst.TemplateID, Valid: inst.TemplateID != ""}
		created := inst.CreatedAt
		if created.IsZero() {
			created = s.now()
		}
		res, err := stmt.Exec(inst.ID, templateID, day, inst.Name, inst.Points, inst.Repetitions,
			inst.CurrentRepetitions, boolToInt(inst.Completed), created.UTC().Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("insert instance %s: %w", inst.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n > 0 {
			inserted = append(inserted, inst)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *Store) AddAdhoc(name string, points int, date time.Time) (task.Instance, error) {
	inst := task.NewAdhoc(name, points, date, s.now())
	if _, err := s.InsertInstances(date, []task.Instance{inst}); err != nil {
		return task.Instance{}, err
	}
	return inst, nil
}

func (s *Store) SetCompleted(id string, completed bool) error {
	return s.updateInstance(`UPDATE instances SET completed = ? WHERE id = ?;`, boolToInt(completed), id)
}

// AddRepetition counts one more repetition, completing the instance once
// it reaches its target.
func (s *Store) AddRepetition(id string) error {
	return s.updateInstance(`
UPDATE instances SET
	current_repetitions = MIN(current_repetitions + 1, repetitions),
	completed = CASE WHEN current_repetitions + 1 >= repetitions THEN 1 ELSE completed END
WHERE id = ?;`, id)
}

// DeleteInstance removes an instance. When it came from a template that
// still exists, its day is recorded as an exception in the same transaction
// so the next materialization does not recreate it.
func (s *Store) DeleteInstance(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var templateID sql.NullString
	var day string
	err = tx.QueryRow(`SELECT template_id, date FROM instances WHERE id = ?;`, id).Scan(&templateID, &day)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("instance %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM instances WHERE id = ?;`, id); err != nil {
		return err
	}
	if templateID.Valid {
		if _, err := tx.Exec(`
INSERT OR IGNORE INTO template_exceptions (template_id, date)
SELECT ?, ? WHERE EXISTS (SELECT 1 FROM templates WHERE id = ?);`,
			templateID.String, day, templateID.String); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) updateInstance(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("instance %v: %w", args[len(args)-1], ErrNotFound)
	}
	return nil
}
