package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quest/internal/recurrence"
)

const templateColumns = `id, name, points, repetitions, anchor, rule`

const upsertTemplate = `
INSERT INTO templates (id, name, points, repetitions, anchor, rule, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	points = excluded.points,
	repetitions = excluded.repetitions,
	anchor = excluded.anchor,
	rule = excluded.rule,
	updated_at = excluded.updated_at;`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// SaveTemplate inserts t or replaces the stored template with the same id.
// Exceptions are stored separately; see AddException.
func (s *Store) SaveTemplate(t recurrence.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.saveTemplate(s.db, t)
}

// ImportTemplates saves each template together with its exceptions in one
// transaction. Existing templates with the same id are replaced and keep any
// exceptions they already had.
func (s *Store) ImportTemplates(templates []recurrence.Template) error {
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range templates {
		if err := s.saveTemplate(tx, t); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
		for _, d := range t.Exceptions.Dates() {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO template_exceptions (template_id, date) VALUES (?, ?);`,
				t.ID, recurrence.FormatDate(d)); err != nil {
				return fmt.Errorf("template %s: %w", t.ID, err)
			}
		}
	}
	return tx.Commit()
}

func (s *Store) saveTemplate(ex execer, t recurrence.Template) error {
	rule := sql.NullString{}
	if t.Rule != nil {
		data, err := json.Marshal(t.Rule)
		if err != nil {
			return fmt.Errorf("encode rule: %w", err)
		}
		rule = sql.NullString{String: string(data), Valid: true}
	}
	now := s.now().UTC().Format(time.RFC3339)
	_, err := ex.Exec(upsertTemplate,
		t.ID, t.Name, t.Points, t.Repetitions, recurrence.FormatDate(recurrence.Day(t.Anchor)), rule, now, now)
	return err
}

func (s *Store) Template(id string) (recurrence.Template, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ?;`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return recurrence.Template{}, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return recurrence.Template{}, err
	}
	t.Exceptions, err = s.Exceptions(id)
	if err != nil {
		return recurrence.Template{}, err
	}
	return t, nil
}

// Templates returns every stored template with its exceptions. Rows that
// fail to decode are logged and left out.
func (s *Store) Templates() ([]recurrence.Template, error) {
	rows, err := s.db.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY anchor, name, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []recurrence.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			var bad *decodeError
			if errors.As(err, &bad) {
				s.logger.Printf("storage: skipping template %s: %v", bad.id, bad.err)
				continue
			}
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	all, err := s.allExceptions()
	if err != nil {
		return nil, err
	}
	for i := range templates {
		templates[i].Exceptions = all[templates[i].ID]
		if templates[i].Exceptions == nil {
			templates[i].Exceptions = recurrence.Exceptions{}
		}
	}
	return templates, nil
}

// DeleteTemplate removes a template and its exceptions. Instances already
// created from it stay, detached from the template.
func (s *Store) DeleteTemplate(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM templates WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM template_exceptions WHERE template_id = ?;`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE instances SET template_id = NULL WHERE template_id = ?;`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddException(templateID string, date time.Time) error {
	if date.IsZero() {
		return recurrence.ErrInvalidDate
	}
	if _, err := s.Template(templateID); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO template_exceptions (template_id, date) VALUES (?, ?);`,
		templateID, recurrence.FormatDate(recurrence.Day(date)))
	return err
}

func (s *Store) RemoveException(templateID string, date time.Time) error {
	_, err := s.db.Exec(`DELETE FROM template_exceptions WHERE template_id = ? AND date = ?;`,
		templateID, recurrence.FormatDate(recurrence.Day(date)))
	return err
}

func (s *Store) Exceptions(templateID string) (recurrence.Exceptions, error) {
	rows, err := s.db.Query(`SELECT date FROM template_exceptions WHERE template_id = ? ORDER BY date;`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := recurrence.Exceptions{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		date, err := recurrence.ParseDate(raw)
		if err != nil {
			s.logger.Printf("storage: template %s: ignoring exception: %v", templateID, err)
			continue
		}
		out.Add(date)
	}
	return out, rows.Err()
}

func (s *Store) allExceptions() (map[string]recurrence.Exceptions, error) {
	rows, err := s.db.Query(`SELECT template_id, date FROM template_exceptions;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]recurrence.Exceptions{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		date, err := recurrence.ParseDate(raw)
		if err != nil {
			s.logger.Printf("storage: template %s: ignoring exception: %v", id, err)
			continue
		}
		if out[id] == nil {
			out[id] = recurrence.Exceptions{}
		}
		out[id].Add(date)
	}
	return out, rows.Err()
}

type decodeError struct {
	id  string
	err error
}

func (e *decodeError) Error() string { return fmt.Sprintf("template %s: %v", e.id, e.err) }

func (e *decodeError) Unwrap() error { return e.err }

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (recurrence.Template, error) {
	var t recurrence.Template
	var anchor string
	var rule sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Points, &t.Repetitions, &anchor, &rule); err != nil {
		return recurrence.Template{}, err
	}
	date, err := recurrence.ParseDate(anchor)
	if err != nil {
		return recurrence.Template{}, &decodeError{id: t.ID, err: err}
	}
	t.Anchor = date
	if rule.Valid && rule.String != "" {
		var r recurrence.Rule
		if err := json.Unmarshal([]byte(rule.String), &r); err != nil {
			return recurrence.Template{}, &decodeError{id: t.ID, err: err}
		}
		t.Rule = &r
	}
	return t, nil
}
