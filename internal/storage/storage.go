package storage

import (
	"database/sql"
	"errors"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func Open(dbPath string, opts ...Option) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS templates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0,
	repetitions INTEGER NOT NULL DEFAULT 1,
	anchor TEXT NOT NULL,
	rule TEXT DEFAULT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT DEFAULT NULL
);
CREATE TABLE IF NOT EXISTS template_exceptions (
	template_id TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
	date TEXT NOT NULL,
	PRIMARY KEY (template_id, date)
);
CREATE TABLE IF NOT EXISTS instances (
	id TEXT PRIMARY KEY,
	template_id TEXT DEFAULT NULL,
	date TEXT NOT NULL,
	name TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0,
	repetitions INTEGER NOT NULL DEFAULT 1,
	current_repetitions INTEGER NOT NULL DEFAULT 0,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	UNIQUE (template_id, date)
);
CREATE INDEX IF NOT EXISTS instances_date ON instances(date);`
	_, err := s.db.Exec(ddl)
	return err
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
