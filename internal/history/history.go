// Package history keeps a sqlite log of export attempts.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Trailblaze-work/loopcast/internal/export"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Export statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Entry is one export attempt.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Loop       string    `json:"loop"`
	Pattern    string    `json:"pattern"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Duration   float64   `json:"duration"`
	FPS        int       `json:"fps"`
	Status     string    `json:"status"`
	Frames     int       `json:"frames"`
	Bytes      int       `json:"bytes"`
	MIMEType   string    `json:"mime_type,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Start returns a running entry for req.
func Start(req export.Request, pattern string) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Kind:      string(req.Kind),
		Loop:      string(req.Loop),
		Pattern:   pattern,
		Width:     req.Width,
		Height:    req.Height,
		Duration:  req.Duration,
		FPS:       req.FPS,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Finish completes e from an export outcome.
func (e *Entry) Finish(res *export.Result, err error) {
	e.FinishedAt = time.Now().UTC()
	if err != nil {
		e.Status = StatusFailed
		e.Error = err.Error()
		return
	}
	e.Status = StatusDone
	e.Frames = res.Frames
	e.Bytes = len(res.Data)
	e.MIMEType = res.MIMEType
}

// Store is the sqlite-backed history.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.markInterrupted(); err != nil && logger != nil {
		logger.Warn("failed to mark interrupted exports", "error", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// markInterrupted fails exports left running by a process that died.
func (s *Store) markInterrupted() error {
	_, err := s.conn.ExecContext(context.Background(),
		`UPDATE exports SET status = ?, error = 'interrupted by restart', finished_at = ? WHERE status = ?`,
		StatusFailed, formatTime(time.Now().UTC()), StatusRunning)
	return err
}

// Record inserts e, or updates it if an entry with the same ID exists.
// An empty ID is filled in.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now().UTC()
	}
	var finished sql.NullString
	if !e.FinishedAt.IsZero() {
		finished = sql.NullString{String: formatTime(e.FinishedAt), Valid: true}
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO exports (id, kind, loop_mode, pattern, width, height, duration, fps,
			status, frames, bytes, mime_type, output, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			frames = excluded.frames,
			bytes = excluded.bytes,
			mime_type = excluded.mime_type,
			output = excluded.output,
			error = excluded.error,
			finished_at = excluded.finished_at
	`, e.ID, e.Kind, e.Loop, e.Pattern, e.Width, e.Height, e.Duration, e.FPS,
		e.Status, e.Frames, e.Bytes, e.MIMEType, e.Output, e.Error, formatTime(e.StartedAt), finished)
	if err != nil {
		return fmt.Errorf("recording export %s: %w", e.ID, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, kind, loop_mode, pattern, width, height, duration, fps,
			status, frames, bytes, mime_type, output, error, started_at, finished_at
		FROM exports ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var started string
		var finished sql.NullString
		if err := rows.Scan(&e.ID, &e.Kind, &e.Loop, &e.Pattern, &e.Width, &e.Height, &e.Duration, &e.FPS,
			&e.Status, &e.Frames, &e.Bytes, &e.MIMEType, &e.Output, &e.Error, &started, &finished); err != nil {
			return nil, err
		}
		e.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			e.FinishedAt, _ = time.Parse(timeLayout, finished.String)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// timeLayout has fixed-width fractions so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
