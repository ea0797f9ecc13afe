package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
)

func openTest(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen_CreatesTables(t *testing.T) {
	s, _ := openTest(t)
	for _, table := range []string{"exports", "_migrations"} {
		var name string
		err := s.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	s1.Close()

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer s2.Close()

	var count int
	s2.conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count)
	if count != 1 {
		t.Errorf("migrations applied %d times, want 1", count)
	}
}

func TestRecord_Lifecycle(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	req := export.DefaultRequest()
	e := Start(req, "plasma")
	if err := s.Record(ctx, e); err != nil {
		t.Fatalf("Record running: %v", err)
	}

	e.Finish(&export.Result{Data: make([]byte, 2048), MIMEType: "image/gif", Frames: 90}, nil)
	e.Output = "/tmp/out.gif"
	if err := s.Record(ctx, e); err != nil {
		t.Fatalf("Record done: %v", err)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.ID != e.ID || got.Status != StatusDone || got.Frames != 90 || got.Bytes != 2048 {
		t.Errorf("got %+v", got)
	}
	if got.Pattern != "plasma" || got.Kind != "gif" || got.Loop != "normal" || got.Output != "/tmp/out.gif" {
		t.Errorf("got %+v", got)
	}
	if got.FinishedAt.IsZero() || !got.StartedAt.Equal(e.StartedAt) {
		t.Errorf("times: started %v (want %v), finished %v", got.StartedAt, e.StartedAt, got.FinishedAt)
	}
}

func TestRecord_Failure(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	e := Start(export.DefaultRequest(), "aurora")
	e.Finish(nil, &export.AcquisitionError{Frame: 4, Time: 0.13, Err: errors.New("context lost")})
	if err := s.Record(ctx, e); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	entries, _ := s.List(ctx, 0)
	if len(entries) != 1 || entries[0].Status != StatusFailed || entries[0].Error == "" {
		t.Errorf("got %+v", entries)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, d := range []time.Duration{100 * time.Millisecond, 120 * time.Millisecond, time.Second} {
		e := &Entry{Kind: "gif", Loop: "normal", Width: 128, Height: 128, Duration: 1, FPS: 15,
			Status: StatusDone, StartedAt: base.Add(d), Pattern: string(rune('a' + i))}
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	entries, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Pattern != "c" || entries[1].Pattern != "b" {
		t.Errorf("order: got %s, %s; want c, b", entries[0].Pattern, entries[1].Pattern)
	}
}

func TestOpen_MarksInterrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	e := Start(export.DefaultRequest(), "radial")
	s1.Record(context.Background(), e)
	s1.Close()

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()
	entries, _ := s2.List(context.Background(), 1)
	if len(entries) != 1 || entries[0].Status != StatusFailed {
		t.Errorf("running export should be failed after restart, got %+v", entries)
	}
}
