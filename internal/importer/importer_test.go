package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/gainz/internal/ingest/alpha"
	"github.com/claude/gainz/internal/storage"
	"github.com/claude/gainz/internal/workout"
	"github.com/klauspost/compress/gzip"
)

const pushDay = `"Push";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;0
`

const pullDay = `"Pull";"2026-02-18 6:10 h";"0:55 hr"
"1. Rows · Cable · 10 reps"
#;KG;REPS;RIR
1;60;10;1
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func newTestImporter(t *testing.T, dryRun bool) (*Importer, *workout.Service) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := storage.NewMemory()
	svc := workout.New(mem, log)
	provider := alpha.NewProvider(svc, mem, alpha.UnitKg, log)
	return New(provider, log, dryRun), svc
}

func allSessions(t *testing.T, svc *workout.Service) int {
	t.Helper()
	sessions, err := svc.ListSessions(context.Background(), time.Time{}, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return len(sessions)
}

func TestIsExport(t *testing.T) {
	tests := map[string]bool{
		"export.csv":        true,
		"EXPORT.CSV":        true,
		"2026-02.csv.gz":    true,
		"notes.txt":         false,
		"archive.gz":        false,
		"export.csv.backup": false,
	}
	for name, want := range tests {
		if got := IsExport(name); got != want {
			t.Errorf("IsExport(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestImportDirectory verifies plain and gzipped exports in nested
// directories are imported and other files are skipped.
func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushDay)
	if err := os.MkdirAll(filepath.Join(dir, "older"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeGzip(t, filepath.Join(dir, "older", "pull.csv.gz"), pullDay)
	writeFile(t, filepath.Join(dir, "README.txt"), "not an export")

	imp, svc := newTestImporter(t, false)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesProcessed != 2 || stats.FilesSkipped != 1 || stats.FilesErrored != 0 {
		t.Errorf("files = %d processed, %d skipped, %d errored", stats.FilesProcessed, stats.FilesSkipped, stats.FilesErrored)
	}
	if stats.SessionsImported != 2 || stats.SetsImported != 3 {
		t.Errorf("stats = %+v", stats.Result)
	}
	if n := allSessions(t, svc); n != 2 {
		t.Errorf("sessions stored = %d, want 2", n)
	}
}

// TestImportDryRun verifies counts are reported but nothing is stored.
func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushDay)

	imp, svc := newTestImporter(t, true)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SessionsImported != 1 || stats.SetsImported != 2 {
		t.Errorf("stats = %+v", stats.Result)
	}
	if n := allSessions(t, svc); n != 0 {
		t.Errorf("sessions stored = %d, want 0", n)
	}
}

// TestImportBadFiles verifies unreadable files are counted and do not stop the walk.
func TestImportBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a-broken.csv.gz"), "not gzip data")
	writeFile(t, filepath.Join(dir, "b-orphan.csv"), "1;100;5;1\n")
	writeFile(t, filepath.Join(dir, "c-push.csv"), pushDay)

	imp, svc := newTestImporter(t, false)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesErrored != 2 || stats.FilesProcessed != 1 {
		t.Errorf("files = %d processed, %d errored", stats.FilesProcessed, stats.FilesErrored)
	}
	if n := allSessions(t, svc); n != 1 {
		t.Errorf("sessions stored = %d, want 1", n)
	}
}

// TestImportCanceled verifies a canceled context stops the walk.
func TestImportCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushDay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp, _ := newTestImporter(t, false)
	if _, err := imp.Import(ctx, dir); err == nil {
		t.Error("expected error from canceled import")
	}
}

func TestImportMissingDir(t *testing.T) {
	imp, _ := newTestImporter(t, false)
	if _, err := imp.Import(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
