package alpha

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/claude/gainz/internal/storage"
	"github.com/claude/gainz/internal/workout"
)

func newTestProvider(t *testing.T, unit string) (*Provider, *workout.Service, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := workout.New(mem, log)
	return NewProvider(svc, mem, unit, log), svc, mem
}

// TestIngestImportsWorkingSets verifies sessions land in file order with
// warmups dropped and weights converted to pounds.
func TestIngestImportsWorkingSets(t *testing.T) {
	p, svc, _ := newTestProvider(t, UnitLbs)
	ctx := context.Background()

	result, err := p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionsReceived != 2 || result.SessionsImported != 2 || result.SessionsSkipped != 0 {
		t.Errorf("result = %+v", result)
	}
	// 3+2+3+3+3+3 working sets in Legs, 3 in Push.
	if result.SetsImported != 20 {
		t.Errorf("sets = %d, want 20", result.SetsImported)
	}

	start := time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC)
	sessions, err := svc.ListSessions(ctx, start, start.Add(time.Minute))
	if err != nil || len(sessions) != 1 {
		t.Fatalf("list = %v, %v", sessions, err)
	}
	detail, err := svc.GetSession(ctx, sessions[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.EndDate == nil || detail.EndDate.Sub(start) != 62*time.Minute {
		t.Errorf("end date = %v", detail.EndDate)
	}
	if len(detail.Exercises) != 6 {
		t.Fatalf("exercises = %d, want 6", len(detail.Exercises))
	}
	hack := detail.Exercises[0]
	if hack.Name != "Hack Squats" || hack.Order != 0 {
		t.Errorf("first exercise = %q at %d", hack.Name, hack.Order)
	}
	if len(hack.Sets) != 3 {
		t.Fatalf("hack squat sets = %d, want 3", len(hack.Sets))
	}
	if math.Abs(hack.Sets[0].Weight-115*lbsPerKg) > 1e-9 || hack.Sets[1].Reps != 10 {
		t.Errorf("first set = %+v", hack.Sets[0])
	}
	if detail.Exercises[5].Name != "Hanging Leg Raises" || detail.Exercises[5].Order != 5 {
		t.Errorf("last exercise = %+v", detail.Exercises[5].Exercise)
	}
}

// TestIngestSkipsExistingSessions verifies re-importing the same export is a no-op.
func TestIngestSkipsExistingSessions(t *testing.T) {
	p, _, _ := newTestProvider(t, UnitLbs)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	result, err := p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionsImported != 0 || result.SessionsSkipped != 2 || result.SetsImported != 0 {
		t.Errorf("result = %+v", result)
	}
}

// TestIngestKilograms verifies weights are stored unconverted in kg mode.
func TestIngestKilograms(t *testing.T) {
	p, svc, _ := newTestProvider(t, UnitKg)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2026, 2, 17, 5, 4, 0, 0, time.UTC)
	sessions, err := svc.ListSessions(ctx, start, start.Add(time.Minute))
	if err != nil || len(sessions) != 1 {
		t.Fatalf("list = %v, %v", sessions, err)
	}
	detail, err := svc.GetSession(ctx, sessions[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if w := detail.Exercises[0].Sets[0].Weight; w != 102.5 {
		t.Errorf("weight = %v, want 102.5", w)
	}
}

// TestIngestWritesImportLog verifies a finished run is recorded with its counts.
func TestIngestWritesImportLog(t *testing.T) {
	p, _, mem := newTestProvider(t, UnitLbs)
	ctx := context.Background()

	result, err := p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	logs, err := mem.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	l := logs[0]
	if l.ID != result.LogID || l.Source != Source || l.Status != storage.ImportSuccess {
		t.Errorf("log = %+v", l)
	}
	if l.SessionsImported != 2 || l.SetsImported != 20 || l.DurationMs == nil {
		t.Errorf("log counts = %+v", l)
	}
}

// TestIngestParseErrorLogged verifies a malformed export is reported and logged as failed.
func TestIngestParseErrorLogged(t *testing.T) {
	p, _, mem := newTestProvider(t, UnitLbs)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, strings.NewReader("1;100;5;1\n")); err == nil {
		t.Fatal("expected error")
	}
	logs, err := mem.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Status != storage.ImportError || logs[0].ErrorMessage == nil {
		t.Errorf("logs = %+v", logs)
	}
}

// TestPreviewWritesNothing verifies a dry run counts without storing sessions.
func TestPreviewWritesNothing(t *testing.T) {
	p, svc, mem := newTestProvider(t, UnitLbs)
	ctx := context.Background()

	result, err := p.Preview(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionsImported != 2 || result.SetsImported != 20 {
		t.Errorf("result = %+v", result)
	}

	all, err := svc.ListSessions(ctx, time.Time{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("sessions stored = %d, want 0", len(all))
	}
	if logs, _ := mem.QueryImportLogs(ctx, 10); len(logs) != 0 {
		t.Errorf("import logs = %d, want 0", len(logs))
	}
}
