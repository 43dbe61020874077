package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
)

// backends returns every Store that runs without external services.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data", "gainz.db")
	if err := RunMigrations(DriverSQLite, path); err != nil {
		t.Fatalf("migrating sqlite: %v", err)
	}
	lite, err := OpenSQLite(ctx, path+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { lite.Close() })

	return map[string]Store{
		DriverMemory: NewMemory(),
		DriverSQLite: lite,
	}
}

func begin(t *testing.T, s Store) Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { tx.Rollback(context.Background()) })
	return tx
}

func commit(t *testing.T, tx Tx) {
	t.Helper()
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

// TestStoreRoundTrip verifies each backend persists what a committed unit of
// work staged.
func TestStoreRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start := time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)
			sess := models.Session{ID: uuid.New(), StartDate: start}
			ex := models.Exercise{ID: uuid.New(), SessionID: sess.ID, Name: "Bench Press", Order: 0, CreatedAt: start}
			set := models.Set{ID: uuid.New(), ExerciseID: ex.ID, Reps: 8, Weight: 135.5, Order: 0, CreatedAt: start}

			tx := begin(t, store)
			if err := tx.InsertSession(ctx, sess); err != nil {
				t.Fatalf("insert session: %v", err)
			}
			if err := tx.InsertExercise(ctx, ex); err != nil {
				t.Fatalf("insert exercise: %v", err)
			}
			if err := tx.InsertSet(ctx, set); err != nil {
				t.Fatalf("insert set: %v", err)
			}
			commit(t, tx)

			tx = begin(t, store)
			gotSess, err := tx.GetSession(ctx, sess.ID)
			if err != nil {
				t.Fatalf("get session: %v", err)
			}
			if !gotSess.StartDate.Equal(start) || gotSess.EndDate != nil {
				t.Errorf("session = %+v", gotSess)
			}
			active, err := tx.ActiveSession(ctx)
			if err != nil {
				t.Fatalf("active session: %v", err)
			}
			if active.ID != sess.ID {
				t.Errorf("active = %s, want %s", active.ID, sess.ID)
			}
			gotEx, err := tx.GetExercise(ctx, ex.ID)
			if err != nil {
				t.Fatalf("get exercise: %v", err)
			}
			if gotEx.Name != "Bench Press" || gotEx.SessionID != sess.ID {
				t.Errorf("exercise = %+v", gotEx)
			}
			gotSet, err := tx.GetSet(ctx, set.ID)
			if err != nil {
				t.Fatalf("get set: %v", err)
			}
			if gotSet.Reps != 8 || gotSet.Weight != 135.5 || gotSet.ExerciseID != ex.ID {
				t.Errorf("set = %+v", gotSet)
			}

			end := start.Add(time.Hour)
			if err := tx.EndSession(ctx, sess.ID, end); err != nil {
				t.Fatalf("end session: %v", err)
			}
			commit(t, tx)

			tx = begin(t, store)
			if _, err := tx.ActiveSession(ctx); !errors.Is(err, ErrNotFound) {
				t.Errorf("active after end: err = %v, want ErrNotFound", err)
			}
			gotSess, err = tx.GetSession(ctx, sess.ID)
			if err != nil {
				t.Fatal(err)
			}
			if gotSess.EndDate == nil || !gotSess.EndDate.Equal(end) {
				t.Errorf("end date = %v, want %v", gotSess.EndDate, end)
			}
		})
	}
}

// TestStoreRollback verifies nothing staged in an abandoned unit of work is
// visible afterwards.
func TestStoreRollback(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := models.Session{ID: uuid.New(), StartDate: time.Now().UTC()}
			a := models.Exercise{ID: uuid.New(), SessionID: sess.ID, Name: "A", Order: 0}
			b := models.Exercise{ID: uuid.New(), SessionID: sess.ID, Name: "B", Order: 1}

			tx := begin(t, store)
			for _, err := range []error{
				tx.InsertSession(ctx, sess),
				tx.InsertExercise(ctx, a),
				tx.InsertExercise(ctx, b),
			} {
				if err != nil {
					t.Fatal(err)
				}
			}
			commit(t, tx)

			tx = begin(t, store)
			if err := tx.SetExerciseOrder(ctx, a.ID, 1); err != nil {
				t.Fatal(err)
			}
			if err := tx.SetExerciseOrder(ctx, b.ID, 0); err != nil {
				t.Fatal(err)
			}
			if err := tx.DeleteExercise(ctx, a.ID); err != nil {
				t.Fatal(err)
			}
			if err := tx.Rollback(ctx); err != nil {
				t.Fatalf("rollback: %v", err)
			}

			tx = begin(t, store)
			exercises, err := tx.ListExercises(ctx, sess.ID)
			if err != nil {
				t.Fatal(err)
			}
			sort.Slice(exercises, func(i, j int) bool { return exercises[i].Order < exercises[j].Order })
			if len(exercises) != 2 || exercises[0].ID != a.ID || exercises[1].ID != b.ID {
				t.Errorf("exercises after rollback = %+v", exercises)
			}
		})
	}
}

// TestStoreDeleteExerciseCascades verifies an exercise's sets go with it.
func TestStoreDeleteExerciseCascades(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := models.Session{ID: uuid.New(), StartDate: time.Now().UTC()}
			ex := models.Exercise{ID: uuid.New(), SessionID: sess.ID, Name: "Row"}
			set := models.Set{ID: uuid.New(), ExerciseID: ex.ID, Reps: 10, Weight: 95}

			tx := begin(t, store)
			if err := tx.InsertSession(ctx, sess); err != nil {
				t.Fatal(err)
			}
			if err := tx.InsertExercise(ctx, ex); err != nil {
				t.Fatal(err)
			}
			if err := tx.InsertSet(ctx, set); err != nil {
				t.Fatal(err)
			}
			if err := tx.DeleteExercise(ctx, ex.ID); err != nil {
				t.Fatalf("delete exercise: %v", err)
			}
			commit(t, tx)

			tx = begin(t, store)
			if _, err := tx.GetSet(ctx, set.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("get set err = %v, want ErrNotFound", err)
			}
			sets, err := tx.ListSets(ctx, ex.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(sets) != 0 {
				t.Errorf("sets = %d, want 0", len(sets))
			}
		})
	}
}

// TestStoreNotFound verifies mutations on missing rows report ErrNotFound.
func TestStoreNotFound(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tx := begin(t, store)
			id := uuid.New()

			checks := map[string]error{
				"GetSession":       func() error { _, err := tx.GetSession(ctx, id); return err }(),
				"GetExercise":      func() error { _, err := tx.GetExercise(ctx, id); return err }(),
				"GetSet":           func() error { _, err := tx.GetSet(ctx, id); return err }(),
				"EndSession":       tx.EndSession(ctx, id, time.Now()),
				"SetExerciseOrder": tx.SetExerciseOrder(ctx, id, 0),
				"SetSetOrder":      tx.SetSetOrder(ctx, id, 0),
				"DeleteExercise":   tx.DeleteExercise(ctx, id),
				"DeleteSet":        tx.DeleteSet(ctx, id),
			}
			for op, err := range checks {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("%s err = %v, want ErrNotFound", op, err)
				}
			}
		})
	}
}

// TestStoreListSessionsRange verifies the half-open range and newest-first order.
func TestStoreListSessionsRange(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)

			tx := begin(t, store)
			for i := 0; i < 4; i++ {
				start := base.AddDate(0, 0, i)
				end := start.Add(time.Hour)
				if err := tx.InsertSession(ctx, models.Session{ID: uuid.New(), StartDate: start, EndDate: &end}); err != nil {
					t.Fatal(err)
				}
			}
			commit(t, tx)

			tx = begin(t, store)
			got, err := tx.ListSessions(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 {
				t.Fatalf("sessions = %d, want 2", len(got))
			}
			if !got[0].StartDate.Equal(base.AddDate(0, 0, 2)) || !got[1].StartDate.Equal(base.AddDate(0, 0, 1)) {
				t.Errorf("order = %v, %v", got[0].StartDate, got[1].StartDate)
			}
		})
	}
}

// TestImportLogs verifies a log row can be created, finalized and listed.
func TestImportLogs(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.InsertImportLog(ctx, ImportLog{Source: "alpha", Status: ImportRunning})
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
			dur := 42
			if err := store.UpdateImportLog(ctx, id, ImportLog{
				Status:           ImportSuccess,
				SessionsReceived: 3,
				SessionsImported: 2,
				SessionsSkipped:  1,
				SetsImported:     17,
				DurationMs:       &dur,
			}); err != nil {
				t.Fatalf("update: %v", err)
			}
			if _, err := store.InsertImportLog(ctx, ImportLog{Source: "alpha", Status: ImportRunning}); err != nil {
				t.Fatal(err)
			}

			logs, err := store.QueryImportLogs(ctx, 10)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(logs) != 2 {
				t.Fatalf("logs = %d, want 2", len(logs))
			}
			done := logs[1]
			if done.ID != id || done.Status != ImportSuccess || done.Source != "alpha" {
				t.Errorf("log = %+v", done)
			}
			if done.SessionsImported != 2 || done.SetsImported != 17 || done.DurationMs == nil || *done.DurationMs != 42 {
				t.Errorf("counts = %+v", done)
			}

			limited, err := store.QueryImportLogs(ctx, 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(limited) != 1 {
				t.Errorf("limited = %d, want 1", len(limited))
			}
		})
	}
}
