package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is a workout log backend. All mutations go through a Tx.
type Store interface {
	// Begin starts a unit of work. Nothing it stages is visible to other
	// units of work until Commit succeeds.
	Begin(ctx context.Context) (Tx, error)

	InsertImportLog(ctx context.Context, log ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log ImportLog) error
	QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error)

	Close() error
}

// Tx stages creates, deletes and field mutations and persists them
// atomically on Commit. Child collections are returned in storage order,
// which callers must not rely on.
type Tx interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// ActiveSession returns the most recently started session without an end date.
	ActiveSession(ctx context.Context) (*models.Session, error)
	// ListSessions returns sessions started in [start, end), newest first.
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	InsertSession(ctx context.Context, s models.Session) error
	EndSession(ctx context.Context, id uuid.UUID, end time.Time) error

	GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error)
	ListExercises(ctx context.Context, sessionID uuid.UUID) ([]models.Exercise, error)
	InsertExercise(ctx context.Context, e models.Exercise) error
	SetExerciseOrder(ctx context.Context, id uuid.UUID, order int) error
	// DeleteExercise removes the exercise and every set it owns.
	DeleteExercise(ctx context.Context, id uuid.UUID) error

	GetSet(ctx context.Context, id uuid.UUID) (*models.Set, error)
	ListSets(ctx context.Context, exerciseID uuid.UUID) ([]models.Set, error)
	InsertSet(ctx context.Context, s models.Set) error
	SetSetOrder(ctx context.Context, id uuid.UUID, order int) error
	DeleteSet(ctx context.Context, id uuid.UUID) error

	Commit(ctx context.Context) error
	// Rollback discards staged changes. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		return New(ctx, dsn)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// affected turns a zero row count into ErrNotFound.
func affected(n int64, what string, id uuid.UUID) error {
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
