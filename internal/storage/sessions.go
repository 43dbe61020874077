package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgTx implements Tx on a single pgx transaction.
type pgTx struct {
	tx   pgx.Tx
	done bool
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		t.done = true
		return fmt.Errorf("committing transaction: %w", err)
	}
	t.done = true
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

const sessionColumns = `id, start_date, end_date`

// GetSession retrieves a single session by ID.
func (t *pgTx) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", id, err)
	}
	return s, nil
}

func (t *pgTx) ActiveSession(ctx context.Context) (*models.Session, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE end_date IS NULL
		 ORDER BY start_date DESC
		 LIMIT 1`)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	return s, nil
}

// ListSessions retrieves sessions in a time range.
func (t *pgTx) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE start_date >= $1 AND start_date < $2
		 ORDER BY start_date DESC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.StartDate, &s.EndDate); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (t *pgTx) InsertSession(ctx context.Context, s models.Session) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO sessions (id, start_date, end_date) VALUES ($1, $2, $3)`,
		s.ID, s.StartDate, s.EndDate)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (t *pgTx) EndSession(ctx context.Context, id uuid.UUID, end time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sessions SET end_date = $2 WHERE id = $1`, id, end)
	if err != nil {
		return fmt.Errorf("ending session %s: %w", id, err)
	}
	return affected(tag.RowsAffected(), "session", id)
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(&s.ID, &s.StartDate, &s.EndDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
