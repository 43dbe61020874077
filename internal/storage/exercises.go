package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (t *pgTx) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	var e models.Exercise
	err := t.tx.QueryRow(ctx,
		`SELECT id, session_id, name, sort_order, created_at FROM exercises WHERE id = $1`,
		id).Scan(&e.ID, &e.SessionID, &e.Name, &e.Order, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying exercise %s: %w", id, err)
	}
	return &e, nil
}

// ListExercises returns a session's exercises. Row order is unspecified.
func (t *pgTx) ListExercises(ctx context.Context, sessionID uuid.UUID) ([]models.Exercise, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, name, sort_order, created_at FROM exercises WHERE session_id = $1`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Name, &e.Order, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (t *pgTx) InsertExercise(ctx context.Context, e models.Exercise) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO exercises (id, session_id, name, sort_order, created_at) VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.SessionID, e.Name, e.Order, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

func (t *pgTx) SetExerciseOrder(ctx context.Context, id uuid.UUID, order int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE exercises SET sort_order = $2 WHERE id = $1`, id, order)
	if err != nil {
		return fmt.Errorf("updating exercise order: %w", err)
	}
	return affected(tag.RowsAffected(), "exercise", id)
}

// DeleteExercise relies on ON DELETE CASCADE to remove the exercise's sets.
func (t *pgTx) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return affected(tag.RowsAffected(), "exercise", id)
}
