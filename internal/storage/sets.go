package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (t *pgTx) GetSet(ctx context.Context, id uuid.UUID) (*models.Set, error) {
	var s models.Set
	err := t.tx.QueryRow(ctx,
		`SELECT id, exercise_id, reps, weight, sort_order, created_at FROM sets WHERE id = $1`,
		id).Scan(&s.ID, &s.ExerciseID, &s.Reps, &s.Weight, &s.Order, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("set %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying set %s: %w", id, err)
	}
	return &s, nil
}

// ListSets returns an exercise's sets. Row order is unspecified.
func (t *pgTx) ListSets(ctx context.Context, exerciseID uuid.UUID) ([]models.Set, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, exercise_id, reps, weight, sort_order, created_at FROM sets WHERE exercise_id = $1`,
		exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.Set
	for rows.Next() {
		var s models.Set
		if err := rows.Scan(&s.ID, &s.ExerciseID, &s.Reps, &s.Weight, &s.Order, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (t *pgTx) InsertSet(ctx context.Context, s models.Set) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO sets (id, exercise_id, reps, weight, sort_order, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.ExerciseID, s.Reps, s.Weight, s.Order, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

func (t *pgTx) SetSetOrder(ctx context.Context, id uuid.UUID, order int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sets SET sort_order = $2 WHERE id = $1`, id, order)
	if err != nil {
		return fmt.Errorf("updating set order: %w", err)
	}
	return affected(tag.RowsAffected(), "set", id)
}

func (t *pgTx) DeleteSet(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting set: %w", err)
	}
	return affected(tag.RowsAffected(), "set", id)
}
