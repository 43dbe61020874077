package workout

import (
	"context"
	"fmt"

	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/ordering"
	"github.com/claude/gainz/internal/storage"
	"github.com/google/uuid"
)

func exerciseEntries(exercises []models.Exercise) []ordering.Entry {
	entries := make([]ordering.Entry, len(exercises))
	for i, e := range exercises {
		entries[i] = ordering.Entry{ID: e.ID, Order: e.Order}
	}
	return entries
}

// AddExercise appends a named exercise to the end of a session.
func (s *Service) AddExercise(ctx context.Context, sessionID uuid.UUID, name string) (*models.Exercise, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	ex := models.Exercise{ID: uuid.New(), SessionID: sessionID, Name: name, CreatedAt: s.now()}
	err = s.update(ctx, "add exercise", func(tx storage.Tx) error {
		if _, err := tx.GetSession(ctx, sessionID); err != nil {
			return err
		}
		siblings, err := tx.ListExercises(ctx, sessionID)
		if err != nil {
			return err
		}
		ex.Order = ordering.Append(exerciseEntries(siblings))
		return tx.InsertExercise(ctx, ex)
	})
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// RemoveExercise deletes an exercise with its sets and closes the gap it
// leaves in the session's order.
func (s *Service) RemoveExercise(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, "remove exercise", func(tx storage.Tx) error {
		ex, err := tx.GetExercise(ctx, id)
		if err != nil {
			return err
		}
		siblings, err := tx.ListExercises(ctx, ex.SessionID)
		if err != nil {
			return err
		}
		changed, err := ordering.Remove(exerciseEntries(siblings), id)
		if err != nil {
			return err
		}
		if err := tx.DeleteExercise(ctx, id); err != nil {
			return err
		}
		for _, c := range changed {
			if err := tx.SetExerciseOrder(ctx, c.ID, c.Order); err != nil {
				return err
			}
		}
		return nil
	})
}

// MoveExercise puts source at destination's position within their session,
// shifting the exercises in between. Both must belong to the same session.
// Moving an exercise onto itself changes nothing.
func (s *Service) MoveExercise(ctx context.Context, sourceID, destinationID uuid.UUID) ([]models.Exercise, error) {
	var result []models.Exercise
	err := s.update(ctx, "move exercise", func(tx storage.Tx) error {
		src, err := tx.GetExercise(ctx, sourceID)
		if err != nil {
			return err
		}
		dst, err := tx.GetExercise(ctx, destinationID)
		if err != nil {
			return err
		}
		if src.SessionID != dst.SessionID {
			return &ValidationError{Field: "destination", Message: "exercise belongs to a different session"}
		}

		siblings, err := tx.ListExercises(ctx, src.SessionID)
		if err != nil {
			return err
		}
		changed, err := ordering.Move(exerciseEntries(siblings), src.ID, dst.ID)
		if err != nil {
			return err
		}
		result = applyExerciseOrder(siblings, changed)
		if len(changed) == 0 {
			return errNoChange
		}

		for _, c := range changed {
			if err := tx.SetExerciseOrder(ctx, c.ID, c.Order); err != nil {
				return fmt.Errorf("moving exercise %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyExerciseOrder returns exercises with changes applied, sorted by order.
func applyExerciseOrder(exercises []models.Exercise, changes []ordering.Entry) []models.Exercise {
	next := ordering.Sorted(ordering.Apply(exerciseEntries(exercises), changes))
	byID := make(map[uuid.UUID]models.Exercise, len(exercises))
	for _, e := range exercises {
		byID[e.ID] = e
	}

	out := make([]models.Exercise, len(next))
	for i, n := range next {
		e := byID[n.ID]
		e.Order = n.Order
		out[i] = e
	}
	return out
}
