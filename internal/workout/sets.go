package workout

import (
	"context"
	"fmt"

	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/ordering"
	"github.com/claude/gainz/internal/storage"
	"github.com/google/uuid"
)

func setEntries(sets []models.Set) []ordering.Entry {
	entries := make([]ordering.Entry, len(sets))
	for i, s := range sets {
		entries[i] = ordering.Entry{ID: s.ID, Order: s.Order}
	}
	return entries
}

// AddSet validates the draft and appends the set to its exercise.
func (s *Service) AddSet(ctx context.Context, draft models.SetDraft) (*models.Set, error) {
	reps, weight, err := ParseSetDraft(draft)
	if err != nil {
		return nil, err
	}

	set := models.Set{
		ID:         uuid.New(),
		ExerciseID: draft.ExerciseID,
		Reps:       reps,
		Weight:     weight,
		CreatedAt:  s.now(),
	}
	err = s.update(ctx, "add set", func(tx storage.Tx) error {
		if _, err := tx.GetExercise(ctx, draft.ExerciseID); err != nil {
			return err
		}
		siblings, err := tx.ListSets(ctx, draft.ExerciseID)
		if err != nil {
			return err
		}
		set.Order = ordering.Append(setEntries(siblings))
		return tx.InsertSet(ctx, set)
	})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// RemoveSet deletes a set and renumbers the sets after it.
func (s *Service) RemoveSet(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, "remove set", func(tx storage.Tx) error {
		set, err := tx.GetSet(ctx, id)
		if err != nil {
			return err
		}
		siblings, err := tx.ListSets(ctx, set.ExerciseID)
		if err != nil {
			return err
		}
		changed, err := ordering.Remove(setEntries(siblings), id)
		if err != nil {
			return err
		}
		if err := tx.DeleteSet(ctx, id); err != nil {
			return err
		}
		for _, c := range changed {
			if err := tx.SetSetOrder(ctx, c.ID, c.Order); err != nil {
				return err
			}
		}
		return nil
	})
}

// MoveSet puts source at destination's position within their exercise.
func (s *Service) MoveSet(ctx context.Context, sourceID, destinationID uuid.UUID) ([]models.Set, error) {
	var result []models.Set
	err := s.update(ctx, "move set", func(tx storage.Tx) error {
		src, err := tx.GetSet(ctx, sourceID)
		if err != nil {
			return err
		}
		dst, err := tx.GetSet(ctx, destinationID)
		if err != nil {
			return err
		}
		if src.ExerciseID != dst.ExerciseID {
			return &ValidationError{Field: "destination", Message: "set belongs to a different exercise"}
		}

		siblings, err := tx.ListSets(ctx, src.ExerciseID)
		if err != nil {
			return err
		}
		changed, err := ordering.Move(setEntries(siblings), src.ID, dst.ID)
		if err != nil {
			return err
		}
		result = applySetOrder(siblings, changed)
		if len(changed) == 0 {
			return errNoChange
		}

		for _, c := range changed {
			if err := tx.SetSetOrder(ctx, c.ID, c.Order); err != nil {
				return fmt.Errorf("moving set %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applySetOrder(sets []models.Set, changes []ordering.Entry) []models.Set {
	next := ordering.Sorted(ordering.Apply(setEntries(sets), changes))
	byID := make(map[uuid.UUID]models.Set, len(sets))
	for _, s := range sets {
		byID[s.ID] = s
	}

	out := make([]models.Set, len(next))
	for i, n := range next {
		set := byID[n.ID]
		set.Order = n.Order
		out[i] = set
	}
	return out
}
