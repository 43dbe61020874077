// Package workout implements the session, exercise and set operations of the
// workout log. Every mutating call is one unit of work against the store:
// the structural change and any renumbering of siblings commit together or
// not at all.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/storage"
	"github.com/google/uuid"
)

// errNoChange ends a unit of work without committing.
var errNoChange = errors.New("no change")

// Service owns all reads and writes of sessions, exercises and sets.
type Service struct {
	store storage.Store
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Service backed by store.
func New(store storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// update runs fn in a unit of work and commits it. Errors from fn that are
// not domain errors, and any commit failure, are returned as *StorageError.
func (s *Service) update(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return s.storageError(op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return s.classify(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return s.storageError(op, err)
	}
	return nil
}

// view runs fn in a unit of work that is always rolled back.
func (s *Service) view(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return s.storageError(op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return s.classify(op, err)
	}
	return nil
}

func (s *Service) classify(op string, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrSessionActive),
		errors.Is(err, ErrSessionEnded),
		errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	return s.storageError(op, err)
}

func (s *Service) storageError(op string, err error) error {
	s.log.Error("workout storage error", "op", op, "error", err)
	return &StorageError{Op: op, Err: err}
}

// StartSession begins a new session. Only one session may be active.
func (s *Service) StartSession(ctx context.Context) (*models.Session, error) {
	sess := models.Session{ID: uuid.New(), StartDate: s.now()}

	err := s.update(ctx, "start session", func(tx storage.Tx) error {
		active, err := tx.ActiveSession(ctx)
		switch {
		case err == nil:
			return fmt.Errorf("session %s: %w", active.ID, ErrSessionActive)
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		return tx.InsertSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("session started", "session", sess.ID)
	return &sess, nil
}

// EndSession stamps the session's end date.
func (s *Service) EndSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var ended models.Session
	err := s.update(ctx, "end session", func(tx storage.Tx) error {
		sess, err := tx.GetSession(ctx, id)
		if err != nil {
			return err
		}
		if !sess.Active() {
			return fmt.Errorf("session %s: %w", id, ErrSessionEnded)
		}
		end := s.now()
		if err := tx.EndSession(ctx, id, end); err != nil {
			return err
		}
		sess.EndDate = &end
		ended = *sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("session ended", "session", id, "duration", ended.EndDate.Sub(ended.StartDate).String())
	return &ended, nil
}

// ActiveSession returns the detail of the session in progress.
func (s *Service) ActiveSession(ctx context.Context) (*models.SessionDetail, error) {
	var detail *models.SessionDetail
	err := s.view(ctx, "active session", func(tx storage.Tx) error {
		sess, err := tx.ActiveSession(ctx)
		if err != nil {
			return err
		}
		detail, err = loadDetail(ctx, tx, *sess)
		return err
	})
	return detail, err
}

// GetSession returns a session with its exercises and sets in order.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	var detail *models.SessionDetail
	err := s.view(ctx, "get session", func(tx storage.Tx) error {
		sess, err := tx.GetSession(ctx, id)
		if err != nil {
			return err
		}
		detail, err = loadDetail(ctx, tx, *sess)
		return err
	})
	return detail, err
}

// GetExercise returns an exercise with its sets in order.
func (s *Service) GetExercise(ctx context.Context, id uuid.UUID) (*models.ExerciseDetail, error) {
	var detail *models.ExerciseDetail
	err := s.view(ctx, "get exercise", func(tx storage.Tx) error {
		ex, err := tx.GetExercise(ctx, id)
		if err != nil {
			return err
		}
		sets, err := loadSets(ctx, tx, ex.ID)
		if err != nil {
			return err
		}
		detail = &models.ExerciseDetail{Exercise: *ex, Sets: sets}
		return nil
	})
	return detail, err
}

// ListSessions returns sessions started in [start, end), newest first.
func (s *Service) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := s.view(ctx, "list sessions", func(tx storage.Tx) error {
		var err error
		sessions, err = tx.ListSessions(ctx, start, end)
		return err
	})
	return sessions, err
}

// ImportSession stores a finished session from an external export, exercises
// and sets appended in the order given.
func (s *Service) ImportSession(ctx context.Context, in models.ImportedSession) (*models.Session, error) {
	sess := models.Session{ID: uuid.New(), StartDate: in.StartDate}
	if !in.EndDate.IsZero() {
		end := in.EndDate
		sess.EndDate = &end
	}

	err := s.update(ctx, "import session", func(tx storage.Tx) error {
		if err := tx.InsertSession(ctx, sess); err != nil {
			return err
		}
		now := s.now()
		for i, ie := range in.Exercises {
			name, err := ValidateName(ie.Name)
			if err != nil {
				return err
			}
			ex := models.Exercise{ID: uuid.New(), SessionID: sess.ID, Name: name, Order: i, CreatedAt: now}
			if err := tx.InsertExercise(ctx, ex); err != nil {
				return err
			}
			for j, is := range ie.Sets {
				set := models.Set{
					ID:         uuid.New(),
					ExerciseID: ex.ID,
					Reps:       is.Reps,
					Weight:     is.Weight,
					Order:      j,
					CreatedAt:  now,
				}
				if err := tx.InsertSet(ctx, set); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func loadDetail(ctx context.Context, tx storage.Tx, sess models.Session) (*models.SessionDetail, error) {
	exercises, err := tx.ListExercises(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].Order < exercises[j].Order })

	detail := &models.SessionDetail{Session: sess, Exercises: make([]models.ExerciseDetail, 0, len(exercises))}
	for _, e := range exercises {
		sets, err := loadSets(ctx, tx, e.ID)
		if err != nil {
			return nil, err
		}
		detail.Exercises = append(detail.Exercises, models.ExerciseDetail{Exercise: e, Sets: sets})
	}
	return detail, nil
}

func loadSets(ctx context.Context, tx storage.Tx, exerciseID uuid.UUID) ([]models.Set, error) {
	sets, err := tx.ListSets(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Order < sets[j].Order })
	if sets == nil {
		sets = []models.Set{}
	}
	return sets, nil
}
