package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one visit to the gym. EndDate is nil while the session is active.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Active reports whether the session has not been ended.
func (s Session) Active() bool {
	return s.EndDate == nil
}

// Exercise is a named movement within a session. Order is its position
// among the session's exercises.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Set is one weighted set of an exercise. Weight is in the configured
// unit, pounds by default.
type Set struct {
	ID         uuid.UUID `json:"id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	Reps       int32     `json:"reps"`
	Weight     float64   `json:"weight"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExerciseDetail is an exercise with its sets sorted by order.
type ExerciseDetail struct {
	Exercise
	Sets []Set `json:"sets"`
}

// SessionDetail is a session with its exercises sorted by order.
type SessionDetail struct {
	Session
	Exercises []ExerciseDetail `json:"exercises"`
}

// SetDraft is the in-progress "add set" form for one exercise. Reps and
// Weight hold the raw text the user typed.
type SetDraft struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Reps       string    `json:"reps"`
	Weight     string    `json:"weight"`
}

// ImportedSession is a finished session read from an external export.
type ImportedSession struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Exercises []ImportedExercise
}

// ImportedExercise is one exercise of an ImportedSession, sets in file order.
type ImportedExercise struct {
	Name string
	Sets []ImportedSet
}

// ImportedSet is one set of an ImportedExercise.
type ImportedSet struct {
	Reps   int32
	Weight float64
}
