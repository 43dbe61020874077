package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
)

// ErrTxClosed is returned by a memory Tx used after Commit or Rollback.
var ErrTxClosed = errors.New("transaction already closed")

type memoryState struct {
	sessions  map[uuid.UUID]models.Session
	exercises map[uuid.UUID]models.Exercise
	sets      map[uuid.UUID]models.Set
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		sessions:  maps.Clone(s.sessions),
		exercises: maps.Clone(s.exercises),
		sets:      maps.Clone(s.sets),
	}
	for id, sess := range c.sessions {
		if sess.EndDate != nil {
			end := *sess.EndDate
			sess.EndDate = &end
			c.sessions[id] = sess
		}
	}
	return c
}

// Memory is an in-process Store. A unit of work stages its changes on a
// private copy of the state and swaps the copy in on Commit, so a failed
// or abandoned unit of work leaves nothing behind.
type Memory struct {
	mu         sync.Mutex // held for the lifetime of a Tx
	state      memoryState
	failCommit error

	logMu sync.Mutex
	logs  []ImportLog
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: memoryState{
		sessions:  map[uuid.UUID]models.Session{},
		exercises: map[uuid.UUID]models.Exercise{},
		sets:      map[uuid.UUID]models.Set{},
	}}
}

// FailNextCommit makes the next Commit return err and discard its changes.
func (m *Memory) FailNextCommit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommit = err
}

// Begin blocks until no other memory Tx is open.
func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	return &memoryTx{m: m, state: m.state.clone()}, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) InsertImportLog(_ context.Context, log ImportLog) (int64, error) {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	log.ID = int64(len(m.logs) + 1)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, log)
	return log.ID, nil
}

func (m *Memory) UpdateImportLog(_ context.Context, id int64, log ImportLog) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	if id < 1 || int(id) > len(m.logs) {
		return fmt.Errorf("import log %d: %w", id, ErrNotFound)
	}
	prev := m.logs[id-1]
	log.ID, log.CreatedAt, log.Source = prev.ID, prev.CreatedAt, prev.Source
	m.logs[id-1] = log
	return nil
}

func (m *Memory) QueryImportLogs(_ context.Context, limit int) ([]ImportLog, error) {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	if limit <= 0 {
		limit = defaultImportLogLimit
	}
	var result []ImportLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.logs[i])
	}
	return result, nil
}

type memoryTx struct {
	m      *Memory
	state  memoryState
	closed bool
}

func (t *memoryTx) release() {
	t.closed = true
	t.m.mu.Unlock()
}

func (t *memoryTx) Commit(context.Context) error {
	if t.closed {
		return ErrTxClosed
	}
	defer t.release()
	if err := t.m.failCommit; err != nil {
		t.m.failCommit = nil
		return fmt.Errorf("committing transaction: %w", err)
	}
	t.m.state = t.state
	return nil
}

func (t *memoryTx) Rollback(context.Context) error {
	if t.closed {
		return nil
	}
	t.release()
	return nil
}

func (t *memoryTx) check() error {
	if t.closed {
		return ErrTxClosed
	}
	return nil
}

func (t *memoryTx) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	s, ok := t.state.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func (t *memoryTx) ActiveSession(context.Context) (*models.Session, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var active *models.Session
	for _, s := range t.state.sessions {
		if s.EndDate != nil {
			continue
		}
		if active == nil || s.StartDate.After(active.StartDate) {
			active = &s
		}
	}
	if active == nil {
		return nil, fmt.Errorf("active session: %w", ErrNotFound)
	}
	return active, nil
}

func (t *memoryTx) ListSessions(_ context.Context, start, end time.Time) ([]models.Session, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var result []models.Session
	for _, s := range t.state.sessions {
		if !s.StartDate.Before(start) && s.StartDate.Before(end) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (t *memoryTx) InsertSession(_ context.Context, s models.Session) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, dup := t.state.sessions[s.ID]; dup {
		return fmt.Errorf("inserting session: duplicate id %s", s.ID)
	}
	t.state.sessions[s.ID] = s
	return nil
}

func (t *memoryTx) EndSession(_ context.Context, id uuid.UUID, end time.Time) error {
	if err := t.check(); err != nil {
		return err
	}
	s, ok := t.state.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	s.EndDate = &end
	t.state.sessions[id] = s
	return nil
}

func (t *memoryTx) GetExercise(_ context.Context, id uuid.UUID) (*models.Exercise, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	e, ok := t.state.exercises[id]
	if !ok {
		return nil, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	return &e, nil
}

// ListExercises iterates a Go map, so the result order is deliberately random.
func (t *memoryTx) ListExercises(_ context.Context, sessionID uuid.UUID) ([]models.Exercise, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var result []models.Exercise
	for _, e := range t.state.exercises {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (t *memoryTx) InsertExercise(_ context.Context, e models.Exercise) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.sessions[e.SessionID]; !ok {
		return fmt.Errorf("inserting exercise: session %s: %w", e.SessionID, ErrNotFound)
	}
	t.state.exercises[e.ID] = e
	return nil
}

func (t *memoryTx) SetExerciseOrder(_ context.Context, id uuid.UUID, order int) error {
	if err := t.check(); err != nil {
		return err
	}
	e, ok := t.state.exercises[id]
	if !ok {
		return fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	e.Order = order
	t.state.exercises[id] = e
	return nil
}

func (t *memoryTx) DeleteExercise(_ context.Context, id uuid.UUID) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.exercises[id]; !ok {
		return fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	for sid, s := range t.state.sets {
		if s.ExerciseID == id {
			delete(t.state.sets, sid)
		}
	}
	delete(t.state.exercises, id)
	return nil
}

func (t *memoryTx) GetSet(_ context.Context, id uuid.UUID) (*models.Set, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	s, ok := t.state.sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func (t *memoryTx) ListSets(_ context.Context, exerciseID uuid.UUID) ([]models.Set, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var result []models.Set
	for _, s := range t.state.sets {
		if s.ExerciseID == exerciseID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (t *memoryTx) InsertSet(_ context.Context, s models.Set) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.exercises[s.ExerciseID]; !ok {
		return fmt.Errorf("inserting set: exercise %s: %w", s.ExerciseID, ErrNotFound)
	}
	t.state.sets[s.ID] = s
	return nil
}

func (t *memoryTx) SetSetOrder(_ context.Context, id uuid.UUID, order int) error {
	if err := t.check(); err != nil {
		return err
	}
	s, ok := t.state.sets[id]
	if !ok {
		return fmt.Errorf("set %s: %w", id, ErrNotFound)
	}
	s.Order = order
	t.state.sets[id] = s
	return nil
}

func (t *memoryTx) DeleteSet(_ context.Context, id uuid.UUID) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.sets[id]; !ok {
		return fmt.Errorf("set %s: %w", id, ErrNotFound)
	}
	delete(t.state.sets, id)
	return nil
}
