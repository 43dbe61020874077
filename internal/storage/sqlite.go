package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite implements Store on an embedded SQLite file. Timestamps are stored
// as Unix nanoseconds so range queries compare integers.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dsn, a file path optionally
// followed by ?_pragma=... parameters. The schema comes from RunMigrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if err := ensureSQLiteDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One writer at a time; a second Begin waits for the first to finish.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// ensureSQLiteDir creates the directory holding the database file.
func ensureSQLiteDir(dsn string) error {
	path, _, _ := strings.Cut(dsn, "?")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Begin starts a SQLite transaction.
func (s *SQLite) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &sqliteTx{tx: tx}, nil
}

func (s *SQLite) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO import_logs (created_at, source, status, sessions_received, sessions_imported,
		 sessions_skipped, sets_imported, duration_ms, error_message)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		createdAt.UnixNano(), log.Source, log.Status, log.SessionsReceived, log.SessionsImported,
		log.SessionsSkipped, log.SetsImported, log.DurationMs, log.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE import_logs SET
		 status = ?, sessions_received = ?, sessions_imported = ?,
		 sessions_skipped = ?, sets_imported = ?, duration_ms = ?, error_message = ?
		 WHERE id = ?`,
		log.Status, log.SessionsReceived, log.SessionsImported,
		log.SessionsSkipped, log.SetsImported, log.DurationMs, log.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = defaultImportLogLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, status, sessions_received, sessions_imported,
		 sessions_skipped, sets_imported, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var (
			l         ImportLog
			createdAt int64
			duration  sql.NullInt64
			message   sql.NullString
		)
		if err := rows.Scan(&l.ID, &createdAt, &l.Source, &l.Status,
			&l.SessionsReceived, &l.SessionsImported, &l.SessionsSkipped, &l.SetsImported,
			&duration, &message); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.CreatedAt = time.Unix(0, createdAt)
		if duration.Valid {
			d := int(duration.Int64)
			l.DurationMs = &d
		}
		if message.Valid {
			l.ErrorMessage = &message.String
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// sqliteTx implements Tx on a database/sql transaction.
type sqliteTx struct {
	tx   *sql.Tx
	done bool
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (t *sqliteTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, start_date, end_date FROM sessions WHERE id = ?`, id.String())
	s, err := scanSQLiteSession(row)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", id, err)
	}
	return s, nil
}

func (t *sqliteTx) ActiveSession(ctx context.Context) (*models.Session, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, start_date, end_date FROM sessions
		 WHERE end_date IS NULL
		 ORDER BY start_date DESC
		 LIMIT 1`)
	s, err := scanSQLiteSession(row)
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	return s, nil
}

func (t *sqliteTx) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, start_date, end_date FROM sessions
		 WHERE start_date >= ? AND start_date < ?
		 ORDER BY start_date DESC`,
		start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (t *sqliteTx) InsertSession(ctx context.Context, s models.Session) error {
	var end sql.NullInt64
	if s.EndDate != nil {
		end = sql.NullInt64{Int64: s.EndDate.UnixNano(), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO sessions (id, start_date, end_date) VALUES (?, ?, ?)`,
		s.ID.String(), s.StartDate.UnixNano(), end)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (t *sqliteTx) EndSession(ctx context.Context, id uuid.UUID, end time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sessions SET end_date = ? WHERE id = ?`, end.UnixNano(), id.String())
	if err != nil {
		return fmt.Errorf("ending session %s: %w", id, err)
	}
	return sqliteAffected(res, "session", id)
}

func (t *sqliteTx) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, session_id, name, sort_order, created_at FROM exercises WHERE id = ?`, id.String())
	e, err := scanSQLiteExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying exercise %s: %w", id, err)
	}
	return e, nil
}

func (t *sqliteTx) ListExercises(ctx context.Context, sessionID uuid.UUID) ([]models.Exercise, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, name, sort_order, created_at FROM exercises WHERE session_id = ?`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		e, err := scanSQLiteExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (t *sqliteTx) InsertExercise(ctx context.Context, e models.Exercise) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO exercises (id, session_id, name, sort_order, created_at) VALUES (?,?,?,?,?)`,
		e.ID.String(), e.SessionID.String(), e.Name, e.Order, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

func (t *sqliteTx) SetExerciseOrder(ctx context.Context, id uuid.UUID, order int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE exercises SET sort_order = ? WHERE id = ?`, order, id.String())
	if err != nil {
		return fmt.Errorf("updating exercise order: %w", err)
	}
	return sqliteAffected(res, "exercise", id)
}

// DeleteExercise removes sets explicitly so the cascade does not depend on
// the foreign_keys pragma being set in the DSN.
func (t *sqliteTx) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM sets WHERE exercise_id = ?`, id.String()); err != nil {
		return fmt.Errorf("deleting exercise sets: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return sqliteAffected(res, "exercise", id)
}

func (t *sqliteTx) GetSet(ctx context.Context, id uuid.UUID) (*models.Set, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, exercise_id, reps, weight, sort_order, created_at FROM sets WHERE id = ?`, id.String())
	s, err := scanSQLiteSet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("set %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying set %s: %w", id, err)
	}
	return s, nil
}

func (t *sqliteTx) ListSets(ctx context.Context, exerciseID uuid.UUID) ([]models.Set, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, exercise_id, reps, weight, sort_order, created_at FROM sets WHERE exercise_id = ?`,
		exerciseID.String())
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.Set
	for rows.Next() {
		s, err := scanSQLiteSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (t *sqliteTx) InsertSet(ctx context.Context, s models.Set) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO sets (id, exercise_id, reps, weight, sort_order, created_at) VALUES (?,?,?,?,?,?)`,
		s.ID.String(), s.ExerciseID.String(), s.Reps, s.Weight, s.Order, s.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

func (t *sqliteTx) SetSetOrder(ctx context.Context, id uuid.UUID, order int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sets SET sort_order = ? WHERE id = ?`, order, id.String())
	if err != nil {
		return fmt.Errorf("updating set order: %w", err)
	}
	return sqliteAffected(res, "set", id)
}

func (t *sqliteTx) DeleteSet(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM sets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting set: %w", err)
	}
	return sqliteAffected(res, "set", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSession(row scanner) (*models.Session, error) {
	var (
		s     models.Session
		start int64
		end   sql.NullInt64
	)
	if err := row.Scan(&s.ID, &start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.StartDate = time.Unix(0, start)
	if end.Valid {
		e := time.Unix(0, end.Int64)
		s.EndDate = &e
	}
	return &s, nil
}

func scanSQLiteExercise(row scanner) (*models.Exercise, error) {
	var (
		e         models.Exercise
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.SessionID, &e.Name, &e.Order, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(0, createdAt)
	return &e, nil
}

func scanSQLiteSet(row scanner) (*models.Set, error) {
	var (
		s         models.Set
		createdAt int64
	)
	if err := row.Scan(&s.ID, &s.ExerciseID, &s.Reps, &s.Weight, &s.Order, &createdAt); err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(0, createdAt)
	return &s, nil
}

func sqliteAffected(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	return affected(n, what, id)
}
