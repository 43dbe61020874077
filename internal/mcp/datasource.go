package mcp

import (
	"context"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/storage"
	"github.com/claude/gainz/internal/workout"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both Local and
// HTTPClient (remote via REST API) satisfy this interface. Lookups that
// find nothing return an error wrapping workout.ErrNotFound.
type DataSource interface {
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error)
	ActiveSession(ctx context.Context) (*models.SessionDetail, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// ImportLogs lists recorded import runs.
type ImportLogs interface {
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// Local reads straight from the service and the store's import log.
type Local struct {
	*workout.Service
	Logs ImportLogs
}

// Compile-time checks.
var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*HTTPClient)(nil)
)

// NewLocal returns a DataSource over an in-process service.
func NewLocal(svc *workout.Service, logs ImportLogs) *Local {
	return &Local{Service: svc, Logs: logs}
}

func (l *Local) QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error) {
	return l.Logs.QueryImportLogs(ctx, limit)
}
