package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/gainz/internal/ingest"
	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/storage"
	"github.com/claude/gainz/internal/workout"
)

// Source identifies Alpha Progression rows in the import log.
const Source = "alpha_csv"

// Weight units accepted by NewProvider.
const (
	UnitLbs = "lbs"
	UnitKg  = "kg"
)

const lbsPerKg = 2.20462

// Importer is the part of the workout service the provider writes through.
type Importer interface {
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	ImportSession(ctx context.Context, in models.ImportedSession) (*models.Session, error)
}

// ImportLogger records the outcome of each ingest run.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// Provider imports Alpha Progression CSV exports as finished sessions.
type Provider struct {
	svc  Importer
	logs ImportLogger
	unit string
	log  *slog.Logger
}

// NewProvider creates a provider storing weights in unit (UnitLbs or UnitKg).
// logs may be nil to skip import logging.
func NewProvider(svc Importer, logs ImportLogger, unit string, log *slog.Logger) *Provider {
	if unit != UnitKg {
		unit = UnitLbs
	}
	return &Provider{svc: svc, logs: logs, unit: unit, log: log}
}

// Ingest parses an export and imports every session not already stored.
// A session counts as stored when one with the same start date exists.
// Warmup sets are dropped; working sets keep their file order.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	started := time.Now()
	result := &ingest.Result{}
	result.LogID = p.startLog(ctx)

	err := p.ingest(ctx, r, result)
	p.finishLog(result, err, time.Since(started))
	return result, err
}

// Preview parses an export and reports what Ingest would import without
// writing anything.
func (p *Provider) Preview(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	result := &ingest.Result{SessionsReceived: len(sessions)}
	for _, s := range sessions {
		dup, err := p.exists(ctx, s.Date)
		if err != nil {
			return nil, err
		}
		if dup {
			result.SessionsSkipped++
			continue
		}
		result.SessionsImported++
		result.SetsImported += countSets(p.convert(s))
	}
	return result, nil
}

func (p *Provider) ingest(ctx context.Context, r io.Reader, result *ingest.Result) error {
	sessions, err := Parse(r)
	if err != nil {
		return fmt.Errorf("parsing CSV: %w", err)
	}
	result.SessionsReceived = len(sessions)

	for _, s := range sessions {
		dup, err := p.exists(ctx, s.Date)
		if err != nil {
			return err
		}
		if dup {
			result.SessionsSkipped++
			p.log.Debug("skipping imported session", "date", s.Date, "name", s.Name)
			continue
		}

		in := p.convert(s)
		if _, err := p.svc.ImportSession(ctx, in); err != nil {
			return fmt.Errorf("importing session %s: %w", s.Date.Format("2006-01-02 15:04"), err)
		}
		result.SessionsImported++
		result.SetsImported += countSets(in)
	}

	p.log.Info("alpha import complete",
		"received", result.SessionsReceived,
		"imported", result.SessionsImported,
		"skipped", result.SessionsSkipped,
		"sets", result.SetsImported)
	return nil
}

func (p *Provider) exists(ctx context.Context, date time.Time) (bool, error) {
	existing, err := p.svc.ListSessions(ctx, date, date.Add(time.Minute))
	if err != nil {
		return false, fmt.Errorf("checking for session at %s: %w", date.Format(time.RFC3339), err)
	}
	for _, e := range existing {
		if e.StartDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

// convert maps a parsed session onto the import shape. An unreadable
// duration leaves the session with zero length.
func (p *Provider) convert(s models.AlphaSession) models.ImportedSession {
	end := s.Date
	if d, err := parseDuration(s.Duration); err == nil {
		end = s.Date.Add(d)
	} else {
		p.log.Warn("unreadable session duration", "date", s.Date, "duration", s.Duration)
	}

	in := models.ImportedSession{Name: s.Name, StartDate: s.Date, EndDate: end}
	for _, ex := range s.Exercises {
		ie := models.ImportedExercise{Name: ex.Name}
		for _, set := range ex.Sets {
			if set.IsWarmup {
				continue
			}
			ie.Sets = append(ie.Sets, models.ImportedSet{
				Reps:   int32(set.Reps),
				Weight: p.weight(set.WeightKg),
			})
		}
		in.Exercises = append(in.Exercises, ie)
	}
	return in
}

func (p *Provider) weight(kg float64) float64 {
	if p.unit == UnitKg {
		return kg
	}
	return kg * lbsPerKg
}

func countSets(in models.ImportedSession) int {
	n := 0
	for _, ex := range in.Exercises {
		n += len(ex.Sets)
	}
	return n
}

func (p *Provider) startLog(ctx context.Context) int64 {
	if p.logs == nil {
		return 0
	}
	id, err := p.logs.InsertImportLog(ctx, storage.ImportLog{Source: Source, Status: storage.ImportRunning})
	if err != nil {
		p.log.Error("failed to create import log", "error", err)
		return 0
	}
	return id
}

func (p *Provider) finishLog(result *ingest.Result, importErr error, elapsed time.Duration) {
	if p.logs == nil || result.LogID == 0 {
		return
	}
	status := storage.ImportSuccess
	var errMsg *string
	if importErr != nil {
		status = storage.ImportError
		msg := importErr.Error()
		errMsg = &msg
	}
	durationMs := int(elapsed.Milliseconds())

	// The request context may already be canceled when an import fails.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.logs.UpdateImportLog(ctx, result.LogID, storage.ImportLog{
		Status:           status,
		SessionsReceived: result.SessionsReceived,
		SessionsImported: result.SessionsImported,
		SessionsSkipped:  result.SessionsSkipped,
		SetsImported:     result.SetsImported,
		DurationMs:       &durationMs,
		ErrorMessage:     errMsg,
	}); err != nil {
		p.log.Error("failed to finalize import log", "log_id", result.LogID, "error", err)
	}
}

var _ Importer = (*workout.Service)(nil)
