package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/claude/gainz/internal/ingest"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	ingest.Result
}

// Ingester turns one export stream into stored sessions.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error)
	Preview(ctx context.Context, r io.Reader) (*ingest.Result, error)
}

// Importer feeds every Alpha Progression export under a directory to an Ingester.
type Importer struct {
	ingester Ingester
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. In dry-run mode files are parsed and counted
// but nothing is written.
func New(ingester Ingester, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ingester: ingester, log: log, dryRun: dryRun}
}

// IsExport reports whether name looks like an export file (.csv or .csv.gz).
func IsExport(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz")
}

// Import walks root in lexical order and imports each export found. A file
// that fails to read or parse is counted and skipped.
func (imp *Importer) Import(ctx context.Context, root string) (*Stats, error) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !IsExport(d.Name()) {
			imp.stats.FilesSkipped++
			return nil
		}
		return imp.importFile(ctx, path)
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("walking %s: %w", root, err)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	rc, err := openExport(path)
	if err != nil {
		imp.log.Warn("open failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	defer rc.Close()

	run := imp.ingester.Ingest
	if imp.dryRun {
		run = imp.ingester.Preview
	}
	result, err := run(ctx, rc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		imp.log.Warn("import failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		imp.stats.Add(result)
		return nil
	}

	imp.stats.FilesProcessed++
	imp.stats.Add(result)
	imp.log.Info("imported file", "file", filepath.Base(path),
		"sessions", result.SessionsImported, "skipped", result.SessionsSkipped)
	return nil
}
