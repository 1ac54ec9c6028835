package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
)

// Source is the import_logs source of file imports.
const Source = "alpha_file"

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsInserted int
	SetsInserted     int64
	PersonalBests    int
}

// Importer reads Alpha Progression exports from disk and records them.
type Importer struct {
	provider *alpha.Provider
	logs     ingest.LogStore
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. logs may be nil, in which case no import_logs
// rows are written.
func New(provider *alpha.Provider, logs ingest.LogStore, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{provider: provider, logs: logs, log: log, dryRun: dryRun}
}

// Import processes path, which is either one export or a directory of
// *.csv and *.csv.gz exports imported in name order. A failing file is
// counted and logged; the rest are still imported.
func (imp *Importer) Import(ctx context.Context, path string, userID int) (*Stats, error) {
	files, err := exportFiles(path)
	if err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f, userID); err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
			imp.stats.FilesErrored++
		}
	}
	return &imp.stats, nil
}

func exportFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || !(strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz")) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, userID int) error {
	rc, err := openExport(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	if imp.dryRun {
		return imp.countFile(rc, path)
	}

	began := time.Now()
	res, err := imp.provider.Ingest(ctx, rc, userID)
	if imp.logs != nil {
		ingest.RecordImport(imp.logs, imp.log, userID, Source, res, err, time.Since(began))
	}
	if res != nil {
		imp.stats.SessionsInserted += res.SessionsInserted
		imp.stats.SetsInserted += res.SetsInserted
		imp.stats.PersonalBests += res.PersonalBests
	}
	if err != nil {
		return err
	}
	if res.SessionsReceived == 0 {
		imp.stats.FilesSkipped++
		return nil
	}
	imp.stats.FilesProcessed++
	imp.log.Info("imported", "file", filepath.Base(path), "sessions", res.SessionsInserted, "sets", res.SetsInserted)
	return nil
}

// countFile parses without writing and counts what would be imported.
func (imp *Importer) countFile(r io.Reader, path string) error {
	sessions, err := alpha.Parse(r)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		imp.stats.FilesSkipped++
		return nil
	}
	imp.stats.FilesProcessed++
	for _, s := range sessions {
		imp.stats.SessionsInserted++
		for _, ex := range s.Exercises {
			imp.stats.SetsInserted += int64(len(ex.Sets))
		}
	}
	imp.log.Info("parsed", "file", filepath.Base(path), "sessions", len(sessions))
	return nil
}
