package importer

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/training"
)

const pushCSV = `"Push · Day 1";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;1
`

const pullCSV = `"Pull · Day 2";"2026-02-18 6:10 h";"0:58 hr"
"1. Barbell Row · Barbell · 8 reps"
#;KG;REPS;RIR
1;80;8;-1
2;80;8;-1
3;80;7;-1
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// exportDir lays out two good exports (one gzipped), an empty one, a broken
// one and a file that is not an export.
func exportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a-push.csv"), []byte(pushCSV))
	writeFile(t, filepath.Join(dir, "b-pull.csv.gz"), gzipped(t, pullCSV))
	writeFile(t, filepath.Join(dir, "c-empty.csv"), nil)
	writeFile(t, filepath.Join(dir, "d-broken.csv"), []byte("1;100;6;0\n"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte(pushCSV))
	return dir
}

func newTestImporter(t *testing.T, dryRun bool) (*Importer, *storage.DB, int) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(db.Close)
	uid, err := db.GetOrCreateUser(ctx, "lifter", "")
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := alpha.NewProvider(training.NewService(training.NewStore(db), log), log)
	return New(provider, db, log, dryRun), db, uid
}

// TestImportDirectory verifies per-file accounting and that broken files do
// not stop the rest of the import.
func TestImportDirectory(t *testing.T) {
	imp, db, uid := newTestImporter(t, false)
	ctx := context.Background()

	stats, err := imp.Import(ctx, exportDir(t), uid)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesProcessed != 2 || stats.FilesSkipped != 1 || stats.FilesErrored != 1 {
		t.Errorf("files = %d processed / %d skipped / %d errored, want 2/1/1",
			stats.FilesProcessed, stats.FilesSkipped, stats.FilesErrored)
	}
	if stats.SessionsInserted != 2 || stats.SetsInserted != 6 {
		t.Errorf("inserted = %d sessions / %d sets, want 2 / 6", stats.SessionsInserted, stats.SetsInserted)
	}

	logs, err := db.QueryImportLogs(ctx, uid, 10)
	if err != nil {
		t.Fatal(err)
	}
	// c-empty succeeds with zero counts, d-broken fails to parse.
	if len(logs) != 4 {
		t.Fatalf("import logs = %d, want 4", len(logs))
	}
	var failed int
	for _, l := range logs {
		if l.Source != Source {
			t.Errorf("log source = %q, want %q", l.Source, Source)
		}
		if l.Status == "error" {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed logs = %d, want 1", failed)
	}
}

// TestImportDryRun verifies that dry runs count without writing.
func TestImportDryRun(t *testing.T) {
	imp, db, uid := newTestImporter(t, true)
	ctx := context.Background()

	stats, err := imp.Import(ctx, exportDir(t), uid)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SessionsInserted != 2 || stats.SetsInserted != 6 {
		t.Errorf("counted = %d sessions / %d sets, want 2 / 6", stats.SessionsInserted, stats.SetsInserted)
	}
	data, err := db.GetDataStats(ctx, uid)
	if err != nil {
		t.Fatal(err)
	}
	if data.TotalSessions != 0 {
		t.Errorf("dry run wrote %d sessions", data.TotalSessions)
	}
}

// TestImportSingleFile verifies that a file path is imported directly even
// without a recognised extension.
func TestImportSingleFile(t *testing.T) {
	imp, _, uid := newTestImporter(t, false)
	path := filepath.Join(t.TempDir(), "export.txt")
	writeFile(t, path, []byte(pullCSV))

	stats, err := imp.Import(context.Background(), path, uid)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 1 || stats.SetsInserted != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestImportMissingPath verifies that a missing path is an error.
func TestImportMissingPath(t *testing.T) {
	imp, _, uid := newTestImporter(t, true)
	if _, err := imp.Import(context.Background(), filepath.Join(t.TempDir(), "nope"), uid); err == nil {
		t.Error("expected error for missing path")
	}
}
