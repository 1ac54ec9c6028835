package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/storage"
)

// LogStore persists import bookkeeping.
type LogStore interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// RecordImport writes one import_logs row for a finished import. result may
// be nil when the import failed before producing counts. Failures to write
// the row are logged and otherwise ignored.
func RecordImport(store LogStore, log *slog.Logger, userID int, source string, result *Result, importErr error, elapsed time.Duration) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}
	ms := int(elapsed.Milliseconds())

	entry := storage.ImportLog{
		UserID:       userID,
		Source:       source,
		Status:       status,
		DurationMs:   &ms,
		ErrorMessage: errMsg,
	}
	if result != nil {
		entry.SessionsReceived = result.SessionsReceived
		entry.SessionsInserted = result.SessionsInserted
		entry.SetsInserted = result.SetsInserted
		entry.PersonalBests = result.PersonalBests
	}

	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := store.InsertImportLog(ctx, entry); err != nil {
		log.Error("failed to log import", "source", source, "error", err)
	}
}
