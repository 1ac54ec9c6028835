package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/training"
)

// DataSource abstracts the data layer for MCP tools. Both *training.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, userID int, f storage.SessionFilter) ([]models.SessionSummary, error)
	GetSession(ctx context.Context, userID int, id string) (models.SessionDetail, error)
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	ListPersonalBests(ctx context.Context, userID int, exerciseID string) ([]models.PersonalBest, error)
	SuggestProgression(ctx context.Context, userID int, exerciseID, targetReps string) (*training.Suggestion, error)
	GetProgressionSettings(ctx context.Context, userID int) (models.ProgressionSettings, error)
	ListMeasurements(ctx context.Context, userID, limit int) ([]models.Measurement, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

// Compile-time check: *training.Service satisfies DataSource.
var _ DataSource = (*training.Service)(nil)
