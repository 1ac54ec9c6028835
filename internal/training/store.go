package training

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// Store is the persistence surface the engine needs. *storage.DB satisfies
// it through NewStore; tests use an in-memory fake.
type Store interface {
	CreateExercise(ctx context.Context, e models.Exercise) error
	GetExercise(ctx context.Context, id string) (models.Exercise, error)
	FindExerciseByName(ctx context.Context, name string) (models.Exercise, error)
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)

	CreateDefinition(ctx context.Context, d models.WorkoutDefinition) error
	GetDefinition(ctx context.Context, userID int, id string) (models.WorkoutDefinition, error)
	ListDefinitions(ctx context.Context, userID int, includePublic bool) ([]models.WorkoutDefinition, error)
	UpdateDefinition(ctx context.Context, d models.WorkoutDefinition) error
	DeleteDefinition(ctx context.Context, userID int, id string) error

	InsertSession(ctx context.Context, s models.WorkoutSession) error
	InsertSets(ctx context.Context, sets []models.RecordedSet) (int64, error)
	GetSession(ctx context.Context, userID int, id string) (models.WorkoutSession, []models.RecordedSet, error)
	ListSessions(ctx context.Context, userID int, f storage.SessionFilter) ([]models.SessionSummary, error)
	UpdateSessionNotes(ctx context.Context, userID int, id string, notes *string, difficulty *int) error
	DeleteSession(ctx context.Context, userID int, id string) error
	DeleteSessionsAt(ctx context.Context, userID int, start time.Time, name string) (int64, error)
	ExerciseHistory(ctx context.Context, userID int, exerciseID string, limit int) ([]models.ExerciseHistory, error)

	UpsertPersonalBest(ctx context.Context, pb models.PersonalBest) (bool, error)
	GetPersonalBest(ctx context.Context, userID int, exerciseID string, recordType models.RecordType) (models.PersonalBest, error)
	ListPersonalBests(ctx context.Context, userID int, exerciseID string) ([]models.PersonalBest, error)

	InsertMeasurement(ctx context.Context, m models.Measurement) error
	ListMeasurements(ctx context.Context, userID, limit int) ([]models.Measurement, error)
	LatestMeasurement(ctx context.Context, userID int) (models.Measurement, error)

	GetProgressionSettings(ctx context.Context, userID int) (models.ProgressionSettings, error)
	UpsertProgressionSettings(ctx context.Context, s models.ProgressionSettings) error

	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

// Transactor is implemented by stores that can run several writes as one
// unit. Stores without it get compensating deletes instead.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type dbStore struct {
	*storage.DB
}

// NewStore adapts a storage.DB to Store and Transactor.
func NewStore(db *storage.DB) Store {
	return dbStore{db}
}

func (s dbStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithTx(ctx, func(tx *storage.DB) error {
		return fn(dbStore{tx})
	})
}
