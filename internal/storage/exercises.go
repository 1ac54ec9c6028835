package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

const exerciseColumns = `id, name, category, instructions, video_url, created_by, created_at`

func scanExercise(row Row) (models.Exercise, error) {
	var e models.Exercise
	err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Instructions, &e.VideoURL, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

// CreateExercise inserts a catalog entry. A duplicate name (case-insensitive)
// surfaces as a models.ConstraintError.
func (db *DB) CreateExercise(ctx context.Context, e models.Exercise) error {
	_, err := db.q.Exec(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Name, e.Category, e.Instructions, e.VideoURL, e.CreatedBy, utc(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting exercise %q: %w", e.Name, err)
	}
	return nil
}

// GetExercise returns one exercise by id.
func (db *DB) GetExercise(ctx context.Context, id string) (models.Exercise, error) {
	e, err := scanExercise(db.q.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if errors.Is(err, models.ErrNotFound) {
		return e, models.NotFoundError("exercise", id)
	}
	if err != nil {
		return e, fmt.Errorf("querying exercise %s: %w", id, err)
	}
	return e, nil
}

// FindExerciseByName looks an exercise up by case-insensitive name.
func (db *DB) FindExerciseByName(ctx context.Context, name string) (models.Exercise, error) {
	e, err := scanExercise(db.q.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE lower(name) = lower($1)`, name))
	if errors.Is(err, models.ErrNotFound) {
		return e, models.NotFoundError("exercise", name)
	}
	if err != nil {
		return e, fmt.Errorf("querying exercise %q: %w", name, err)
	}
	return e, nil
}

// ListExercises returns global exercises plus those created by the user,
// ordered by name.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.q.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE created_by IS NULL OR created_by = $1
		 ORDER BY lower(name)`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
