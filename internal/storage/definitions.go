package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

const definitionColumns = `id, user_id, name, type, is_public, created_at, updated_at`

func scanDefinition(row Row) (models.WorkoutDefinition, error) {
	var d models.WorkoutDefinition
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// CreateDefinition inserts a definition header and its prescriptions in one
// transaction.
func (db *DB) CreateDefinition(ctx context.Context, d models.WorkoutDefinition) error {
	return db.WithTx(ctx, func(tx *DB) error {
		_, err := tx.q.Exec(ctx,
			`INSERT INTO workout_definitions (`+definitionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			d.ID, d.UserID, d.Name, d.Type, d.IsPublic, utc(d.CreatedAt), utc(d.UpdatedAt))
		if err != nil {
			return fmt.Errorf("inserting definition %q: %w", d.Name, err)
		}
		return tx.insertPrescriptions(ctx, d.ID, d.Exercises)
	})
}

func (db *DB) insertPrescriptions(ctx context.Context, definitionID string, ps []models.ExercisePrescription) error {
	for _, p := range ps {
		_, err := db.q.Exec(ctx,
			`INSERT INTO definition_exercises (definition_id, order_index, exercise_id,
			 default_sets, default_reps, default_rest_seconds, target_rpe, notes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			definitionID, p.OrderIndex, p.ExerciseID,
			p.DefaultSets, p.DefaultReps, p.DefaultRestSeconds, p.TargetRPE, p.Notes)
		if err != nil {
			return fmt.Errorf("inserting prescription %d of definition %s: %w", p.OrderIndex, definitionID, err)
		}
	}
	return nil
}

func (db *DB) loadPrescriptions(ctx context.Context, definitionID string) ([]models.ExercisePrescription, error) {
	rows, err := db.q.Query(ctx,
		`SELECT de.exercise_id, e.name, de.order_index, de.default_sets, de.default_reps,
		 de.default_rest_seconds, de.target_rpe, de.notes
		 FROM definition_exercises de
		 JOIN exercises e ON e.id = de.exercise_id
		 WHERE de.definition_id = $1
		 ORDER BY de.order_index`, definitionID)
	if err != nil {
		return nil, fmt.Errorf("querying prescriptions: %w", err)
	}
	defer rows.Close()

	result := []models.ExercisePrescription{}
	for rows.Next() {
		var p models.ExercisePrescription
		if err := rows.Scan(&p.ExerciseID, &p.ExerciseName, &p.OrderIndex, &p.DefaultSets,
			&p.DefaultReps, &p.DefaultRestSeconds, &p.TargetRPE, &p.Notes); err != nil {
			return nil, fmt.Errorf("scanning prescription: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetDefinition returns a definition with its prescriptions in order. Only
// the owner can see a private definition.
func (db *DB) GetDefinition(ctx context.Context, userID int, id string) (models.WorkoutDefinition, error) {
	d, err := scanDefinition(db.q.QueryRow(ctx,
		`SELECT `+definitionColumns+` FROM workout_definitions
		 WHERE id = $1 AND (user_id = $2 OR is_public)`, id, userID))
	if errors.Is(err, models.ErrNotFound) {
		return d, models.NotFoundError("workout definition", id)
	}
	if err != nil {
		return d, fmt.Errorf("querying definition %s: %w", id, err)
	}
	d.Exercises, err = db.loadPrescriptions(ctx, id)
	if err != nil {
		return d, err
	}
	return d, nil
}

// ListDefinitions returns the user's definitions, plus other users' public
// ones when includePublic is set. Prescriptions are not loaded.
func (db *DB) ListDefinitions(ctx context.Context, userID int, includePublic bool) ([]models.WorkoutDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM workout_definitions WHERE user_id = $1`
	if includePublic {
		query += ` OR is_public`
	}
	query += ` ORDER BY name, id`

	rows, err := db.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying definitions: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning definition: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// UpdateDefinition replaces the header fields and the full prescription list
// of a definition owned by d.UserID.
func (db *DB) UpdateDefinition(ctx context.Context, d models.WorkoutDefinition) error {
	return db.WithTx(ctx, func(tx *DB) error {
		n, err := tx.q.Exec(ctx,
			`UPDATE workout_definitions SET name = $3, type = $4, is_public = $5, updated_at = $6
			 WHERE id = $1 AND user_id = $2`,
			d.ID, d.UserID, d.Name, d.Type, d.IsPublic, utc(d.UpdatedAt))
		if err != nil {
			return fmt.Errorf("updating definition %s: %w", d.ID, err)
		}
		if n == 0 {
			return models.NotFoundError("workout definition", d.ID)
		}
		if _, err := tx.q.Exec(ctx, `DELETE FROM definition_exercises WHERE definition_id = $1`, d.ID); err != nil {
			return fmt.Errorf("clearing prescriptions of %s: %w", d.ID, err)
		}
		return tx.insertPrescriptions(ctx, d.ID, d.Exercises)
	})
}

// DeleteDefinition removes a definition owned by the user. Sessions recorded
// from it keep their denormalized names.
func (db *DB) DeleteDefinition(ctx context.Context, userID int, id string) error {
	n, err := db.q.Exec(ctx, `DELETE FROM workout_definitions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting definition %s: %w", id, err)
	}
	if n == 0 {
		return models.NotFoundError("workout definition", id)
	}
	return nil
}
