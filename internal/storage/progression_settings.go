package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// GetProgressionSettings returns the stored policy for a user.
// Returns an error matching models.ErrNotFound when none was saved.
func (db *DB) GetProgressionSettings(ctx context.Context, userID int) (models.ProgressionSettings, error) {
	var s models.ProgressionSettings
	err := db.q.QueryRow(ctx,
		`SELECT user_id, enable_progression, selected_model,
		 linear_weight_increment, linear_weight_condition,
		 linear_reps_increment, linear_reps_condition,
		 double_progression_rep_range, double_progression_weight_increment, double_progression_condition,
		 updated_at
		 FROM progression_settings WHERE user_id = $1`, userID).Scan(
		&s.UserID, &s.EnableProgression, &s.SelectedModel,
		&s.LinearWeightIncrement, &s.LinearWeightCondition,
		&s.LinearRepsIncrement, &s.LinearRepsCondition,
		&s.DoubleProgressionRepRange, &s.DoubleProgressionWeightIncrement, &s.DoubleProgressionCondition,
		&s.UpdatedAt)
	if errors.Is(err, models.ErrNotFound) {
		return s, models.NotFoundError("progression settings", fmt.Sprint(userID))
	}
	if err != nil {
		return s, fmt.Errorf("querying progression settings: %w", err)
	}
	return s, nil
}

// UpsertProgressionSettings stores the policy, replacing any previous one.
func (db *DB) UpsertProgressionSettings(ctx context.Context, s models.ProgressionSettings) error {
	_, err := db.q.Exec(ctx,
		`INSERT INTO progression_settings (user_id, enable_progression, selected_model,
		 linear_weight_increment, linear_weight_condition,
		 linear_reps_increment, linear_reps_condition,
		 double_progression_rep_range, double_progression_weight_increment, double_progression_condition,
		 updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (user_id) DO UPDATE SET
			enable_progression = excluded.enable_progression,
			selected_model = excluded.selected_model,
			linear_weight_increment = excluded.linear_weight_increment,
			linear_weight_condition = excluded.linear_weight_condition,
			linear_reps_increment = excluded.linear_reps_increment,
			linear_reps_condition = excluded.linear_reps_condition,
			double_progression_rep_range = excluded.double_progression_rep_range,
			double_progression_weight_increment = excluded.double_progression_weight_increment,
			double_progression_condition = excluded.double_progression_condition,
			updated_at = excluded.updated_at`,
		s.UserID, s.EnableProgression, string(s.SelectedModel),
		s.LinearWeightIncrement, s.LinearWeightCondition,
		s.LinearRepsIncrement, s.LinearRepsCondition,
		s.DoubleProgressionRepRange, s.DoubleProgressionWeightIncrement, s.DoubleProgressionCondition,
		utc(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting progression settings: %w", err)
	}
	return nil
}
