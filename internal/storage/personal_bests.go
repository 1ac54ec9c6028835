package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

const personalBestColumns = `id, user_id, exercise_id, exercise_name, record_type,
	weight, reps, time_seconds, distance, score, date_achieved, session_id, notes, updated_at`

func scanPersonalBest(row Row) (models.PersonalBest, error) {
	var pb models.PersonalBest
	err := row.Scan(&pb.ID, &pb.UserID, &pb.ExerciseID, &pb.ExerciseName, &pb.RecordType,
		&pb.Weight, &pb.Reps, &pb.TimeSeconds, &pb.Distance, &pb.Score, &pb.DateAchieved,
		&pb.SessionID, &pb.Notes, &pb.UpdatedAt)
	return pb, err
}

// UpsertPersonalBest writes pb when no record exists for its
// (user, exercise, record type) key or when pb.Score strictly beats the
// stored score. The comparison runs inside the statement, so concurrent
// writers to one key cannot both win. Returns true if a row was written.
func (db *DB) UpsertPersonalBest(ctx context.Context, pb models.PersonalBest) (bool, error) {
	op := ">"
	if pb.RecordType.LowerIsBetter() {
		op = "<"
	}
	n, err := db.q.Exec(ctx,
		`INSERT INTO personal_bests (`+personalBestColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 ON CONFLICT (user_id, exercise_id, record_type) DO UPDATE SET
			exercise_name = excluded.exercise_name,
			weight = excluded.weight,
			reps = excluded.reps,
			time_seconds = excluded.time_seconds,
			distance = excluded.distance,
			score = excluded.score,
			date_achieved = excluded.date_achieved,
			session_id = excluded.session_id,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		 WHERE excluded.score `+op+` personal_bests.score`,
		pb.ID, pb.UserID, pb.ExerciseID, pb.ExerciseName, string(pb.RecordType),
		pb.Weight, pb.Reps, pb.TimeSeconds, pb.Distance, pb.Score, utc(pb.DateAchieved),
		pb.SessionID, pb.Notes, utc(pb.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("upserting %s personal best for %s: %w", pb.RecordType, pb.ExerciseID, err)
	}
	return n > 0, nil
}

// GetPersonalBest returns the live record for one natural key.
func (db *DB) GetPersonalBest(ctx context.Context, userID int, exerciseID string, recordType models.RecordType) (models.PersonalBest, error) {
	pb, err := scanPersonalBest(db.q.QueryRow(ctx,
		`SELECT `+personalBestColumns+` FROM personal_bests
		 WHERE user_id = $1 AND exercise_id = $2 AND record_type = $3`,
		userID, exerciseID, string(recordType)))
	if errors.Is(err, models.ErrNotFound) {
		return pb, models.NotFoundError("personal best", exerciseID+"/"+string(recordType))
	}
	if err != nil {
		return pb, fmt.Errorf("querying personal best: %w", err)
	}
	return pb, nil
}

// ListPersonalBests returns the user's records, optionally for one exercise.
func (db *DB) ListPersonalBests(ctx context.Context, userID int, exerciseID string) ([]models.PersonalBest, error) {
	query := `SELECT ` + personalBestColumns + ` FROM personal_bests WHERE user_id = $1`
	args := []any{userID}
	if exerciseID != "" {
		query += ` AND exercise_id = $2`
		args = append(args, exerciseID)
	}
	query += ` ORDER BY exercise_name, record_type`

	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying personal bests: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalBest
	for rows.Next() {
		pb, err := scanPersonalBest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning personal best: %w", err)
		}
		result = append(result, pb)
	}
	return result, rows.Err()
}
