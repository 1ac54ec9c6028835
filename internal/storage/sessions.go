package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
)

const sessionColumns = `s.id, s.user_id, s.definition_id, s.workout_name, s.workout_type,
	s.start_time, s.end_time, s.total_time_seconds, s.difficulty_rating, s.notes,
	s.calculated_total_volume, s.created_at`

const setColumns = `id, session_id, exercise_id, exercise_name, set_number,
	weight, reps, rpe, duration_seconds, distance, notes`

func sessionDest(s *models.WorkoutSession) []any {
	return []any{&s.ID, &s.UserID, &s.DefinitionID, &s.WorkoutName, &s.WorkoutType,
		&s.StartTime, &s.EndTime, &s.TotalTimeSeconds, &s.DifficultyRating, &s.Notes,
		&s.CalculatedTotalVolume, &s.CreatedAt}
}

// SessionFilter narrows ListSessions. Zero values mean unbounded.
type SessionFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// InsertSession inserts a closed session header.
func (db *DB) InsertSession(ctx context.Context, s models.WorkoutSession) error {
	_, err := db.q.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, definition_id, workout_name, workout_type,
		 start_time, end_time, total_time_seconds, difficulty_rating, notes,
		 calculated_total_volume, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		s.ID, s.UserID, s.DefinitionID, s.WorkoutName, s.WorkoutType,
		utc(s.StartTime), utc(s.EndTime), s.TotalTimeSeconds, s.DifficultyRating, s.Notes,
		s.CalculatedTotalVolume, utc(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", s.ID, err)
	}
	return nil
}

// setInsertBatch caps rows per INSERT statement. At 12 parameters a row it
// stays below the SQLite and PostgreSQL bind-parameter limits.
var setInsertBatch = 1000

// InsertSets batch-inserts recorded sets, setInsertBatch rows per statement.
// Slice order is kept as the display order. Returns count inserted.
func (db *DB) InsertSets(ctx context.Context, sets []models.RecordedSet) (int64, error) {
	var total int64
	for start := 0; start < len(sets); start += setInsertBatch {
		end := min(start+setInsertBatch, len(sets))
		n, err := db.insertSetBatch(ctx, sets[start:end], start)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// insertSetBatch inserts one statement's worth of sets. offset is the
// position of batch[0] within the session.
func (db *DB) insertSetBatch(ctx context.Context, batch []models.RecordedSet, offset int) (int64, error) {
	const cols = 12
	query := `INSERT INTO recorded_sets (` + setColumns + `, position) VALUES `
	args := make([]any, 0, len(batch)*cols)
	valueStrings := make([]string, 0, len(batch))

	for i, r := range batch {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11, base+12,
		))
		args = append(args, r.ID, r.SessionID, r.ExerciseID, r.ExerciseName, r.SetNumber,
			r.Weight, r.Reps, r.RPE, r.DurationSeconds, r.Distance, r.Notes, offset+i)
	}

	n, err := db.q.Exec(ctx, query+strings.Join(valueStrings, ","), args...)
	if err != nil {
		return 0, fmt.Errorf("inserting recorded sets %d-%d: %w", offset, offset+len(batch)-1, err)
	}
	return n, nil
}

// GetSession returns a session header owned by the user along with all of
// its sets in recorded order.
func (db *DB) GetSession(ctx context.Context, userID int, id string) (models.WorkoutSession, []models.RecordedSet, error) {
	var s models.WorkoutSession
	err := db.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions s WHERE s.id = $1 AND s.user_id = $2`,
		id, userID).Scan(sessionDest(&s)...)
	if errors.Is(err, models.ErrNotFound) {
		return s, nil, models.NotFoundError("session", id)
	}
	if err != nil {
		return s, nil, fmt.Errorf("querying session %s: %w", id, err)
	}

	sets, err := db.querySets(ctx,
		`SELECT `+setColumns+` FROM recorded_sets WHERE session_id = $1 ORDER BY position`, id)
	if err != nil {
		return s, nil, err
	}
	return s, sets, nil
}

func (db *DB) querySets(ctx context.Context, query string, args ...any) ([]models.RecordedSet, error) {
	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recorded sets: %w", err)
	}
	defer rows.Close()

	result := []models.RecordedSet{}
	for rows.Next() {
		var r models.RecordedSet
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ExerciseID, &r.ExerciseName, &r.SetNumber,
			&r.Weight, &r.Reps, &r.RPE, &r.DurationSeconds, &r.Distance, &r.Notes); err != nil {
			return nil, fmt.Errorf("scanning recorded set: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ListSessions returns session summaries for a user, newest first.
func (db *DB) ListSessions(ctx context.Context, userID int, f SessionFilter) ([]models.SessionSummary, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + sessionColumns + `, COUNT(DISTINCT r.exercise_id), COUNT(r.id)
		FROM workout_sessions s
		LEFT JOIN recorded_sets r ON r.session_id = s.id
		WHERE s.user_id = $1`)
	args := []any{userID}
	if f.From != nil {
		args = append(args, utc(*f.From))
		fmt.Fprintf(&b, " AND s.start_time >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, utc(*f.To))
		fmt.Fprintf(&b, " AND s.start_time < $%d", len(args))
	}
	b.WriteString(" GROUP BY s.id ORDER BY s.start_time DESC, s.id")
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))

	rows, err := db.q.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		dest := append(sessionDest(&s.WorkoutSession), &s.ExerciseCount, &s.SetCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// UpdateSessionNotes replaces the two mutable fields of a closed session.
func (db *DB) UpdateSessionNotes(ctx context.Context, userID int, id string, notes *string, difficulty *int) error {
	n, err := db.q.Exec(ctx,
		`UPDATE workout_sessions SET notes = $3, difficulty_rating = $4 WHERE id = $1 AND user_id = $2`,
		id, userID, notes, difficulty)
	if err != nil {
		return fmt.Errorf("updating session %s: %w", id, err)
	}
	if n == 0 {
		return models.NotFoundError("session", id)
	}
	return nil
}

// DeleteSession removes a session owned by the user; its sets cascade.
func (db *DB) DeleteSession(ctx context.Context, userID int, id string) error {
	n, err := db.q.Exec(ctx, `DELETE FROM workout_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n == 0 {
		return models.NotFoundError("session", id)
	}
	return nil
}

// DeleteSessionsAt removes every session of the user that started at start
// with the given workout name. Used to make re-imports replace earlier copies.
func (db *DB) DeleteSessionsAt(ctx context.Context, userID int, start time.Time, name string) (int64, error) {
	n, err := db.q.Exec(ctx,
		`DELETE FROM workout_sessions WHERE user_id = $1 AND start_time = $2 AND workout_name = $3`,
		userID, utc(start), name)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions at %s: %w", start.Format(time.RFC3339), err)
	}
	return n, nil
}

// ExerciseHistory returns up to limit of the user's most recently closed
// sessions that contain the exercise, newest first, each with only that
// exercise's sets.
func (db *DB) ExerciseHistory(ctx context.Context, userID int, exerciseID string, limit int) ([]models.ExerciseHistory, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := db.q.Query(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions s
		 WHERE s.user_id = $1
		   AND EXISTS (SELECT 1 FROM recorded_sets r WHERE r.session_id = s.id AND r.exercise_id = $2)
		 ORDER BY s.end_time DESC, s.id
		 LIMIT $3`, userID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}

	var history []models.ExerciseHistory
	for rows.Next() {
		var h models.ExerciseHistory
		if err := rows.Scan(sessionDest(&h.Session)...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		history = append(history, h)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating exercise history: %w", err)
	}

	for i := range history {
		history[i].Sets, err = db.querySets(ctx,
			`SELECT `+setColumns+` FROM recorded_sets
			 WHERE session_id = $1 AND exercise_id = $2 ORDER BY position`,
			history[i].Session.ID, exerciseID)
		if err != nil {
			return nil, err
		}
	}
	return history, nil
}
