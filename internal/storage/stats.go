package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored data.
type DataStats struct {
	TotalSessions     int64             `json:"total_sessions"`
	TotalSets         int64             `json:"total_sets"`
	TotalPersonalBest int64             `json:"total_personal_bests"`
	TotalMeasurements int64             `json:"total_measurements"`
	EarliestSession   *time.Time        `json:"earliest_session"`
	LatestSession     *time.Time        `json:"latest_session"`
	SessionsByWorkout []WorkoutNameStat `json:"sessions_by_workout"`
}

// WorkoutNameStat holds summary stats for sessions sharing a workout name.
type WorkoutNameStat struct {
	Name          string  `json:"name"`
	Count         int64   `json:"count"`
	TotalDuration int64   `json:"total_duration_sec"`
	TotalVolume   float64 `json:"total_volume"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	counts := []struct {
		query string
		dest  *int64
		what  string
	}{
		{`SELECT COUNT(*) FROM workout_sessions WHERE user_id = $1`, &stats.TotalSessions, "sessions"},
		{`SELECT COUNT(*) FROM recorded_sets r JOIN workout_sessions s ON s.id = r.session_id WHERE s.user_id = $1`, &stats.TotalSets, "sets"},
		{`SELECT COUNT(*) FROM personal_bests WHERE user_id = $1`, &stats.TotalPersonalBest, "personal bests"},
		{`SELECT COUNT(*) FROM measurements WHERE user_id = $1`, &stats.TotalMeasurements, "measurements"},
	}
	for _, c := range counts {
		if err := db.q.QueryRow(ctx, c.query, userID).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.what, err)
		}
	}

	if stats.TotalSessions > 0 {
		var earliest, latest time.Time
		err := db.q.QueryRow(ctx,
			`SELECT start_time FROM workout_sessions WHERE user_id = $1 ORDER BY start_time ASC LIMIT 1`,
			userID).Scan(&earliest)
		if err != nil {
			return nil, fmt.Errorf("querying earliest session: %w", err)
		}
		err = db.q.QueryRow(ctx,
			`SELECT start_time FROM workout_sessions WHERE user_id = $1 ORDER BY start_time DESC LIMIT 1`,
			userID).Scan(&latest)
		if err != nil {
			return nil, fmt.Errorf("querying latest session: %w", err)
		}
		stats.EarliestSession = &earliest
		stats.LatestSession = &latest
	}

	rows, err := db.q.Query(ctx,
		`SELECT workout_name, COUNT(*), CAST(COALESCE(SUM(total_time_seconds), 0) AS BIGINT), COALESCE(SUM(calculated_total_volume), 0)
		 FROM workout_sessions
		 WHERE user_id = $1
		 GROUP BY workout_name
		 ORDER BY COUNT(*) DESC, workout_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by workout: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s WorkoutNameStat
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalDuration, &s.TotalVolume); err != nil {
			return nil, fmt.Errorf("scanning workout stat: %w", err)
		}
		stats.SessionsByWorkout = append(stats.SessionsByWorkout, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
