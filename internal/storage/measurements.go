package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

const measurementColumns = `id, user_id, date, bodyweight, body_parts, notes, created_at`

func scanMeasurement(row Row) (models.Measurement, error) {
	var (
		m     models.Measurement
		parts *string
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Date, &m.Bodyweight, &parts, &m.Notes, &m.CreatedAt); err != nil {
		return m, err
	}
	if parts != nil && *parts != "" {
		if err := json.Unmarshal([]byte(*parts), &m.BodyParts); err != nil {
			return m, fmt.Errorf("decoding body parts of %s: %w", m.ID, err)
		}
	}
	return m, nil
}

// InsertMeasurement appends a bodyweight entry.
func (db *DB) InsertMeasurement(ctx context.Context, m models.Measurement) error {
	var parts *string
	if len(m.BodyParts) > 0 {
		b, err := json.Marshal(m.BodyParts)
		if err != nil {
			return fmt.Errorf("encoding body parts: %w", err)
		}
		s := string(b)
		parts = &s
	}
	_, err := db.q.Exec(ctx,
		`INSERT INTO measurements (`+measurementColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.UserID, utc(m.Date), m.Bodyweight, parts, m.Notes, utc(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	return nil
}

// ListMeasurements returns the user's entries newest first. Entries on the
// same date are ordered by insertion time, newest first.
func (db *DB) ListMeasurements(ctx context.Context, userID, limit int) ([]models.Measurement, error) {
	if limit <= 0 {
		limit = 365
	}
	rows, err := db.q.Query(ctx,
		`SELECT `+measurementColumns+` FROM measurements
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC, id
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var result []models.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// LatestMeasurement returns the newest entry for the user.
func (db *DB) LatestMeasurement(ctx context.Context, userID int) (models.Measurement, error) {
	m, err := scanMeasurement(db.q.QueryRow(ctx,
		`SELECT `+measurementColumns+` FROM measurements
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC, id
		 LIMIT 1`, userID))
	if errors.Is(err, models.ErrNotFound) {
		return m, models.NotFoundError("measurement", fmt.Sprintf("latest for user %d", userID))
	}
	if err != nil {
		return m, fmt.Errorf("querying latest measurement: %w", err)
	}
	return m, nil
}
