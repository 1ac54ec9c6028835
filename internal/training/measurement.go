package training

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// MeasurementInput is one bodyweight entry. A zero Date means today.
type MeasurementInput struct {
	Date       time.Time          `json:"date"`
	Bodyweight string             `json:"bodyweight"`
	BodyParts  map[string]float64 `json:"body_parts,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
}

// RecordMeasurement appends an entry. Bodyweight must read as a positive
// number and is stored as entered. Several entries per date are kept.
func (s *Service) RecordMeasurement(ctx context.Context, userID int, in MeasurementInput) (models.Measurement, error) {
	bw := strings.TrimSpace(in.Bodyweight)
	if v, ok := ParseQuantity(bw); !ok || v <= 0 {
		return models.Measurement{}, models.Invalid("bodyweight", "must be a positive number, got %q", in.Bodyweight)
	}
	for part, v := range in.BodyParts {
		if strings.TrimSpace(part) == "" {
			return models.Measurement{}, models.Invalid("body_parts", "empty body part name")
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Measurement{}, models.Invalid("body_parts", "%s: invalid value %v", part, v)
		}
	}

	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	m := models.Measurement{
		ID:         s.newID(),
		UserID:     userID,
		Date:       date,
		Bodyweight: bw,
		BodyParts:  in.BodyParts,
		Notes:      in.Notes,
		CreatedAt:  now,
	}
	if err := s.store.InsertMeasurement(ctx, m); err != nil {
		return models.Measurement{}, err
	}
	return m, nil
}

// ListMeasurements returns the user's entries newest first.
func (s *Service) ListMeasurements(ctx context.Context, userID, limit int) ([]models.Measurement, error) {
	return s.store.ListMeasurements(ctx, userID, limit)
}

// LatestMeasurement returns the newest entry.
func (s *Service) LatestMeasurement(ctx context.Context, userID int) (models.Measurement, error) {
	return s.store.LatestMeasurement(ctx, userID)
}
