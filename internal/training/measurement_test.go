package training

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// TestRecordMeasurement verifies validation and date normalization.
func TestRecordMeasurement(t *testing.T) {
	tests := []struct {
		name     string
		in       MeasurementInput
		wantErr  bool
		wantDate time.Time
	}{
		{"today by default", MeasurementInput{Bodyweight: "82.4"}, false, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"explicit date truncated", MeasurementInput{Bodyweight: "82,4 kg", Date: time.Date(2026, 2, 27, 7, 30, 0, 0, time.UTC)}, false, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)},
		{"with body parts", MeasurementInput{Bodyweight: "80", BodyParts: map[string]float64{"waist": 84.5}}, false, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"zero bodyweight", MeasurementInput{Bodyweight: "0"}, true, time.Time{}},
		{"text bodyweight", MeasurementInput{Bodyweight: "heavy"}, true, time.Time{}},
		{"negative part", MeasurementInput{Bodyweight: "80", BodyParts: map[string]float64{"arm": -1}}, true, time.Time{}},
		{"nan part", MeasurementInput{Bodyweight: "80", BodyParts: map[string]float64{"arm": math.NaN()}}, true, time.Time{}},
		{"unnamed part", MeasurementInput{Bodyweight: "80", BodyParts: map[string]float64{" ": 30}}, true, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMemStore())
			m, err := svc.RecordMeasurement(context.Background(), 1, tt.in)
			if tt.wantErr {
				if !errors.Is(err, models.ErrConstraintViolation) {
					t.Errorf("err = %v, want ErrConstraintViolation", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !m.Date.Equal(tt.wantDate) {
				t.Errorf("Date = %v, want %v", m.Date, tt.wantDate)
			}
		})
	}
}

// TestLatestMeasurement verifies that the newest date wins and that an empty
// history is reported as not found.
func TestLatestMeasurement(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	if _, err := svc.LatestMeasurement(ctx, 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("empty err = %v, want ErrNotFound", err)
	}
	for _, in := range []MeasurementInput{
		{Bodyweight: "83", Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Bodyweight: "81.5", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Bodyweight: "82", Date: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
	} {
		if _, err := svc.RecordMeasurement(ctx, 1, in); err != nil {
			t.Fatal(err)
		}
	}
	m, err := svc.LatestMeasurement(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if m.Bodyweight != "81.5" {
		t.Errorf("latest = %s, want 81.5", m.Bodyweight)
	}
	list, _ := svc.ListMeasurements(ctx, 1, 10)
	if len(list) != 3 {
		t.Errorf("list = %d, want 3", len(list))
	}
}
