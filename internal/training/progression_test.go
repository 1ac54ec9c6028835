package training

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

func history(end time.Time, sets ...[2]string) models.ExerciseHistory {
	h := models.ExerciseHistory{Session: models.WorkoutSession{ID: "s-" + end.Format("0102"), EndTime: end}}
	for i, s := range sets {
		set := models.RecordedSet{ExerciseID: "bench", SetNumber: i + 1, Reps: sp(s[1])}
		if s[0] != "" {
			set.Weight = sp(s[0])
		}
		h.Sets = append(h.Sets, set)
	}
	return h
}

func settingsFor(model models.ProgressionModel) models.ProgressionSettings {
	s := models.DefaultProgressionSettings(1)
	s.SelectedModel = model
	return s
}

// TestSuggestNext verifies each model against the newest session.
func TestSuggestNext(t *testing.T) {
	day := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		settings   models.ProgressionSettings
		target     string
		history    []models.ExerciseHistory
		wantNil    bool
		wantWeight string
		wantReps   string
	}{
		{
			name:       "linear weight at ceiling",
			settings:   settingsFor(models.ModelLinearWeight),
			target:     "8-12",
			history:    []models.ExerciseHistory{history(day, [2]string{"100", "12"}, [2]string{"100", "12"}, [2]string{"100", "12"})},
			wantWeight: "102.5",
			wantReps:   "8-12",
		},
		{
			name:     "linear weight below ceiling",
			settings: settingsFor(models.ModelLinearWeight),
			target:   "8-12",
			history:  []models.ExerciseHistory{history(day, [2]string{"100", "12"}, [2]string{"100", "10"})},
			wantNil:  true,
		},
		{
			name:       "linear weight uses heaviest",
			settings:   settingsFor(models.ModelLinearWeight),
			target:     "10",
			history:    []models.ExerciseHistory{history(day, [2]string{"60", "10"}, [2]string{"62,5", "11"})},
			wantWeight: "65",
			wantReps:   "10",
		},
		{
			name:       "linear reps at floor",
			settings:   settingsFor(models.ModelLinearReps),
			target:     "8-12",
			history:    []models.ExerciseHistory{history(day, [2]string{"40", "8"}, [2]string{"40", "7"})},
			wantWeight: "40",
			wantReps:   "9",
		},
		{
			name:     "linear reps above floor",
			settings: settingsFor(models.ModelLinearReps),
			target:   "8-12",
			history:  []models.ExerciseHistory{history(day, [2]string{"40", "9"})},
			wantNil:  true,
		},
		{
			name:       "double progression adds a rep",
			settings:   settingsFor(models.ModelDoubleProgression),
			history:    []models.ExerciseHistory{history(day, [2]string{"80", "12"}, [2]string{"80", "10"})},
			wantWeight: "80",
			wantReps:   "11",
		},
		{
			name:       "double progression adds weight at ceiling",
			settings:   settingsFor(models.ModelDoubleProgression),
			history:    []models.ExerciseHistory{history(day, [2]string{"80", "12"}, [2]string{"80", "12"})},
			wantWeight: "82.5",
			wantReps:   "8",
		},
		{
			name: "double progression falls back to prescription range",
			settings: func() models.ProgressionSettings {
				s := settingsFor(models.ModelDoubleProgression)
				s.DoubleProgressionRepRange = ""
				return s
			}(),
			target:     "5-8",
			history:    []models.ExerciseHistory{history(day, [2]string{"120", "8"}, [2]string{"120", "8"})},
			wantWeight: "122.5",
			wantReps:   "5",
		},
		{
			name:     "disabled",
			settings: func() models.ProgressionSettings { s := settingsFor(models.ModelLinearWeight); s.EnableProgression = false; return s }(),
			target:   "8-12",
			history:  []models.ExerciseHistory{history(day, [2]string{"100", "12"})},
			wantNil:  true,
		},
		{
			name:     "model none",
			settings: settingsFor(models.ModelNone),
			target:   "8-12",
			history:  []models.ExerciseHistory{history(day, [2]string{"100", "12"})},
			wantNil:  true,
		},
		{
			name:     "only unparseable reps",
			settings: settingsFor(models.ModelLinearWeight),
			target:   "8-12",
			history:  []models.ExerciseHistory{history(day, [2]string{"100", "AMRAP"})},
			wantNil:  true,
		},
		{
			name:       "unparseable reps ignored",
			settings:   settingsFor(models.ModelLinearWeight),
			target:     "8-12",
			history:    []models.ExerciseHistory{history(day, [2]string{"100", "12"}, [2]string{"100", "AMRAP"})},
			wantWeight: "102.5",
			wantReps:   "8-12",
		},
		{
			name:     "empty history",
			settings: settingsFor(models.ModelLinearWeight),
			target:   "8-12",
			wantNil:  true,
		},
		{
			name:     "only newest session counts",
			settings: settingsFor(models.ModelLinearWeight),
			target:   "8-12",
			history: []models.ExerciseHistory{
				history(day.Add(-48*time.Hour), [2]string{"100", "12"}),
				history(day, [2]string{"100", "9"}),
			},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestNext(tt.settings, tt.target, tt.history)
			if tt.wantNil {
				if got != nil {
					t.Errorf("SuggestNext = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("SuggestNext = nil, want a suggestion")
			}
			if got.Weight != tt.wantWeight || got.Reps != tt.wantReps {
				t.Errorf("SuggestNext = %s x %s, want %s x %s", got.Weight, got.Reps, tt.wantWeight, tt.wantReps)
			}
		})
	}
}

// TestSuggestNextPure verifies that repeated calls give identical results and
// leave the input untouched.
func TestSuggestNextPure(t *testing.T) {
	day := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	h := []models.ExerciseHistory{history(day, [2]string{"80", "12"}, [2]string{"80", "10"})}
	before := *h[0].Sets[0].Weight
	s := settingsFor(models.ModelDoubleProgression)

	a := SuggestNext(s, "8-12", h)
	b := SuggestNext(s, "8-12", h)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
	if *h[0].Sets[0].Weight != before {
		t.Error("history mutated")
	}
}

// TestSuggestProgression verifies the service path with default settings
// and an unknown exercise.
func TestSuggestProgression(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	svc := newTestService(store)
	ctx := context.Background()

	sets := []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("12")},
		{ExerciseID: "bench", SetNumber: 2, Weight: sp("100"), Reps: sp("12")},
	}
	if _, err := svc.CloseSession(ctx, 1, pushDraft(), sets); err != nil {
		t.Fatal(err)
	}

	sug, err := svc.SuggestProgression(ctx, 1, "bench", "8-12")
	if err != nil {
		t.Fatal(err)
	}
	if sug == nil || sug.Weight != "102.5" || sug.ExerciseID != "bench" {
		t.Errorf("suggestion = %+v", sug)
	}

	if _, err := svc.SuggestProgression(ctx, 1, "ghost", "8-12"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown exercise err = %v, want ErrNotFound", err)
	}
}

// TestSuggestProgressionPrescribedReps verifies an empty rep target falls
// back to the prescription of the newest session's workout definition.
func TestSuggestProgressionPrescribedReps(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench", "squat")
	svc := newTestService(store)
	ctx := context.Background()

	def, err := svc.CreateDefinition(ctx, 1, DefinitionInput{
		Name: "Push",
		Exercises: []models.ExercisePrescription{
			{ExerciseID: "bench", OrderIndex: 0, DefaultReps: sp("8-12")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	draft := pushDraft()
	draft.DefinitionID = &def.ID
	sets := []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("12")},
		{ExerciseID: "bench", SetNumber: 2, Weight: sp("100"), Reps: sp("12")},
		{ExerciseID: "squat", SetNumber: 1, Weight: sp("140"), Reps: sp("5")},
	}
	if _, err := svc.CloseSession(ctx, 1, draft, sets); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		exerciseID string
		targetReps string
		wantWeight string
		wantReps   string
	}{
		{"prescribed range", "bench", "", "102.5", "8-12"},
		{"explicit target wins", "bench", "15", "", ""},
		{"no prescription", "squat", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sug, err := svc.SuggestProgression(ctx, 1, tt.exerciseID, tt.targetReps)
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantWeight == "" {
				if sug != nil {
					t.Errorf("suggestion = %+v, want none", sug)
				}
				return
			}
			if sug == nil || sug.Weight != tt.wantWeight || sug.Reps != tt.wantReps {
				t.Errorf("suggestion = %+v, want %s x %s", sug, tt.wantWeight, tt.wantReps)
			}
		})
	}
}

// TestSaveProgressionSettings verifies validation and the default fallback.
func TestSaveProgressionSettings(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	got, err := svc.GetProgressionSettings(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, models.DefaultProgressionSettings(1)) {
		t.Errorf("defaults = %+v", got)
	}

	bad := models.DefaultProgressionSettings(1)
	bad.SelectedModel = "wave"
	if _, err := svc.SaveProgressionSettings(ctx, 1, bad); !errors.Is(err, models.ErrConstraintViolation) {
		t.Errorf("unknown model err = %v", err)
	}
	bad = models.DefaultProgressionSettings(1)
	bad.SelectedModel = models.ModelDoubleProgression
	bad.DoubleProgressionRepRange = "twelve"
	if _, err := svc.SaveProgressionSettings(ctx, 1, bad); !errors.Is(err, models.ErrConstraintViolation) {
		t.Errorf("bad range err = %v", err)
	}

	good := models.DefaultProgressionSettings(99)
	good.SelectedModel = models.ModelLinearReps
	if _, err := svc.SaveProgressionSettings(ctx, 1, good); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.GetProgressionSettings(ctx, 1)
	if got.SelectedModel != models.ModelLinearReps || got.UserID != 1 {
		t.Errorf("saved = %+v", got)
	}
}
