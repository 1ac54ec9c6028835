package training

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/claude/liftlog/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// historyDepth is how many past sessions are loaded for the advisor. Only
// the newest is evaluated today.
const historyDepth = 5

// Suggestion is the advisor's target for the next session of one exercise.
// Weight is empty when the evaluated sets carried none.
type Suggestion struct {
	ExerciseID       string                  `json:"exercise_id"`
	Model            models.ProgressionModel `json:"model"`
	Weight           string                  `json:"weight"`
	Reps             string                  `json:"reps"`
	Reason           string                  `json:"reason"`
	BasedOnSessionID string                  `json:"based_on_session_id"`
}

type evaluatedSet struct {
	reps      int
	weight    float64
	hasWeight bool
	raw       *string
}

func weightText(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// SuggestNext derives the next target from the most recently closed session
// in history. targetReps is the prescribed rep target ("8-12" or "10"). A nil
// result means the policy yields no change. SuggestNext never touches a store.
func SuggestNext(settings models.ProgressionSettings, targetReps string, history []models.ExerciseHistory) *Suggestion {
	if !settings.EnableProgression || settings.SelectedModel == models.ModelNone || len(history) == 0 {
		return nil
	}

	latest := history[0]
	for _, h := range history[1:] {
		if h.Session.EndTime.After(latest.Session.EndTime) {
			latest = h
		}
	}

	var sets []evaluatedSet
	for _, s := range latest.Sets {
		reps, ok := ParseReps(s.Reps)
		if !ok {
			continue
		}
		w, hasW := parsePtr(s.Weight)
		sets = append(sets, evaluatedSet{reps: reps, weight: w, hasWeight: hasW, raw: s.Weight})
	}
	if len(sets) == 0 {
		return nil
	}

	exerciseID := ""
	if len(latest.Sets) > 0 {
		exerciseID = latest.Sets[0].ExerciseID
	}
	out := &Suggestion{ExerciseID: exerciseID, Model: settings.SelectedModel, BasedOnSessionID: latest.Session.ID}

	switch settings.SelectedModel {
	case models.ModelLinearWeight:
		_, hi, ok := ParseRepRange(targetReps)
		if !ok {
			return nil
		}
		heaviest, ok := heaviestWeight(sets)
		if !ok {
			return nil
		}
		for _, s := range sets {
			if s.reps < hi {
				return nil
			}
		}
		out.Weight = FormatQuantity(heaviest + settings.LinearWeightIncrement)
		out.Reps = targetReps
		out.Reason = fmt.Sprintf("all %d sets reached %d reps", len(sets), hi)

	case models.ModelLinearReps:
		lo, _, ok := ParseRepRange(targetReps)
		if !ok {
			return nil
		}
		best := sets[0]
		for _, s := range sets {
			if s.reps > lo {
				return nil
			}
			if s.reps > best.reps {
				best = s
			}
		}
		out.Weight = weightText(best.raw)
		out.Reps = strconv.Itoa(best.reps + settings.LinearRepsIncrement)
		out.Reason = fmt.Sprintf("no set exceeded %d reps", lo)

	case models.ModelDoubleProgression:
		lo, hi, ok := ParseRepRange(settings.DoubleProgressionRepRange)
		if !ok {
			lo, hi, ok = ParseRepRange(targetReps)
		}
		if !ok {
			return nil
		}
		lowest := sets[0]
		for _, s := range sets[1:] {
			if s.reps < lowest.reps {
				lowest = s
			}
		}
		if lowest.reps < hi {
			out.Weight = weightText(lowest.raw)
			out.Reps = strconv.Itoa(min(lowest.reps+1, hi))
			out.Reason = fmt.Sprintf("lowest set at %d of %d-%d reps", lowest.reps, lo, hi)
			break
		}
		heaviest, ok := heaviestWeight(sets)
		if !ok {
			return nil
		}
		out.Weight = FormatQuantity(heaviest + settings.DoubleProgressionWeightIncrement)
		out.Reps = strconv.Itoa(lo)
		out.Reason = fmt.Sprintf("all sets reached the %d rep ceiling", hi)

	default:
		return nil
	}
	return out
}

func heaviestWeight(sets []evaluatedSet) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, s := range sets {
		if s.hasWeight && (!found || s.weight > best) {
			best, found = s.weight, true
		}
	}
	return best, found
}

// SuggestProgression loads the user's policy (defaults when none is saved)
// and the exercise's recent history, then asks the advisor.
func (s *Service) SuggestProgression(ctx context.Context, userID int, exerciseID, targetReps string) (sug *Suggestion, err error) {
	ctx, span := s.startSpan(ctx, "SuggestProgression", trace.WithAttributes(
		attribute.String("exercise_id", exerciseID),
	))
	defer func() { endSpan(span, err) }()

	if _, err := s.store.GetExercise(ctx, exerciseID); err != nil {
		return nil, err
	}
	settings, err := s.GetProgressionSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ExerciseHistory(ctx, userID, exerciseID, historyDepth)
	if err != nil {
		return nil, err
	}

	if targetReps == "" && len(history) > 0 {
		targetReps, err = s.prescribedReps(ctx, userID, exerciseID, history)
		if err != nil {
			return nil, err
		}
	}

	sug = SuggestNext(settings, targetReps, history)
	if s.metrics != nil {
		outcome := "none"
		if sug != nil {
			outcome = "suggested"
		}
		s.metrics.CounterSuggestions.WithLabelValues(string(settings.SelectedModel), outcome).Inc()
	}
	if sug != nil {
		sug.ExerciseID = exerciseID
	}
	return sug, nil
}

// prescribedReps returns the rep target the newest session's workout
// definition prescribes for the exercise. Sessions without a definition, or
// whose definition is gone, give no target.
func (s *Service) prescribedReps(ctx context.Context, userID int, exerciseID string, history []models.ExerciseHistory) (string, error) {
	latest := history[0]
	for _, h := range history[1:] {
		if h.Session.EndTime.After(latest.Session.EndTime) {
			latest = h
		}
	}
	if latest.Session.DefinitionID == nil {
		return "", nil
	}
	def, err := s.store.GetDefinition(ctx, userID, *latest.Session.DefinitionID)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	for _, p := range def.Exercises {
		if p.ExerciseID == exerciseID && p.DefaultReps != nil {
			return *p.DefaultReps, nil
		}
	}
	return "", nil
}

// GetProgressionSettings returns the saved policy or the defaults.
func (s *Service) GetProgressionSettings(ctx context.Context, userID int) (models.ProgressionSettings, error) {
	settings, err := s.store.GetProgressionSettings(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.DefaultProgressionSettings(userID), nil
	}
	return settings, err
}

// SaveProgressionSettings validates and stores the user's policy.
func (s *Service) SaveProgressionSettings(ctx context.Context, userID int, settings models.ProgressionSettings) (models.ProgressionSettings, error) {
	if !settings.SelectedModel.Valid() {
		return settings, models.Invalid("selected_model", "unknown model %q", settings.SelectedModel)
	}
	if settings.LinearWeightIncrement < 0 || settings.DoubleProgressionWeightIncrement < 0 {
		return settings, models.Invalid("weight_increment", "must not be negative")
	}
	if settings.LinearRepsIncrement < 0 {
		return settings, models.Invalid("linear_reps_increment", "must not be negative")
	}
	if settings.SelectedModel == models.ModelDoubleProgression || settings.DoubleProgressionRepRange != "" {
		if _, _, ok := ParseRepRange(settings.DoubleProgressionRepRange); !ok {
			return settings, models.Invalid("double_progression_rep_range", "cannot parse %q", settings.DoubleProgressionRepRange)
		}
	}
	settings.UserID = userID
	settings.UpdatedAt = s.now()
	if err := s.store.UpsertProgressionSettings(ctx, settings); err != nil {
		return settings, err
	}
	return settings, nil
}
