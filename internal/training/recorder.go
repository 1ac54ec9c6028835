package training

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

// SessionDraft is a finished workout about to be closed. WorkoutName and
// WorkoutType fall back to the referenced definition when empty.
type SessionDraft struct {
	DefinitionID     *string   `json:"definition_id,omitempty"`
	WorkoutName      string    `json:"workout_name"`
	WorkoutType      *string   `json:"workout_type,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DifficultyRating *int      `json:"difficulty_rating,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
}

// SetDraft is one performed set as entered. ExerciseName falls back to the
// catalog name when empty.
type SetDraft struct {
	ExerciseID      string   `json:"exercise_id"`
	ExerciseName    string   `json:"exercise_name,omitempty"`
	SetNumber       int      `json:"set_number"`
	Weight          *string  `json:"weight,omitempty"`
	Reps            *string  `json:"reps,omitempty"`
	RPE             *float64 `json:"rpe,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	Distance        *string  `json:"distance,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

// CloseResult is a persisted session plus the records it set.
type CloseResult struct {
	Session       models.SessionDetail  `json:"session"`
	PersonalBests []models.PersonalBest `json:"personal_bests"`
}

// Summarize computes total volume and the distinct exercise count. Volume
// sums weight x reps over sets where both parse as numbers; other sets are
// skipped. Set numbering gaps are irrelevant.
func Summarize(sets []models.RecordedSet) (volume float64, exerciseCount int) {
	seen := make(map[string]struct{}, len(sets))
	for _, s := range sets {
		seen[s.ExerciseID] = struct{}{}
		w, okW := parsePtr(s.Weight)
		r, okR := parsePtr(s.Reps)
		if okW && okR {
			volume += w * r
		}
	}
	return round3(volume), len(seen)
}

func summary(s models.WorkoutSession, sets []models.RecordedSet) models.SessionDetail {
	_, count := Summarize(sets)
	return models.SessionDetail{
		SessionSummary: models.SessionSummary{WorkoutSession: s, ExerciseCount: count, SetCount: len(sets)},
		Sets:           sets,
	}
}

func validateDraft(d SessionDraft, sets []SetDraft) error {
	if d.EndTime.Before(d.StartTime) {
		return fmt.Errorf("end %s precedes start %s: %w",
			d.EndTime.Format(time.RFC3339), d.StartTime.Format(time.RFC3339), models.ErrInvalidDuration)
	}
	if d.StartTime.IsZero() {
		return models.Invalid("start_time", "required")
	}
	if d.DifficultyRating != nil && (*d.DifficultyRating < 1 || *d.DifficultyRating > 10) {
		return models.Invalid("difficulty_rating", "must be between 1 and 10, got %d", *d.DifficultyRating)
	}
	numbers := make(map[string]map[int]bool)
	for i, s := range sets {
		if s.ExerciseID == "" {
			return models.Invalid("exercise_id", "set %d has no exercise", i)
		}
		if s.SetNumber <= 0 {
			return models.Invalid("set_number", "set %d: must be positive, got %d", i, s.SetNumber)
		}
		if numbers[s.ExerciseID] == nil {
			numbers[s.ExerciseID] = make(map[int]bool)
		}
		if numbers[s.ExerciseID][s.SetNumber] {
			return models.Invalid("set_number", "duplicate set %d for exercise %s", s.SetNumber, s.ExerciseID)
		}
		numbers[s.ExerciseID][s.SetNumber] = true
		if s.RPE != nil && (*s.RPE < 1 || *s.RPE > 10) {
			return models.Invalid("rpe", "set %d: must be between 1 and 10, got %v", i, *s.RPE)
		}
		if s.DurationSeconds != nil && *s.DurationSeconds < 0 {
			return models.Invalid("duration_seconds", "set %d: must not be negative", i)
		}
	}
	return nil
}

type closeOptions struct {
	// replace deletes sessions with the same start time and name first.
	replace bool
}

// CloseSession validates and persists a finished session with its sets as
// one unit, then evaluates personal bests for every exercise it contains.
// An end time before the start fails with models.ErrInvalidDuration and
// writes nothing.
func (s *Service) CloseSession(ctx context.Context, userID int, draft SessionDraft, sets []SetDraft) (CloseResult, error) {
	return s.closeSession(ctx, userID, draft, sets, closeOptions{})
}

// ReplaceSession is CloseSession for imports: an earlier session of the user
// with the same start time and workout name is removed in the same unit.
func (s *Service) ReplaceSession(ctx context.Context, userID int, draft SessionDraft, sets []SetDraft) (CloseResult, error) {
	return s.closeSession(ctx, userID, draft, sets, closeOptions{replace: true})
}

func (s *Service) closeSession(ctx context.Context, userID int, draft SessionDraft, drafts []SetDraft, opts closeOptions) (res CloseResult, err error) {
	ctx, span := s.startSpan(ctx, "CloseSession", trace.WithAttributes(
		attribute.Int("user_id", userID),
		attribute.Int("sets", len(drafts)),
	))
	defer func() { endSpan(span, err) }()
	began := time.Now()

	if err := validateDraft(draft, drafts); err != nil {
		return res, fmt.Errorf("closing session: %w", err)
	}

	session := models.WorkoutSession{
		ID:               s.newID(),
		UserID:           userID,
		DefinitionID:     draft.DefinitionID,
		WorkoutName:      strings.TrimSpace(draft.WorkoutName),
		WorkoutType:      draft.WorkoutType,
		StartTime:        draft.StartTime,
		EndTime:          draft.EndTime,
		TotalTimeSeconds: int64(draft.EndTime.Sub(draft.StartTime) / time.Second),
		DifficultyRating: draft.DifficultyRating,
		Notes:            draft.Notes,
		CreatedAt:        s.now(),
	}
	if err := s.captureWorkoutName(ctx, userID, &session); err != nil {
		return res, err
	}
	sets, err := s.captureSets(ctx, session.ID, drafts)
	if err != nil {
		return res, err
	}
	session.CalculatedTotalVolume, _ = Summarize(sets)

	if err := s.persistSession(ctx, session, sets, opts); err != nil {
		return res, err
	}
	res.Session = summary(session, sets)

	if s.metrics != nil {
		s.metrics.CounterSessions.Inc()
		s.metrics.CounterSets.Add(float64(len(sets)))
	}
	s.logger.Info("session closed",
		"user_id", userID, "session_id", session.ID, "workout", session.WorkoutName,
		"sets", len(sets), "exercises", res.Session.ExerciseCount, "volume", session.CalculatedTotalVolume)

	res.PersonalBests = s.evaluateSessionBests(ctx, userID, session, sets)
	if s.metrics != nil {
		s.metrics.HistCloseDuration.Observe(time.Since(began).Seconds())
	}
	return res, nil
}

func (s *Service) captureWorkoutName(ctx context.Context, userID int, session *models.WorkoutSession) error {
	if session.DefinitionID != nil {
		def, err := s.store.GetDefinition(ctx, userID, *session.DefinitionID)
		if err != nil {
			return fmt.Errorf("resolving definition: %w", err)
		}
		if session.WorkoutName == "" {
			session.WorkoutName = def.Name
		}
		if session.WorkoutType == nil {
			session.WorkoutType = def.Type
		}
	}
	if session.WorkoutName == "" {
		return models.Invalid("workout_name", "required when no definition is referenced")
	}
	return nil
}

func (s *Service) captureSets(ctx context.Context, sessionID string, drafts []SetDraft) ([]models.RecordedSet, error) {
	names := make(map[string]string)
	sets := make([]models.RecordedSet, 0, len(drafts))
	for _, d := range drafts {
		name := d.ExerciseName
		if name == "" {
			if cached, ok := names[d.ExerciseID]; ok {
				name = cached
			} else {
				e, err := s.store.GetExercise(ctx, d.ExerciseID)
				if err != nil {
					return nil, fmt.Errorf("resolving exercise: %w", err)
				}
				name = e.Name
				names[d.ExerciseID] = name
			}
		}
		sets = append(sets, models.RecordedSet{
			ID:              s.newID(),
			SessionID:       sessionID,
			ExerciseID:      d.ExerciseID,
			ExerciseName:    name,
			SetNumber:       d.SetNumber,
			Weight:          d.Weight,
			Reps:            d.Reps,
			RPE:             d.RPE,
			DurationSeconds: d.DurationSeconds,
			Distance:        d.Distance,
			Notes:           d.Notes,
		})
	}
	return sets, nil
}

func writeSession(ctx context.Context, st Store, session models.WorkoutSession, sets []models.RecordedSet, opts closeOptions) error {
	if opts.replace {
		if _, err := st.DeleteSessionsAt(ctx, session.UserID, session.StartTime, session.WorkoutName); err != nil {
			return err
		}
	}
	if err := st.InsertSession(ctx, session); err != nil {
		return err
	}
	if _, err := st.InsertSets(ctx, sets); err != nil {
		return err
	}
	return nil
}

// persistSession writes header and sets atomically. Without a transactional
// store a failed write is undone by deleting the header, which cascades to
// any sets already written.
func (s *Service) persistSession(ctx context.Context, session models.WorkoutSession, sets []models.RecordedSet, opts closeOptions) error {
	if tx, ok := s.store.(Transactor); ok {
		err := tx.WithTx(ctx, func(st Store) error {
			return writeSession(ctx, st, session, sets, opts)
		})
		if err != nil {
			return fmt.Errorf("persisting session: %w", err)
		}
		return nil
	}

	err := writeSession(ctx, s.store, session, sets, opts)
	if err == nil {
		return nil
	}
	if delErr := s.store.DeleteSession(ctx, session.UserID, session.ID); delErr != nil && !errors.Is(delErr, models.ErrNotFound) {
		if s.metrics != nil {
			s.metrics.CounterRollbackErrors.Inc()
		}
		s.logger.Error("compensating delete failed", "session_id", session.ID, "error", delErr)
		err = multierr.Append(err, fmt.Errorf("removing partial session %s: %w", session.ID, delErr))
	}
	return fmt.Errorf("persisting session: %w", err)
}

// evaluateSessionBests runs the evaluator for every exercise of a committed
// session. The session stays recorded when a record write fails; the
// failure is logged.
func (s *Service) evaluateSessionBests(ctx context.Context, userID int, session models.WorkoutSession, sets []models.RecordedSet) []models.PersonalBest {
	var order []string
	byExercise := make(map[string][]models.RecordedSet)
	for _, set := range sets {
		if _, ok := byExercise[set.ExerciseID]; !ok {
			order = append(order, set.ExerciseID)
		}
		byExercise[set.ExerciseID] = append(byExercise[set.ExerciseID], set)
	}

	var changed []models.PersonalBest
	for _, exerciseID := range order {
		best := bestCandidates(byExercise[exerciseID])
		for _, rt := range models.RecordTypes {
			set, ok := best[rt]
			if !ok {
				continue
			}
			ev, err := s.RecordPersonalBest(ctx, userID, set, rt, session.EndTime)
			if err != nil {
				s.logger.Warn("personal best evaluation failed",
					"session_id", session.ID, "exercise_id", exerciseID, "record_type", rt, "error", err)
				continue
			}
			if ev.Replaced {
				changed = append(changed, ev.NewBest)
			}
		}
	}
	return changed
}

// GetSession returns a session with its sets and summary.
func (s *Service) GetSession(ctx context.Context, userID int, id string) (models.SessionDetail, error) {
	session, sets, err := s.store.GetSession(ctx, userID, id)
	if err != nil {
		return models.SessionDetail{}, err
	}
	return summary(session, sets), nil
}

// ListSessions returns summaries newest first.
func (s *Service) ListSessions(ctx context.Context, userID int, f storage.SessionFilter) ([]models.SessionSummary, error) {
	return s.store.ListSessions(ctx, userID, f)
}

// UpdateSessionNotes edits the only mutable fields of a closed session.
func (s *Service) UpdateSessionNotes(ctx context.Context, userID int, id string, notes *string, difficulty *int) (models.SessionDetail, error) {
	if difficulty != nil && (*difficulty < 1 || *difficulty > 10) {
		return models.SessionDetail{}, models.Invalid("difficulty_rating", "must be between 1 and 10, got %d", *difficulty)
	}
	if err := s.store.UpdateSessionNotes(ctx, userID, id, notes, difficulty); err != nil {
		return models.SessionDetail{}, err
	}
	return s.GetSession(ctx, userID, id)
}

// DeleteSession removes a session and its sets. Personal bests it set remain.
func (s *Service) DeleteSession(ctx context.Context, userID int, id string) error {
	return s.store.DeleteSession(ctx, userID, id)
}
