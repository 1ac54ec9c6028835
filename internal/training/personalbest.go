package training

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Evaluation is the outcome of comparing a set against the current record.
// NewBest is the record that holds after the comparison.
type Evaluation struct {
	Replaced bool                `json:"replaced"`
	NewBest  models.PersonalBest `json:"new_best"`
}

// recordValue extracts the field a record type is measured on. ok is false
// when the set does not carry a usable value.
func recordValue(set models.RecordedSet, rt models.RecordType) (pb models.PersonalBest, ok bool) {
	pb.RecordType = rt
	switch rt {
	case models.RecordMaxWeight:
		v, ok := parsePtr(set.Weight)
		if !ok {
			return pb, false
		}
		pb.Weight, pb.Score = set.Weight, v
	case models.RecordMaxReps:
		n, ok := ParseReps(set.Reps)
		if !ok {
			return pb, false
		}
		pb.Reps, pb.Score = set.Reps, float64(n)
	case models.RecordBestTime:
		if set.DurationSeconds == nil || *set.DurationSeconds <= 0 {
			return pb, false
		}
		d := *set.DurationSeconds
		pb.TimeSeconds, pb.Score = &d, float64(d)
	case models.RecordMaxDistance:
		v, ok := parsePtr(set.Distance)
		if !ok {
			return pb, false
		}
		pb.Distance, pb.Score = set.Distance, v
	default:
		return pb, false
	}
	return pb, true
}

// Evaluate compares set against the existing record for recordType. A nil
// existing record is always beaten. Ties keep the existing record. A set
// lacking the record type's field fails with models.ErrIncompleteRecordData.
func Evaluate(set models.RecordedSet, recordType models.RecordType, existing *models.PersonalBest) (Evaluation, error) {
	cand, ok := recordValue(set, recordType)
	if !ok {
		return Evaluation{}, fmt.Errorf("%s record for exercise %s: %w", recordType, set.ExerciseID, models.ErrIncompleteRecordData)
	}
	cand.ExerciseID = set.ExerciseID
	cand.ExerciseName = set.ExerciseName
	cand.Notes = set.Notes
	if set.SessionID != "" {
		sid := set.SessionID
		cand.SessionID = &sid
	}

	if existing == nil {
		return Evaluation{Replaced: true, NewBest: cand}, nil
	}
	cand.ID = existing.ID
	cand.UserID = existing.UserID
	if beats(cand.Score, existing.Score, recordType) {
		return Evaluation{Replaced: true, NewBest: cand}, nil
	}
	return Evaluation{Replaced: false, NewBest: *existing}, nil
}

func beats(candidate, current float64, rt models.RecordType) bool {
	if rt.LowerIsBetter() {
		return candidate < current
	}
	return candidate > current
}

// RecordPersonalBest offers set as a new record for the user. The store
// performs the comparison atomically; the returned NewBest is the record
// that holds afterwards, whoever wrote it.
func (s *Service) RecordPersonalBest(ctx context.Context, userID int, set models.RecordedSet, recordType models.RecordType, achieved time.Time) (ev Evaluation, err error) {
	ctx, span := s.startSpan(ctx, "RecordPersonalBest", trace.WithAttributes(
		attribute.String("exercise_id", set.ExerciseID),
		attribute.String("record_type", string(recordType)),
	))
	defer func() { endSpan(span, err) }()

	if !recordType.Valid() {
		return Evaluation{}, models.Invalid("record_type", "unknown record type %q", recordType)
	}
	cand, err := Evaluate(set, recordType, nil)
	if err != nil {
		return Evaluation{}, err
	}
	pb := cand.NewBest
	pb.ID = s.newID()
	pb.UserID = userID
	pb.DateAchieved = achieved
	pb.UpdatedAt = s.now()

	written, err := s.store.UpsertPersonalBest(ctx, pb)
	if err != nil {
		return Evaluation{}, err
	}
	current, err := s.store.GetPersonalBest(ctx, userID, set.ExerciseID, recordType)
	if err != nil {
		return Evaluation{}, fmt.Errorf("reading back personal best: %w", err)
	}
	if written {
		if s.metrics != nil {
			s.metrics.CounterPersonalBests.WithLabelValues(string(recordType)).Inc()
		}
		s.logger.Info("personal best",
			"user_id", userID, "exercise", set.ExerciseName, "record_type", recordType,
			"score", strconv.FormatFloat(pb.Score, 'f', -1, 64))
	}
	return Evaluation{Replaced: written, NewBest: current}, nil
}

// bestCandidates picks, per record type, the strongest set of one exercise.
// Earlier sets win ties. Record types no set carries are absent.
func bestCandidates(sets []models.RecordedSet) map[models.RecordType]models.RecordedSet {
	out := make(map[models.RecordType]models.RecordedSet)
	scores := make(map[models.RecordType]float64)
	for _, set := range sets {
		for _, rt := range models.RecordTypes {
			cand, ok := recordValue(set, rt)
			if !ok {
				continue
			}
			if cur, seen := scores[rt]; seen && !beats(cand.Score, cur, rt) {
				continue
			}
			scores[rt] = cand.Score
			out[rt] = set
		}
	}
	return out
}

// ListPersonalBests returns the user's records, optionally for one exercise.
func (s *Service) ListPersonalBests(ctx context.Context, userID int, exerciseID string) ([]models.PersonalBest, error) {
	return s.store.ListPersonalBests(ctx, userID, exerciseID)
}
