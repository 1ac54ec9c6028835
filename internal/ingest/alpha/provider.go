package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
)

// warmupNote marks sets exported as warm-ups.
const warmupNote = "warm-up"

// Recorder is the part of the training service an import needs.
type Recorder interface {
	EnsureExercise(ctx context.Context, userID int, name, category string) (models.Exercise, error)
	ReplaceSession(ctx context.Context, userID int, draft training.SessionDraft, sets []training.SetDraft) (training.CloseResult, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	rec Recorder
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(rec Recorder, log *slog.Logger) *Provider {
	return &Provider{rec: rec, log: log}
}

// Ingest parses a CSV export and closes every session it contains through
// the recorder. A session already imported with the same start and name is
// replaced, so re-imports always reflect the latest parser output.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{SessionsReceived: len(sessions)}
	known := make(map[string]models.Exercise)

	for _, s := range sessions {
		draft, sets, err := p.convert(ctx, userID, s, known)
		if err != nil {
			return result, fmt.Errorf("session %q at %s: %w", s.Name, s.Start.Format("2006-01-02 15:04"), err)
		}
		result.SetsReceived += len(sets)

		closed, err := p.rec.ReplaceSession(ctx, userID, draft, sets)
		if err != nil {
			return result, fmt.Errorf("session %q at %s: %w", s.Name, s.Start.Format("2006-01-02 15:04"), err)
		}
		result.SessionsInserted++
		result.SetsInserted += int64(len(closed.Session.Sets))
		result.PersonalBests += len(closed.PersonalBests)
	}

	p.log.Info("alpha import finished",
		"user_id", userID,
		"sessions", result.SessionsInserted,
		"sets", result.SetsInserted,
		"personal_bests", result.PersonalBests,
	)
	return result, nil
}

// convert maps one parsed session to recorder drafts. Warm-ups lead each
// exercise block and set numbers run per exercise across warm-ups and
// working sets.
func (p *Provider) convert(ctx context.Context, userID int, s models.AlphaSession, known map[string]models.Exercise) (training.SessionDraft, []training.SetDraft, error) {
	draft := training.SessionDraft{
		WorkoutName: s.Name,
		StartTime:   s.Start.UTC(),
		EndTime:     s.Start.UTC().Add(s.Elapsed),
	}

	var sets []training.SetDraft
	numbers := make(map[string]int)
	for _, ex := range s.Exercises {
		key := strings.ToLower(ex.Name)
		e, ok := known[key]
		if !ok {
			var err error
			e, err = p.rec.EnsureExercise(ctx, userID, ex.Name, ex.Equipment)
			if err != nil {
				return draft, nil, fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
			}
			known[key] = e
		}

		for _, warm := range []bool{true, false} {
			for _, set := range ex.Sets {
				if set.IsWarmup != warm {
					continue
				}
				numbers[e.ID]++
				sets = append(sets, toDraft(e, numbers[e.ID], set))
			}
		}
	}
	return draft, sets, nil
}

func toDraft(e models.Exercise, number int, set models.AlphaSet) training.SetDraft {
	weight := set.WeightText
	reps := fmt.Sprint(set.Reps)
	d := training.SetDraft{
		ExerciseID:   e.ID,
		ExerciseName: e.Name,
		SetNumber:    number,
		Weight:       &weight,
		Reps:         &reps,
		RPE:          rpeFromRIR(set.RIR),
	}
	if set.IsWarmup {
		note := warmupNote
		d.Notes = &note
	}
	return d
}

// rpeFromRIR maps reps in reserve to RPE = 10 - RIR. Values outside the
// 1..10 RPE scale are dropped.
func rpeFromRIR(rir *float64) *float64 {
	if rir == nil {
		return nil
	}
	rpe := 10 - *rir
	if rpe < 1 || rpe > 10 {
		return nil
	}
	return &rpe
}
