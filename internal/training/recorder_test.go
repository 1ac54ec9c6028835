package training

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var start = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func pushDraft() SessionDraft {
	return SessionDraft{WorkoutName: "Push", StartTime: start, EndTime: start.Add(62 * time.Minute)}
}

// TestSummarize verifies volume and distinct exercise counts, including sets
// that cannot be parsed and gaps in set numbering.
func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		sets       []models.RecordedSet
		wantVolume float64
		wantCount  int
	}{
		{
			name: "amrap set excluded",
			sets: []models.RecordedSet{
				{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")},
				{ExerciseID: "bench", SetNumber: 2, Weight: sp("100"), Reps: sp("AMRAP")},
			},
			wantVolume: 1000,
			wantCount:  1,
		},
		{
			name: "decimal comma and units",
			sets: []models.RecordedSet{
				{ExerciseID: "bench", SetNumber: 1, Weight: sp("102,5"), Reps: sp("4")},
				{ExerciseID: "row", SetNumber: 3, Weight: sp("60 kg"), Reps: sp("10")},
			},
			wantVolume: 1010,
			wantCount:  2,
		},
		{
			name: "missing weight",
			sets: []models.RecordedSet{
				{ExerciseID: "pullup", SetNumber: 1, Reps: sp("12")},
				{ExerciseID: "pullup", SetNumber: 7, Weight: sp("+10"), Reps: sp("5")},
			},
			wantVolume: 50,
			wantCount:  1,
		},
		{
			name:       "empty",
			wantVolume: 0,
			wantCount:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol, count := Summarize(tt.sets)
			if vol != tt.wantVolume {
				t.Errorf("volume = %v, want %v", vol, tt.wantVolume)
			}
			if count != tt.wantCount {
				t.Errorf("exerciseCount = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

// TestCloseSession verifies the recorded header, the denormalized names and
// the summary of a closed session.
func TestCloseSession(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	svc := newTestService(store)

	res, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")},
		{ExerciseID: "bench", SetNumber: 2, Weight: sp("100"), Reps: sp("AMRAP")},
	})
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	s := res.Session
	if s.CalculatedTotalVolume != 1000 {
		t.Errorf("volume = %v, want 1000", s.CalculatedTotalVolume)
	}
	if s.ExerciseCount != 1 || s.SetCount != 2 {
		t.Errorf("counts = %d exercises, %d sets; want 1, 2", s.ExerciseCount, s.SetCount)
	}
	if s.TotalTimeSeconds != 62*60 {
		t.Errorf("TotalTimeSeconds = %d, want %d", s.TotalTimeSeconds, 62*60)
	}
	if s.Sets[0].ExerciseName != "Bench" {
		t.Errorf("ExerciseName = %q, want catalog name Bench", s.Sets[0].ExerciseName)
	}
	if *s.Sets[1].Reps != "AMRAP" {
		t.Errorf("reps text = %q, want AMRAP", *s.Sets[1].Reps)
	}
	if store.sessionCount() != 1 || store.setCount() != 2 {
		t.Errorf("store holds %d sessions, %d sets", store.sessionCount(), store.setCount())
	}

	got, err := svc.GetSession(context.Background(), 1, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ExerciseCount != 1 || got.SetCount != 2 {
		t.Errorf("GetSession counts = %d, %d", got.ExerciseCount, got.SetCount)
	}
}

// TestCloseSessionKeepsCallerNames verifies that supplied names are stored
// verbatim even when the catalog entry differs.
func TestCloseSessionKeepsCallerNames(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	svc := newTestService(store)

	res, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{
		{ExerciseID: "bench", ExerciseName: "Flat Bench (old name)", SetNumber: 1, Reps: sp("5")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Session.Sets[0].ExerciseName; got != "Flat Bench (old name)" {
		t.Errorf("ExerciseName = %q", got)
	}
}

// TestCloseSessionFromDefinition verifies that the workout name and type are
// captured from the definition, and that a hidden definition is not found.
func TestCloseSessionFromDefinition(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	store.definitions["d1"] = models.WorkoutDefinition{ID: "d1", UserID: 1, Name: "Upper A", Type: sp("strength")}
	svc := newTestService(store)

	draft := SessionDraft{DefinitionID: sp("d1"), StartTime: start, EndTime: start.Add(time.Hour)}
	res, err := svc.CloseSession(context.Background(), 1, draft, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Session.WorkoutName != "Upper A" || res.Session.WorkoutType == nil || *res.Session.WorkoutType != "strength" {
		t.Errorf("captured name/type = %q, %v", res.Session.WorkoutName, res.Session.WorkoutType)
	}

	_, err = svc.CloseSession(context.Background(), 2, draft, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("other user's private definition: err = %v, want ErrNotFound", err)
	}
}

// TestCloseSessionInvalidDuration verifies that end before start fails and
// nothing is written.
func TestCloseSessionInvalidDuration(t *testing.T) {
	store := newMemStore()
	seed(store, "bench")
	svc := newTestService(store)

	draft := pushDraft()
	draft.EndTime = start.Add(-time.Minute)
	_, err := svc.CloseSession(context.Background(), 1, draft, []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")},
	})
	if !errors.Is(err, models.ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
	if store.writes != 0 {
		t.Errorf("store writes = %d, want 0", store.writes)
	}
}

// TestCloseSessionValidation verifies rejected drafts surface as constraint
// violations before reaching the store.
func TestCloseSessionValidation(t *testing.T) {
	tests := []struct {
		name  string
		draft func() SessionDraft
		sets  []SetDraft
	}{
		{
			name:  "no name",
			draft: func() SessionDraft { d := pushDraft(); d.WorkoutName = " "; return d },
		},
		{
			name:  "difficulty out of range",
			draft: func() SessionDraft { d := pushDraft(); d.DifficultyRating = ip(11); return d },
		},
		{
			name:  "zero set number",
			draft: pushDraft,
			sets:  []SetDraft{{ExerciseID: "bench", SetNumber: 0}},
		},
		{
			name:  "duplicate set number",
			draft: pushDraft,
			sets:  []SetDraft{{ExerciseID: "bench", SetNumber: 1}, {ExerciseID: "bench", SetNumber: 1}},
		},
		{
			name:  "rpe out of range",
			draft: pushDraft,
			sets:  []SetDraft{{ExerciseID: "bench", SetNumber: 1, RPE: func() *float64 { v := 11.0; return &v }()}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seed(store, "bench")
			svc := newTestService(store)
			_, err := svc.CloseSession(context.Background(), 1, tt.draft(), tt.sets)
			if !errors.Is(err, models.ErrConstraintViolation) {
				t.Errorf("err = %v, want ErrConstraintViolation", err)
			}
			if store.writes != 0 {
				t.Errorf("store writes = %d, want 0", store.writes)
			}
		})
	}
}

// TestCloseSessionUnknownExercise verifies that a nameless set for an
// exercise missing from the catalog is not found.
func TestCloseSessionUnknownExercise(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{{ExerciseID: "ghost", SetNumber: 1}})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestCloseSessionTransactionalRollback verifies that a failing set write in a
// transactional store leaves neither header nor sets.
func TestCloseSessionTransactionalRollback(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	store.failInsertSets = errors.New("disk full")
	svc := newTestService(store)

	_, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if store.sessionCount() != 0 {
		t.Errorf("sessions after rollback = %d, want 0", store.sessionCount())
	}
}

// TestCloseSessionCompensates verifies that without transactions a failing
// set write is undone by deleting the header.
func TestCloseSessionCompensates(t *testing.T) {
	store := newMemStore()
	seed(store, "bench")
	store.failInsertSets = errors.New("disk full")
	svc := newTestService(store)

	_, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if store.sessionCount() != 0 {
		t.Errorf("sessions after compensation = %d, want 0", store.sessionCount())
	}
}

// TestCloseSessionCompensationFailure verifies that a failed compensating
// delete is reported together with the original error.
func TestCloseSessionCompensationFailure(t *testing.T) {
	store := newMemStore()
	seed(store, "bench")
	writeErr := errors.New("disk full")
	deleteErr := errors.New("connection lost")
	store.failInsertSets = writeErr
	store.failDelete = deleteErr
	m := metrics.NewTestManager()
	svc := NewService(store, discardLogger(), WithMetrics(m))

	_, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")},
	})
	if !errors.Is(err, writeErr) || !errors.Is(err, deleteErr) {
		t.Errorf("err = %v, want both write and delete errors", err)
	}
	if got := testutil.ToFloat64(m.CounterRollbackErrors); got != 1 {
		t.Errorf("rollback error counter = %v, want 1", got)
	}
}

// TestCloseSessionRecordsBests verifies that closing a session creates
// records for the fields its sets carry.
func TestCloseSessionRecordsBests(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench", "plank")
	m := metrics.NewTestManager()
	svc := NewService(store, discardLogger(), WithMetrics(m), WithIDGenerator(sequentialIDs()))

	res, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{
		{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("8")},
		{ExerciseID: "bench", SetNumber: 2, Weight: sp("105"), Reps: sp("5")},
		{ExerciseID: "plank", SetNumber: 1, DurationSeconds: ip(90)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.PersonalBests) != 3 {
		t.Fatalf("personal bests = %d, want 3 (weight, reps, time)", len(res.PersonalBests))
	}

	w, err := store.GetPersonalBest(context.Background(), 1, "bench", models.RecordMaxWeight)
	if err != nil {
		t.Fatal(err)
	}
	if *w.Weight != "105" {
		t.Errorf("max_weight = %s, want 105", *w.Weight)
	}
	r, err := store.GetPersonalBest(context.Background(), 1, "bench", models.RecordMaxReps)
	if err != nil {
		t.Fatal(err)
	}
	if *r.Reps != "8" {
		t.Errorf("max_reps = %s, want 8", *r.Reps)
	}
	if got := testutil.ToFloat64(m.CounterSessions); got != 1 {
		t.Errorf("sessions counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CounterSets); got != 3 {
		t.Errorf("sets counter = %v, want 3", got)
	}
}

// TestReplaceSession verifies that re-importing a session with the same
// start and name replaces the earlier copy.
func TestReplaceSession(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	svc := newTestService(store)
	sets := []SetDraft{{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")}}

	for i := 0; i < 2; i++ {
		if _, err := svc.ReplaceSession(context.Background(), 1, pushDraft(), sets); err != nil {
			t.Fatal(err)
		}
	}
	if store.sessionCount() != 1 || store.setCount() != 1 {
		t.Errorf("after two imports: %d sessions, %d sets; want 1, 1", store.sessionCount(), store.setCount())
	}
}

// TestUpdateSessionNotes verifies that only notes and difficulty change.
func TestUpdateSessionNotes(t *testing.T) {
	store := txMemStore{newMemStore()}
	seed(store.memStore, "bench")
	svc := newTestService(store)

	res, err := svc.CloseSession(context.Background(), 1, pushDraft(), []SetDraft{{ExerciseID: "bench", SetNumber: 1, Weight: sp("100"), Reps: sp("10")}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.UpdateSessionNotes(context.Background(), 1, res.Session.ID, sp("felt strong"), ip(7))
	if err != nil {
		t.Fatal(err)
	}
	if *got.Notes != "felt strong" || *got.DifficultyRating != 7 {
		t.Errorf("notes/difficulty = %v/%v", got.Notes, got.DifficultyRating)
	}
	if got.CalculatedTotalVolume != 1000 {
		t.Errorf("volume changed to %v", got.CalculatedTotalVolume)
	}

	if _, err := svc.UpdateSessionNotes(context.Background(), 1, res.Session.ID, nil, ip(0)); !errors.Is(err, models.ErrConstraintViolation) {
		t.Errorf("difficulty 0: err = %v, want ErrConstraintViolation", err)
	}
	if _, err := svc.UpdateSessionNotes(context.Background(), 2, res.Session.ID, nil, nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("other user: err = %v, want ErrNotFound", err)
	}
}
