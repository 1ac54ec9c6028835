package training

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// memStore is an in-memory Store without transactions.
type memStore struct {
	mu           sync.Mutex
	exercises    map[string]models.Exercise
	definitions  map[string]models.WorkoutDefinition
	sessions     map[string]models.WorkoutSession
	sets         []models.RecordedSet
	bests        map[string]models.PersonalBest
	measurements []models.Measurement
	settings     map[int]models.ProgressionSettings

	failInsertSets error
	failDelete     error
	writes         int
}

func newMemStore() *memStore {
	return &memStore{
		exercises:   make(map[string]models.Exercise),
		definitions: make(map[string]models.WorkoutDefinition),
		sessions:    make(map[string]models.WorkoutSession),
		bests:       make(map[string]models.PersonalBest),
		settings:    make(map[int]models.ProgressionSettings),
	}
}

func (m *memStore) CreateExercise(_ context.Context, e models.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.exercises {
		if strings.EqualFold(x.Name, e.Name) {
			return &models.ConstraintError{Constraint: "exercises_name_key"}
		}
	}
	m.exercises[e.ID] = e
	return nil
}

func (m *memStore) GetExercise(_ context.Context, id string) (models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[id]
	if !ok {
		return e, models.NotFoundError("exercise", id)
	}
	return e, nil
}

func (m *memStore) FindExerciseByName(_ context.Context, name string) (models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.exercises {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return models.Exercise{}, models.NotFoundError("exercise", name)
}

func (m *memStore) ListExercises(_ context.Context, userID int) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Exercise
	for _, e := range m.exercises {
		if e.CreatedBy == nil || *e.CreatedBy == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateDefinition(_ context.Context, d models.WorkoutDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions[d.ID] = d
	return nil
}

func (m *memStore) GetDefinition(_ context.Context, userID int, id string) (models.WorkoutDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.definitions[id]
	if !ok || (d.UserID != userID && !d.IsPublic) {
		return models.WorkoutDefinition{}, models.NotFoundError("workout definition", id)
	}
	return d, nil
}

func (m *memStore) ListDefinitions(_ context.Context, userID int, includePublic bool) ([]models.WorkoutDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WorkoutDefinition
	for _, d := range m.definitions {
		if d.UserID == userID || (includePublic && d.IsPublic) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) UpdateDefinition(_ context.Context, d models.WorkoutDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.definitions[d.ID]
	if !ok || cur.UserID != d.UserID {
		return models.NotFoundError("workout definition", d.ID)
	}
	m.definitions[d.ID] = d
	return nil
}

func (m *memStore) DeleteDefinition(_ context.Context, userID int, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.definitions[id]
	if !ok || cur.UserID != userID {
		return models.NotFoundError("workout definition", id)
	}
	delete(m.definitions, id)
	return nil
}

func (m *memStore) InsertSession(_ context.Context, s models.WorkoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.sessions[s.ID]; dup {
		return &models.ConstraintError{Constraint: "workout_sessions_pkey"}
	}
	m.sessions[s.ID] = s
	m.writes++
	return nil
}

func (m *memStore) InsertSets(_ context.Context, sets []models.RecordedSet) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertSets != nil {
		return 0, m.failInsertSets
	}
	for _, s := range sets {
		if _, ok := m.exercises[s.ExerciseID]; !ok {
			return 0, &models.ConstraintError{Constraint: "recorded_sets_exercise_id_fkey"}
		}
	}
	m.sets = append(m.sets, sets...)
	m.writes++
	return int64(len(sets)), nil
}

func (m *memStore) GetSession(_ context.Context, userID int, id string) (models.WorkoutSession, []models.RecordedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return s, nil, models.NotFoundError("session", id)
	}
	var sets []models.RecordedSet
	for _, r := range m.sets {
		if r.SessionID == id {
			sets = append(sets, r)
		}
	}
	return s, sets, nil
}

func (m *memStore) ListSessions(_ context.Context, userID int, _ storage.SessionFilter) ([]models.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SessionSummary
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, models.SessionSummary{WorkoutSession: s})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memStore) UpdateSessionNotes(_ context.Context, userID int, id string, notes *string, difficulty *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return models.NotFoundError("session", id)
	}
	s.Notes, s.DifficultyRating = notes, difficulty
	m.sessions[id] = s
	return nil
}

func (m *memStore) deleteSessionLocked(id string) {
	delete(m.sessions, id)
	kept := m.sets[:0]
	for _, r := range m.sets {
		if r.SessionID != id {
			kept = append(kept, r)
		}
	}
	m.sets = kept
}

func (m *memStore) DeleteSession(_ context.Context, userID int, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return models.NotFoundError("session", id)
	}
	m.deleteSessionLocked(id)
	return nil
}

func (m *memStore) DeleteSessionsAt(_ context.Context, userID int, start time.Time, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.UserID == userID && s.StartTime.Equal(start) && s.WorkoutName == name {
			m.deleteSessionLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) ExerciseHistory(_ context.Context, userID int, exerciseID string, limit int) ([]models.ExerciseHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExerciseHistory
	for _, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		h := models.ExerciseHistory{Session: s}
		for _, r := range m.sets {
			if r.SessionID == s.ID && r.ExerciseID == exerciseID {
				h.Sets = append(h.Sets, r)
			}
		}
		if len(h.Sets) > 0 {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Session.EndTime.After(out[j].Session.EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func pbKey(userID int, exerciseID string, rt models.RecordType) string {
	return fmt.Sprintf("%d/%s/%s", userID, exerciseID, rt)
}

func (m *memStore) UpsertPersonalBest(_ context.Context, pb models.PersonalBest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pbKey(pb.UserID, pb.ExerciseID, pb.RecordType)
	cur, ok := m.bests[key]
	if ok && !beats(pb.Score, cur.Score, pb.RecordType) {
		return false, nil
	}
	if ok {
		pb.ID = cur.ID
	}
	m.bests[key] = pb
	return true, nil
}

func (m *memStore) GetPersonalBest(_ context.Context, userID int, exerciseID string, rt models.RecordType) (models.PersonalBest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pb, ok := m.bests[pbKey(userID, exerciseID, rt)]
	if !ok {
		return pb, models.NotFoundError("personal best", exerciseID)
	}
	return pb, nil
}

func (m *memStore) ListPersonalBests(_ context.Context, userID int, exerciseID string) ([]models.PersonalBest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PersonalBest
	for _, pb := range m.bests {
		if pb.UserID == userID && (exerciseID == "" || pb.ExerciseID == exerciseID) {
			out = append(out, pb)
		}
	}
	return out, nil
}

func (m *memStore) InsertMeasurement(_ context.Context, ms models.Measurement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.measurements = append(m.measurements, ms)
	return nil
}

func (m *memStore) ListMeasurements(_ context.Context, userID, _ int) ([]models.Measurement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Measurement
	for _, ms := range m.measurements {
		if ms.UserID == userID {
			out = append(out, ms)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memStore) LatestMeasurement(ctx context.Context, userID int) (models.Measurement, error) {
	list, _ := m.ListMeasurements(ctx, userID, 1)
	if len(list) == 0 {
		return models.Measurement{}, models.NotFoundError("measurement", "latest")
	}
	return list[0], nil
}

func (m *memStore) GetProgressionSettings(_ context.Context, userID int) (models.ProgressionSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return s, models.NotFoundError("progression settings", fmt.Sprint(userID))
	}
	return s, nil
}

func (m *memStore) UpsertProgressionSettings(_ context.Context, s models.ProgressionSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = s
	return nil
}

func (m *memStore) GetDataStats(_ context.Context, userID int) (*storage.DataStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &storage.DataStats{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			stats.TotalSessions++
		}
	}
	return stats, nil
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sets)
}

// txMemStore adds all-or-nothing transactions by snapshotting sessions and sets.
type txMemStore struct {
	*memStore
}

func (t txMemStore) WithTx(ctx context.Context, fn func(Store) error) error {
	t.mu.Lock()
	sessions := make(map[string]models.WorkoutSession, len(t.sessions))
	for k, v := range t.sessions {
		sessions[k] = v
	}
	sets := append([]models.RecordedSet(nil), t.sets...)
	t.mu.Unlock()

	if err := fn(t.memStore); err != nil {
		t.mu.Lock()
		t.sessions, t.sets = sessions, sets
		t.mu.Unlock()
		return err
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

var fixedNow = time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	return NewService(store, discardLogger(),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func seed(m *memStore, ids ...string) {
	for _, id := range ids {
		m.exercises[id] = models.Exercise{ID: id, Name: strings.ToUpper(id[:1]) + id[1:]}
	}
}

func sp(s string) *string { return &s }
func ip(i int) *int       { return &i }
