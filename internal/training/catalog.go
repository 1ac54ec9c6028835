package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/claude/liftlog/internal/models"
)

// ExerciseInput describes a new catalog entry. Global entries have no creator.
type ExerciseInput struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Instructions *string `json:"instructions,omitempty"`
	VideoURL     *string `json:"video_url,omitempty"`
	Global       bool    `json:"global"`
}

// CreateExercise adds a catalog entry. Names are unique case-insensitively.
func (s *Service) CreateExercise(ctx context.Context, userID int, in ExerciseInput) (models.Exercise, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Exercise{}, models.Invalid("name", "required")
	}
	e := models.Exercise{
		ID:           s.newID(),
		Name:         name,
		Category:     strings.TrimSpace(in.Category),
		Instructions: in.Instructions,
		VideoURL:     in.VideoURL,
		CreatedAt:    s.now(),
	}
	if !in.Global {
		uid := userID
		e.CreatedBy = &uid
	}
	if err := s.store.CreateExercise(ctx, e); err != nil {
		return models.Exercise{}, err
	}
	return e, nil
}

// EnsureExercise returns the exercise with the given name, creating it for
// the user when the catalog has none.
func (s *Service) EnsureExercise(ctx context.Context, userID int, name, category string) (models.Exercise, error) {
	e, err := s.store.FindExerciseByName(ctx, strings.TrimSpace(name))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return e, err
	}
	e, err = s.CreateExercise(ctx, userID, ExerciseInput{Name: name, Category: category})
	if errors.Is(err, models.ErrConstraintViolation) {
		// Created concurrently by someone else.
		return s.store.FindExerciseByName(ctx, strings.TrimSpace(name))
	}
	return e, err
}

// GetExercise returns one catalog entry.
func (s *Service) GetExercise(ctx context.Context, id string) (models.Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

// ListExercises returns global entries plus the user's own.
func (s *Service) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	return s.store.ListExercises(ctx, userID)
}

// DefinitionInput is the editable part of a workout definition.
type DefinitionInput struct {
	Name      string                        `json:"name"`
	Type      *string                       `json:"type,omitempty"`
	IsPublic  bool                          `json:"is_public"`
	Exercises []models.ExercisePrescription `json:"exercises"`
}

// normalizePrescriptions sorts prescriptions by order index (stable) and
// checks that indices run densely from zero.
func (s *Service) normalizePrescriptions(ctx context.Context, ps []models.ExercisePrescription) ([]models.ExercisePrescription, error) {
	out := make([]models.ExercisePrescription, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })

	for i, p := range out {
		if p.OrderIndex != i {
			return nil, models.Invalid("order_index", "indices must run 0..%d without gaps, found %d at position %d", len(out)-1, p.OrderIndex, i)
		}
		if p.DefaultSets != nil && *p.DefaultSets <= 0 {
			return nil, models.Invalid("default_sets", "must be positive, got %d", *p.DefaultSets)
		}
		if p.DefaultRestSeconds != nil && *p.DefaultRestSeconds < 0 {
			return nil, models.Invalid("default_rest_seconds", "must not be negative, got %d", *p.DefaultRestSeconds)
		}
		if p.TargetRPE != nil && (*p.TargetRPE < 1 || *p.TargetRPE > 10) {
			return nil, models.Invalid("target_rpe", "must be between 1 and 10, got %v", *p.TargetRPE)
		}
		e, err := s.store.GetExercise(ctx, p.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("prescription %d: %w", i, err)
		}
		out[i].ExerciseName = e.Name
	}
	return out, nil
}

// CreateDefinition stores a new template owned by the user.
func (s *Service) CreateDefinition(ctx context.Context, userID int, in DefinitionInput) (models.WorkoutDefinition, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.WorkoutDefinition{}, models.Invalid("name", "required")
	}
	ps, err := s.normalizePrescriptions(ctx, in.Exercises)
	if err != nil {
		return models.WorkoutDefinition{}, err
	}
	now := s.now()
	d := models.WorkoutDefinition{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Type:      in.Type,
		IsPublic:  in.IsPublic,
		Exercises: ps,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateDefinition(ctx, d); err != nil {
		return models.WorkoutDefinition{}, err
	}
	return d, nil
}

// GetDefinition returns a template the user owns or that is public.
func (s *Service) GetDefinition(ctx context.Context, userID int, id string) (models.WorkoutDefinition, error) {
	return s.store.GetDefinition(ctx, userID, id)
}

// ListDefinitions returns the user's templates, plus public ones on request.
func (s *Service) ListDefinitions(ctx context.Context, userID int, includePublic bool) ([]models.WorkoutDefinition, error) {
	return s.store.ListDefinitions(ctx, userID, includePublic)
}

// UpdateDefinition replaces a template the user owns. Other users' public
// templates are reported as not found.
func (s *Service) UpdateDefinition(ctx context.Context, userID int, id string, in DefinitionInput) (models.WorkoutDefinition, error) {
	cur, err := s.store.GetDefinition(ctx, userID, id)
	if err != nil {
		return models.WorkoutDefinition{}, err
	}
	if cur.UserID != userID {
		return models.WorkoutDefinition{}, models.NotFoundError("workout definition", id)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.WorkoutDefinition{}, models.Invalid("name", "required")
	}
	ps, err := s.normalizePrescriptions(ctx, in.Exercises)
	if err != nil {
		return models.WorkoutDefinition{}, err
	}
	cur.Name = name
	cur.Type = in.Type
	cur.IsPublic = in.IsPublic
	cur.Exercises = ps
	cur.UpdatedAt = s.now()
	if err := s.store.UpdateDefinition(ctx, cur); err != nil {
		return models.WorkoutDefinition{}, err
	}
	return cur, nil
}

// DeleteDefinition removes a template the user owns.
func (s *Service) DeleteDefinition(ctx context.Context, userID int, id string) error {
	return s.store.DeleteDefinition(ctx, userID, id)
}
