package models

import "time"

// Exercise is a catalog entry. CreatedBy is nil for global exercises.
type Exercise struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Instructions *string   `json:"instructions,omitempty"`
	VideoURL     *string   `json:"video_url,omitempty"`
	CreatedBy    *int      `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkoutDefinition is a reusable workout template owned by one user.
type WorkoutDefinition struct {
	ID        string                 `json:"id"`
	UserID    int                    `json:"user_id"`
	Name      string                 `json:"name"`
	Type      *string                `json:"type,omitempty"`
	IsPublic  bool                   `json:"is_public"`
	Exercises []ExercisePrescription `json:"exercises"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ExercisePrescription is one exercise slot in a definition.
// DefaultReps is free-form ("10", "8-12").
type ExercisePrescription struct {
	ExerciseID         string   `json:"exercise_id"`
	ExerciseName       string   `json:"exercise_name,omitempty"`
	OrderIndex         int      `json:"order_index"`
	DefaultSets        *int     `json:"default_sets,omitempty"`
	DefaultReps        *string  `json:"default_reps,omitempty"`
	DefaultRestSeconds *int     `json:"default_rest_seconds,omitempty"`
	TargetRPE          *float64 `json:"target_rpe,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

// WorkoutSession is a closed training session. WorkoutName and WorkoutType
// are captured when the session is recorded and never re-joined.
type WorkoutSession struct {
	ID                    string    `json:"id"`
	UserID                int       `json:"user_id"`
	DefinitionID          *string   `json:"definition_id,omitempty"`
	WorkoutName           string    `json:"workout_name"`
	WorkoutType           *string   `json:"workout_type,omitempty"`
	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	TotalTimeSeconds      int64     `json:"total_time_seconds"`
	DifficultyRating      *int      `json:"difficulty_rating,omitempty"`
	Notes                 *string   `json:"notes,omitempty"`
	CalculatedTotalVolume float64   `json:"calculated_total_volume"`
	CreatedAt             time.Time `json:"created_at"`
}

// RecordedSet is one performed set. Weight and Reps hold the text the user
// entered; they are parsed only for arithmetic.
type RecordedSet struct {
	ID              string   `json:"id"`
	SessionID       string   `json:"session_id"`
	ExerciseID      string   `json:"exercise_id"`
	ExerciseName    string   `json:"exercise_name"`
	SetNumber       int      `json:"set_number"`
	Weight          *string  `json:"weight,omitempty"`
	Reps            *string  `json:"reps,omitempty"`
	RPE             *float64 `json:"rpe,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	Distance        *string  `json:"distance,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

// SessionSummary is a session header with its derived set statistics.
type SessionSummary struct {
	WorkoutSession
	ExerciseCount int `json:"exercise_count"`
	SetCount      int `json:"set_count"`
}

// SessionDetail is a session with all of its sets.
type SessionDetail struct {
	SessionSummary
	Sets []RecordedSet `json:"sets"`
}

// ExerciseHistory is one past session restricted to a single exercise's sets.
type ExerciseHistory struct {
	Session WorkoutSession `json:"session"`
	Sets    []RecordedSet  `json:"sets"`
}

// RecordType is the metric a personal best is measured in.
type RecordType string

const (
	RecordMaxWeight   RecordType = "max_weight"
	RecordMaxReps     RecordType = "max_reps"
	RecordBestTime    RecordType = "best_time"
	RecordMaxDistance RecordType = "max_distance"
)

// RecordTypes lists every record type in evaluation order.
var RecordTypes = []RecordType{RecordMaxWeight, RecordMaxReps, RecordBestTime, RecordMaxDistance}

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	switch t {
	case RecordMaxWeight, RecordMaxReps, RecordBestTime, RecordMaxDistance:
		return true
	}
	return false
}

// LowerIsBetter reports whether smaller values beat larger ones.
func (t RecordType) LowerIsBetter() bool {
	return t == RecordBestTime
}

// PersonalBest is the current best for (UserID, ExerciseID, RecordType).
// Exactly one of Weight, Reps, TimeSeconds, Distance is set; Score is its
// numeric value used for comparison.
type PersonalBest struct {
	ID           string     `json:"id"`
	UserID       int        `json:"user_id"`
	ExerciseID   string     `json:"exercise_id"`
	ExerciseName string     `json:"exercise_name"`
	RecordType   RecordType `json:"record_type"`
	Weight       *string    `json:"weight,omitempty"`
	Reps         *string    `json:"reps,omitempty"`
	TimeSeconds  *int       `json:"time_seconds,omitempty"`
	Distance     *string    `json:"distance,omitempty"`
	Score        float64    `json:"score"`
	DateAchieved time.Time  `json:"date_achieved"`
	SessionID    *string    `json:"session_id,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Measurement is one bodyweight log entry.
type Measurement struct {
	ID         string             `json:"id"`
	UserID     int                `json:"user_id"`
	Date       time.Time          `json:"date"`
	Bodyweight string             `json:"bodyweight"`
	BodyParts  map[string]float64 `json:"body_parts,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ProgressionModel selects how the advisor turns history into a target.
type ProgressionModel string

const (
	ModelLinearWeight      ProgressionModel = "linear_weight"
	ModelLinearReps        ProgressionModel = "linear_reps"
	ModelDoubleProgression ProgressionModel = "double_progression"
	ModelNone              ProgressionModel = "none"
)

// Valid reports whether m is a known model.
func (m ProgressionModel) Valid() bool {
	switch m {
	case ModelLinearWeight, ModelLinearReps, ModelDoubleProgression, ModelNone:
		return true
	}
	return false
}

// ProgressionSettings is a user's progression policy.
type ProgressionSettings struct {
	UserID                           int              `json:"user_id"`
	EnableProgression                bool             `json:"enable_progression"`
	SelectedModel                    ProgressionModel `json:"selected_model"`
	LinearWeightIncrement            float64          `json:"linear_weight_increment"`
	LinearWeightCondition            string           `json:"linear_weight_condition"`
	LinearRepsIncrement              int              `json:"linear_reps_increment"`
	LinearRepsCondition              string           `json:"linear_reps_condition"`
	DoubleProgressionRepRange        string           `json:"double_progression_rep_range"`
	DoubleProgressionWeightIncrement float64          `json:"double_progression_weight_increment"`
	DoubleProgressionCondition       string           `json:"double_progression_condition"`
	UpdatedAt                        time.Time        `json:"updated_at"`
}

// DefaultProgressionSettings is the policy used for users who never saved one.
func DefaultProgressionSettings(userID int) ProgressionSettings {
	return ProgressionSettings{
		UserID:                           userID,
		EnableProgression:                true,
		SelectedModel:                    ModelLinearWeight,
		LinearWeightIncrement:            2.5,
		LinearWeightCondition:            "all sets reach the top of the rep target",
		LinearRepsIncrement:              1,
		LinearRepsCondition:              "all sets at or below the bottom of the rep target",
		DoubleProgressionRepRange:        "8-12",
		DoubleProgressionWeightIncrement: 2.5,
		DoubleProgressionCondition:       "all sets reach the top of the rep range",
	}
}
