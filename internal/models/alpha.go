package models

import "time"

// AlphaSession is one workout parsed from an Alpha Progression export.
// Start is the local wall-clock start as exported, read as UTC.
type AlphaSession struct {
	Name      string
	Start     time.Time
	Duration  string
	Elapsed   time.Duration
	Exercises []AlphaExercise
}

// AlphaExercise is a single exercise block within a session.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []AlphaSet
}

// AlphaSet is a single warm-up or working set. WeightText is the weight
// cell exactly as exported ("102,5", "+35"). RIR is nil when the export
// marks it untracked.
type AlphaSet struct {
	Number           int
	WeightText       string
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              *float64
	IsWarmup         bool
}
