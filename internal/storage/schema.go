package storage

// sqliteSchema mirrors migrations/000001_init.up.sql for the embedded backend.
// Timestamp columns are declared TIMESTAMP/DATE so the driver parses them
// back into time.Time.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	login        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS exercises (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL COLLATE NOCASE CHECK (name <> ''),
	category     TEXT NOT NULL DEFAULT '',
	instructions TEXT,
	video_url    TEXT,
	created_by   INTEGER REFERENCES users(id) ON DELETE SET NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS exercises_name_key ON exercises (name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS workout_definitions (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       TEXT NOT NULL CHECK (name <> ''),
	type       TEXT,
	is_public  BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS workout_definitions_user_idx ON workout_definitions (user_id);

CREATE TABLE IF NOT EXISTS definition_exercises (
	definition_id        TEXT NOT NULL REFERENCES workout_definitions(id) ON DELETE CASCADE,
	order_index          INTEGER NOT NULL CHECK (order_index >= 0),
	exercise_id          TEXT NOT NULL REFERENCES exercises(id),
	default_sets         INTEGER CHECK (default_sets IS NULL OR default_sets > 0),
	default_reps         TEXT,
	default_rest_seconds INTEGER CHECK (default_rest_seconds IS NULL OR default_rest_seconds >= 0),
	target_rpe           REAL CHECK (target_rpe IS NULL OR (target_rpe >= 1 AND target_rpe <= 10)),
	notes                TEXT,
	PRIMARY KEY (definition_id, order_index)
);

CREATE TABLE IF NOT EXISTS workout_sessions (
	id                      TEXT PRIMARY KEY,
	user_id                 INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	definition_id           TEXT REFERENCES workout_definitions(id) ON DELETE SET NULL,
	workout_name            TEXT NOT NULL,
	workout_type            TEXT,
	start_time              TIMESTAMP NOT NULL,
	end_time                TIMESTAMP NOT NULL,
	total_time_seconds      INTEGER NOT NULL CHECK (total_time_seconds >= 0),
	difficulty_rating       INTEGER CHECK (difficulty_rating IS NULL OR (difficulty_rating >= 1 AND difficulty_rating <= 10)),
	notes                   TEXT,
	calculated_total_volume REAL NOT NULL DEFAULT 0,
	created_at              TIMESTAMP NOT NULL,
	CHECK (end_time >= start_time)
);
CREATE INDEX IF NOT EXISTS workout_sessions_user_start_idx ON workout_sessions (user_id, start_time DESC);

CREATE TABLE IF NOT EXISTS recorded_sets (
	id               TEXT PRIMARY KEY,
	session_id       TEXT NOT NULL REFERENCES workout_sessions(id) ON DELETE CASCADE,
	exercise_id      TEXT NOT NULL REFERENCES exercises(id),
	exercise_name    TEXT NOT NULL,
	set_number       INTEGER NOT NULL CHECK (set_number > 0),
	weight           TEXT,
	reps             TEXT,
	rpe              REAL CHECK (rpe IS NULL OR (rpe >= 1 AND rpe <= 10)),
	duration_seconds INTEGER CHECK (duration_seconds IS NULL OR duration_seconds >= 0),
	distance         TEXT,
	notes            TEXT,
	position         INTEGER NOT NULL DEFAULT 0,
	UNIQUE (session_id, exercise_id, set_number)
);
CREATE INDEX IF NOT EXISTS recorded_sets_exercise_idx ON recorded_sets (exercise_id);

CREATE TABLE IF NOT EXISTS personal_bests (
	id            TEXT PRIMARY KEY,
	user_id       INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	exercise_id   TEXT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
	exercise_name TEXT NOT NULL,
	record_type   TEXT NOT NULL CHECK (record_type IN ('max_weight', 'max_reps', 'best_time', 'max_distance')),
	weight        TEXT,
	reps          TEXT,
	time_seconds  INTEGER,
	distance      TEXT,
	score         REAL NOT NULL,
	date_achieved TIMESTAMP NOT NULL,
	session_id    TEXT REFERENCES workout_sessions(id) ON DELETE SET NULL,
	notes         TEXT,
	updated_at    TIMESTAMP NOT NULL,
	UNIQUE (user_id, exercise_id, record_type)
);

CREATE TABLE IF NOT EXISTS measurements (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       DATE NOT NULL,
	bodyweight TEXT NOT NULL,
	body_parts TEXT,
	notes      TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS measurements_user_date_idx ON measurements (user_id, date DESC);

CREATE TABLE IF NOT EXISTS progression_settings (
	user_id                             INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	enable_progression                  BOOLEAN NOT NULL,
	selected_model                      TEXT NOT NULL CHECK (selected_model IN ('linear_weight', 'linear_reps', 'double_progression', 'none')),
	linear_weight_increment             REAL NOT NULL,
	linear_weight_condition             TEXT NOT NULL DEFAULT '',
	linear_reps_increment               INTEGER NOT NULL,
	linear_reps_condition               TEXT NOT NULL DEFAULT '',
	double_progression_rep_range        TEXT NOT NULL,
	double_progression_weight_increment REAL NOT NULL,
	double_progression_condition        TEXT NOT NULL DEFAULT '',
	updated_at                          TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS import_logs (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at        TIMESTAMP NOT NULL,
	source            TEXT NOT NULL,
	status            TEXT NOT NULL,
	sessions_received INTEGER NOT NULL DEFAULT 0,
	sessions_inserted INTEGER NOT NULL DEFAULT 0,
	sets_inserted     INTEGER NOT NULL DEFAULT 0,
	personal_bests    INTEGER NOT NULL DEFAULT 0,
	duration_ms       INTEGER,
	error_message     TEXT
);
CREATE INDEX IF NOT EXISTS import_logs_user_idx ON import_logs (user_id, created_at DESC);
`
