package mcp

import (
	"context"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	return timeRange(startStr, endStr, 7)
}

// timeRange parses optional bounds; a missing start lies days before end.
func timeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// PeriodSummary aggregates the sessions that started in one bucket.
type PeriodSummary struct {
	PeriodStart     time.Time `json:"period_start"`
	Sessions        int       `json:"sessions"`
	Sets            int       `json:"sets"`
	Volume          float64   `json:"volume"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// bucketStart truncates t (in UTC) to the Monday of its week or the first
// of its month.
func bucketStart(t time.Time, bucket string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if bucket == "month" {
		return day.AddDate(0, 0, 1-day.Day())
	}
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// summarizePeriods groups sessions by bucket, oldest period first.
func summarizePeriods(sessions []models.SessionSummary, bucket string) []PeriodSummary {
	byStart := make(map[time.Time]*PeriodSummary)
	for _, s := range sessions {
		key := bucketStart(s.StartTime, bucket)
		p, ok := byStart[key]
		if !ok {
			p = &PeriodSummary{PeriodStart: key}
			byStart[key] = p
		}
		p.Sessions++
		p.Sets += s.SetCount
		p.Volume += s.CalculatedTotalVolume
		p.DurationSeconds += s.TotalTimeSeconds
	}
	out := make([]PeriodSummary, 0, len(byStart))
	for _, p := range byStart {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out
}

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List closed workout sessions newest first. Each entry has the workout name, start/end time, duration, total volume, exercise count and set count."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 50.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one session with every recorded set (weight, reps, RPE, duration, distance, notes)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog: global exercises plus the user's own."),
)

var toolGetPersonalBests = mcp.NewTool("get_personal_bests",
	mcp.WithDescription("Current personal bests (max_weight, max_reps, best_time, max_distance) with the date and session they were set in."),
	mcp.WithString("exercise_id", mcp.Description("Restrict to one exercise")),
)

var toolSuggestProgression = mcp.NewTool("suggest_progression",
	mcp.WithDescription("Suggest the next target weight and reps for an exercise from its most recent session and the user's progression settings. Returns null when no suggestion applies."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithString("target_reps", mcp.Description("Rep target such as '8' or '8-12'. Defaults to the prescription in the session's workout definition.")),
)

var toolGetProgressionSettings = mcp.NewTool("get_progression_settings",
	mcp.WithDescription("The user's progression model and increments."),
)

var toolGetMeasurements = mcp.NewTool("get_measurements",
	mcp.WithDescription("Bodyweight and body part measurements, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of entries. Defaults to 30.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly or monthly training totals: session count, set count, volume and time trained per period."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'week'."), mcp.Enum("week", "month")),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("Totals of stored sessions, sets, personal bests and measurements, plus per-workout counts."),
)

// --- Tool handlers ---

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) queryFailed(tool string, err error) (*mcp.CallToolResult, error) {
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("query failed: " + err.Error()), nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	f := storage.SessionFilter{From: &start, To: &end, Limit: req.GetInt("limit", 50)}
	sessions, err := h.ds.ListSessions(ctx, UserIDFromContext(ctx), f)
	if err != nil {
		return h.queryFailed("list_sessions", err)
	}
	return jsonResult(sessions)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	detail, err := h.ds.GetSession(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		return h.queryFailed("get_session", err)
	}
	return jsonResult(detail)
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.queryFailed("list_exercises", err)
	}
	return jsonResult(exercises)
}

func (h *handlers) getPersonalBests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pbs, err := h.ds.ListPersonalBests(ctx, UserIDFromContext(ctx), req.GetString("exercise_id", ""))
	if err != nil {
		return h.queryFailed("get_personal_bests", err)
	}
	return jsonResult(pbs)
}

func (h *handlers) suggestProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	sug, err := h.ds.SuggestProgression(ctx, UserIDFromContext(ctx), exerciseID, req.GetString("target_reps", ""))
	if err != nil {
		return h.queryFailed("suggest_progression", err)
	}
	if sug == nil {
		return mcp.NewToolResultText("no progression suggestion: progression is disabled, there is no history, or no rep target could be read"), nil
	}
	return jsonResult(sug)
}

func (h *handlers) getProgressionSettings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := h.ds.GetProgressionSettings(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.queryFailed("get_progression_settings", err)
	}
	return jsonResult(settings)
}

func (h *handlers) getMeasurements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms, err := h.ds.ListMeasurements(ctx, UserIDFromContext(ctx), req.GetInt("limit", 30))
	if err != nil {
		return h.queryFailed("get_measurements", err)
	}
	return jsonResult(ms)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "week")

	sessions, err := h.ds.ListSessions(ctx, UserIDFromContext(ctx), storage.SessionFilter{From: &start, To: &end})
	if err != nil {
		return h.queryFailed("get_training_summary", err)
	}
	return jsonResult(map[string]any{
		"bucket":  bucket,
		"periods": summarizePeriods(sessions, bucket),
	})
}

func (h *handlers) getDataStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.queryFailed("get_data_stats", err)
	}
	return jsonResult(stats)
}
