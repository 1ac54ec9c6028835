package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/training"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// resolves the user from the tailnet peer, so user ids passed in are
// ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and returns the body and status. 404 maps to
// models.ErrNotFound; other non-2xx statuses are errors.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	return body, resp.StatusCode, nil
}

func getJSON[T any](ctx context.Context, c *HTTPClient, path string, params url.Values) (T, error) {
	var v T
	body, _, err := c.get(ctx, path, params)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return v, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, _ int, f storage.SessionFilter) ([]models.SessionSummary, error) {
	params := url.Values{}
	if f.From != nil {
		params.Set("from", f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		params.Set("to", f.To.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	return getJSON[[]models.SessionSummary](ctx, c, "/api/v1/sessions", params)
}

func (c *HTTPClient) GetSession(ctx context.Context, _ int, id string) (models.SessionDetail, error) {
	return getJSON[models.SessionDetail](ctx, c, "/api/v1/sessions/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) ListExercises(ctx context.Context, _ int) ([]models.Exercise, error) {
	return getJSON[[]models.Exercise](ctx, c, "/api/v1/exercises", nil)
}

func (c *HTTPClient) ListPersonalBests(ctx context.Context, _ int, exerciseID string) ([]models.PersonalBest, error) {
	params := url.Values{}
	if exerciseID != "" {
		params.Set("exercise_id", exerciseID)
	}
	return getJSON[[]models.PersonalBest](ctx, c, "/api/v1/personal-bests", params)
}

// SuggestProgression returns nil when the server answers 204.
func (c *HTTPClient) SuggestProgression(ctx context.Context, _ int, exerciseID, targetReps string) (*training.Suggestion, error) {
	params := url.Values{}
	params.Set("exercise_id", exerciseID)
	if targetReps != "" {
		params.Set("target_reps", targetReps)
	}
	body, status, err := c.get(ctx, "/api/v1/progression/suggestion", params)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	var sug training.Suggestion
	if err := json.Unmarshal(body, &sug); err != nil {
		return nil, fmt.Errorf("httpclient: decode suggestion: %w", err)
	}
	return &sug, nil
}

func (c *HTTPClient) GetProgressionSettings(ctx context.Context, _ int) (models.ProgressionSettings, error) {
	return getJSON[models.ProgressionSettings](ctx, c, "/api/v1/progression/settings", nil)
}

func (c *HTTPClient) ListMeasurements(ctx context.Context, _ int, limit int) ([]models.Measurement, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return getJSON[[]models.Measurement](ctx, c, "/api/v1/measurements", params)
}

func (c *HTTPClient) GetDataStats(ctx context.Context, _ int) (*storage.DataStats, error) {
	stats, err := getJSON[storage.DataStats](ctx, c, "/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
