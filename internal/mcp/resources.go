package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	sessions, err := h.ds.ListSessions(ctx, uid, storage.SessionFilter{From: &start, To: &end})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, sessions)
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.ListExercises(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, exercises)
}

func (h *handlers) personalBests(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	pbs, err := h.ds.ListPersonalBests(ctx, UserIDFromContext(ctx), "")
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, pbs)
}
