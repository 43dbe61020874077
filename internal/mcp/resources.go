package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/workout"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const recentDays = 14

// sessionSummary condenses a session for the recent_sessions resource.
type sessionSummary struct {
	ID        uuid.UUID  `json:"id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Exercises []string   `json:"exercises"`
	Sets      int        `json:"sets"`
	Reps      int        `json:"reps"`
	Volume    float64    `json:"volume"`
}

func summarize(d *models.SessionDetail) sessionSummary {
	sum := sessionSummary{
		ID:        d.ID,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
		Exercises: make([]string, 0, len(d.Exercises)),
	}
	for _, ex := range d.Exercises {
		sum.Exercises = append(sum.Exercises, ex.Name)
		for _, set := range ex.Sets {
			sum.Sets++
			sum.Reps += int(set.Reps)
			sum.Volume += float64(set.Reps) * set.Weight
		}
	}
	return sum
}

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	detail, err := h.ds.ActiveSession(ctx)
	if err != nil && !errors.Is(err, workout.ErrNotFound) {
		return nil, err
	}
	// A nil detail marshals as null.
	return jsonContents(req.Params.URI, detail)
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -recentDays)

	sessions, err := h.ds.ListSessions(ctx, start, end)
	if err != nil {
		return nil, err
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		detail, err := h.ds.GetSession(ctx, s.ID)
		if err != nil {
			h.log.Warn("recent_sessions: session lookup failed", "session", s.ID, "error", err)
			continue
		}
		summaries = append(summaries, summarize(detail))
	}

	return jsonContents(req.Params.URI, summaries)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
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
