package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolSyncStatus = mcp.NewTool("sync_status",
	mcp.WithDescription("Current sync state (idle/syncing/error with progress and message), last sync date, last result, and whether a pending payload awaits retry."),
)

var toolPerformSync = mcp.NewTool("perform_sync",
	mcp.WithDescription("Run a full sync over a date range. Fetches health data, aggregates daily summaries, scores completeness, and uploads the encrypted payload to the vault."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 365 days before end.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolRetrySync = mcp.NewTool("retry_sync",
	mcp.WithDescription("Re-upload the pending payload from a failed sync attempt without re-fetching or re-aggregating."),
)

var toolGetDailySummary = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Daily summary (per-metric totals/averages and sleep stages) for one date from the last built payload."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD)")),
)

var toolGetCompleteness = mcp.NewTool("get_completeness",
	mcp.WithDescription("Completeness score, tier, core coverage, and days covered from the last built payload's manifest."),
)

// --- Tool handlers ---

func (h *handlers) syncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := map[string]any{
		"state":       h.sy.State(),
		"has_pending": h.sy.HasPending(),
	}
	if last, ok := h.sy.LastSyncDate(); ok {
		status["last_sync_date"] = last.Format(time.RFC3339)
	}
	if r := h.sy.LastResult(); r != nil {
		status["last_result"] = r
	}

	result, err := mcp.NewToolResultJSON(status)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) performSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := parseRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	res, err := h.sy.PerformFullSync(ctx, start, end)
	if err != nil {
		h.log.Error("mcp perform_sync", "error", err)
		return mcp.NewToolResultError("sync failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) retrySync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.sy.RetrySync(ctx)
	if err != nil {
		h.log.Error("mcp retry_sync", "error", err)
		return mcp.NewToolResultError("retry failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}

	payload := h.sy.LastPayload()
	if payload == nil {
		return mcp.NewToolResultError("no payload built yet, run perform_sync first"), nil
	}

	day, ok := payload.DailySummaries[date]
	if !ok {
		return mcp.NewToolResultError("no data for " + date), nil
	}

	result, err := mcp.NewToolResultJSON(day)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCompleteness(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload := h.sy.LastPayload()
	if payload == nil {
		return mcp.NewToolResultError("no payload built yet, run perform_sync first"), nil
	}

	result, err := mcp.NewToolResultJSON(payload.Manifest.Completeness)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) manifestResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := h.sy.LastPayload()
	if payload == nil {
		return nil, nil
	}

	data, err := json.Marshal(payload.Manifest)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// parseRange parses optional start/end strings; zero times let the syncer
// apply its defaults.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
