package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
)

// Bridge fetches samples from the Health Auto Export TCP server
// (JSON-RPC 2.0, newline-delimited framing). Each call opens a new TCP
// connection — the bridge closes the socket after sending the response.
type Bridge struct {
	host    string
	port    int
	timeout time.Duration
	log     *slog.Logger
}

// NewBridge creates a client for the health bridge at host:port.
func NewBridge(host string, port int, log *slog.Logger) *Bridge {
	return &Bridge{
		host:    host,
		port:    port,
		timeout: 120 * time.Second,
		log:     log,
	}
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// quantitySample is the numeric-statistics retrieval shape.
type quantitySample struct {
	Date   models.SampleTime `json:"date"`
	Qty    float64           `json:"qty"`
	Source string            `json:"source,omitempty"`
	Device string            `json:"device,omitempty"`
}

// categorySample is the label retrieval shape used by sleep stages.
type categorySample struct {
	StartDate models.SampleTime `json:"startDate"`
	EndDate   models.SampleTime `json:"endDate"`
	Value     string            `json:"value"`
	Source    string            `json:"source,omitempty"`
	Device    string            `json:"device,omitempty"`
}

// workoutSample is the episodic-event retrieval shape.
type workoutSample struct {
	Name   string            `json:"name"`
	Start  models.SampleTime `json:"start"`
	End    models.SampleTime `json:"end"`
	Source string            `json:"source,omitempty"`
	Device string            `json:"device,omitempty"`
}

// Fetch retrieves all samples for one kind, dispatching to the retrieval
// shape the kind's category requires.
func (b *Bridge) Fetch(ctx context.Context, kind metrics.Kind, start, end time.Time) ([]models.DataPoint, error) {
	switch metrics.CategoryOf(kind) {
	case metrics.Sleep:
		return b.fetchCategory(ctx, kind, start, end)
	case metrics.Workout:
		return b.fetchWorkouts(ctx, start, end)
	default:
		return b.fetchQuantity(ctx, kind, start, end)
	}
}

func (b *Bridge) fetchQuantity(ctx context.Context, kind metrics.Kind, start, end time.Time) ([]models.DataPoint, error) {
	result, err := b.callTool(ctx, "health_metrics", map[string]any{
		"metrics": string(kind),
		"start":   start.Format(models.SampleTimeLayout),
		"end":     end.Format(models.SampleTimeLayout),
	})
	if err != nil {
		return nil, err
	}

	var samples []quantitySample
	if err := json.Unmarshal(result, &samples); err != nil {
		return nil, fmt.Errorf("parsing %s samples: %w", kind, err)
	}

	points := make([]models.DataPoint, 0, len(samples))
	for _, s := range samples {
		points = append(points, models.DataPoint{
			Kind:      string(kind),
			Value:     strconv.FormatFloat(s.Qty, 'f', -1, 64),
			StartTime: s.Date.Time,
			EndTime:   s.Date.Time,
			Source:    s.Source,
			Device:    s.Device,
		})
	}
	return points, nil
}

func (b *Bridge) fetchCategory(ctx context.Context, kind metrics.Kind, start, end time.Time) ([]models.DataPoint, error) {
	result, err := b.callTool(ctx, "category_samples", map[string]any{
		"type":  string(kind),
		"start": start.Format(models.SampleTimeLayout),
		"end":   end.Format(models.SampleTimeLayout),
	})
	if err != nil {
		return nil, err
	}

	var samples []categorySample
	if err := json.Unmarshal(result, &samples); err != nil {
		return nil, fmt.Errorf("parsing %s samples: %w", kind, err)
	}

	points := make([]models.DataPoint, 0, len(samples))
	for _, s := range samples {
		points = append(points, models.DataPoint{
			Kind:      string(kind),
			Value:     s.Value,
			StartTime: s.StartDate.Time,
			EndTime:   s.EndDate.Time,
			Source:    s.Source,
			Device:    s.Device,
		})
	}
	return points, nil
}

func (b *Bridge) fetchWorkouts(ctx context.Context, start, end time.Time) ([]models.DataPoint, error) {
	result, err := b.callTool(ctx, "workouts", map[string]any{
		"start": start.Format(models.SampleTimeLayout),
		"end":   end.Format(models.SampleTimeLayout),
	})
	if err != nil {
		return nil, err
	}

	var samples []workoutSample
	if err := json.Unmarshal(result, &samples); err != nil {
		return nil, fmt.Errorf("parsing workouts: %w", err)
	}

	points := make([]models.DataPoint, 0, len(samples))
	for _, s := range samples {
		points = append(points, models.DataPoint{
			Kind:      string(metrics.WorkoutType),
			Value:     s.Name,
			StartTime: s.Start.Time,
			EndTime:   s.End.Time,
			Source:    s.Source,
			Device:    s.Device,
		})
	}
	return points, nil
}

// callTool sends a JSON-RPC callTool request and returns the result. Dial
// failures are reported as ErrUnavailable so callers can distinguish "bridge
// gone" from a per-metric error.
func (b *Bridge) callTool(ctx context.Context, toolName string, args map[string]any) (json.RawMessage, error) {
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "callTool",
		Params: callToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	addr := net.JoinHostPort(b.host, strconv.Itoa(b.port))
	dialer := net.Dialer{Timeout: b.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to %s: %v", ErrUnavailable, addr, err)
	}
	defer conn.Close() //nolint:errcheck

	if err := conn.SetDeadline(time.Now().Add(b.timeout)); err != nil {
		return nil, fmt.Errorf("setting deadline: %w", err)
	}

	// Newline-delimited JSON-RPC framing.
	reqData = append(reqData, '\n')

	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// The bridge closes the connection after the response, so read until EOF.
	respData, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if len(respData) == 0 {
		return nil, fmt.Errorf("empty response from %s", addr)
	}

	var resp jsonRPCResponse
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("bridge error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	return resp.Result, nil
}
