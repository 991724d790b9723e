package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
)

// fakeBridge accepts one TCP connection per call, records the request, and
// replies with the canned response before closing the socket.
type fakeBridge struct {
	ln       net.Listener
	requests chan jsonRPCRequest
}

func startFakeBridge(t *testing.T, response string) *fakeBridge {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	fb := &fakeBridge{ln: ln, requests: make(chan jsonRPCRequest, 16)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadBytes('\n')
				if err != nil {
					return
				}
				var req jsonRPCRequest
				if json.Unmarshal(line, &req) == nil {
					fb.requests <- req
				}
				io.WriteString(conn, response)
			}(conn)
		}
	}()
	return fb
}

func (fb *fakeBridge) port() int {
	return fb.ln.Addr().(*net.TCPAddr).Port
}

func (fb *fakeBridge) lastRequest(t *testing.T) jsonRPCRequest {
	t.Helper()
	select {
	case req := <-fb.requests:
		return req
	case <-time.After(time.Second):
		t.Fatal("no request received")
		return jsonRPCRequest{}
	}
}

func testRange() (time.Time, time.Time) {
	end := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -7), end
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBridgeFetchQuantity(t *testing.T) {
	fb := startFakeBridge(t, `{"jsonrpc":"2.0","id":1,"result":[
		{"date":"2025-05-29 08:00:00 +0000","qty":4200,"source":"Apple Watch","device":"Watch7,1"},
		{"date":"2025-05-29 09:00:00 +0000","qty":1800.5}
	]}`)

	b := NewBridge("127.0.0.1", fb.port(), discardLogger())
	start, end := testRange()
	points, err := b.Fetch(context.Background(), metrics.StepCount, start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Value != "4200" || points[0].Source != "Apple Watch" {
		t.Errorf("point = %+v", points[0])
	}
	if points[1].Value != "1800.5" {
		t.Errorf("point value = %q", points[1].Value)
	}

	req := fb.lastRequest(t)
	if req.Method != "callTool" {
		t.Errorf("method = %q", req.Method)
	}
	params, _ := json.Marshal(req.Params)
	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Name != "health_metrics" {
		t.Errorf("tool = %q", p.Name)
	}
	if p.Arguments["metrics"] != string(metrics.StepCount) {
		t.Errorf("metrics arg = %v", p.Arguments["metrics"])
	}
}

func TestBridgeFetchSleepUsesCategorySamples(t *testing.T) {
	fb := startFakeBridge(t, `{"jsonrpc":"2.0","id":1,"result":[
		{"startDate":"2025-05-28 23:30:00 +0000","endDate":"2025-05-29 01:30:00 +0000","value":"Core","source":"Apple Watch"}
	]}`)

	b := NewBridge("127.0.0.1", fb.port(), discardLogger())
	start, end := testRange()
	points, err := b.Fetch(context.Background(), metrics.SleepAnalysis, start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(points) != 1 || points[0].Value != "Core" {
		t.Fatalf("points = %+v", points)
	}
	if got := points[0].EndTime.Sub(points[0].StartTime); got != 2*time.Hour {
		t.Errorf("span = %v, want 2h", got)
	}

	req := fb.lastRequest(t)
	params, _ := json.Marshal(req.Params)
	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Name != "category_samples" {
		t.Errorf("tool = %q", p.Name)
	}
}

func TestBridgeFetchWorkouts(t *testing.T) {
	fb := startFakeBridge(t, `{"jsonrpc":"2.0","id":1,"result":[
		{"name":"Running","start":"2025-05-29 07:00:00 +0000","end":"2025-05-29 07:45:00 +0000"}
	]}`)

	b := NewBridge("127.0.0.1", fb.port(), discardLogger())
	start, end := testRange()
	points, err := b.Fetch(context.Background(), metrics.WorkoutType, start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(points) != 1 || points[0].Value != "Running" {
		t.Fatalf("points = %+v", points)
	}
}

func TestBridgeToolError(t *testing.T) {
	fb := startFakeBridge(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"unknown metric"}}`)

	b := NewBridge("127.0.0.1", fb.port(), discardLogger())
	start, end := testRange()
	_, err := b.Fetch(context.Background(), metrics.HeartRate, start, end)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("tool errors are per-metric, not unavailability")
	}
}

func TestBridgeUnreachable(t *testing.T) {
	// Grab a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	b := NewBridge("127.0.0.1", port, discardLogger())
	start, end := testRange()
	_, err = b.Fetch(context.Background(), metrics.HeartRate, start, end)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
