package commands

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mlog")
	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	code := uint16(200)
	latency := 1500 * time.Microsecond
	return []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
			Direction:    log.DirectionOut,
			Layer:        log.LayerTransport,
			Category:     log.CategoryMessage,
			LocalRole:    log.RoleUI,
			Frame:        &log.FrameEvent{Size: 128},
		},
		{
			Timestamp:    ts.Add(time.Millisecond),
			ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			LocalRole:    log.RoleUI,
			Message:      &log.MessageEvent{Kind: wire.KindCall, CorrelationID: 7, Method: "device.ping", PayloadSize: 3},
		},
		{
			Timestamp:    ts.Add(2 * time.Millisecond),
			ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			LocalRole:    log.RoleUI,
			Message: &log.MessageEvent{
				Kind:          wire.KindReply,
				CorrelationID: 7,
				ErrorCode:     &code,
				ErrorMessage:  "no device connected",
				Latency:       &latency,
			},
		},
		{
			Timestamp:    ts.Add(3 * time.Millisecond),
			ConnectionID: "def67890-0000-0000-0000-000000000000",
			Direction:    log.DirectionOut,
			Layer:        log.LayerService,
			Category:     log.CategoryState,
			LocalRole:    log.RoleWorker,
			DeviceID:     "0x10",
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityResource,
				Name:     "heartbeat:0x10",
				OldState: "running",
				NewState: "paused",
			},
		},
		{
			Timestamp:    ts.Add(4 * time.Millisecond),
			ConnectionID: "def67890-0000-0000-0000-000000000000",
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryError,
			LocalRole:    log.RoleWorker,
			Error:        &log.ErrorEventData{Layer: log.LayerTransport, Message: "frame too large", Context: "read"},
		},
	}
}

func TestFormatEvents(t *testing.T) {
	events := sampleEvents()

	tests := []struct {
		name  string
		event log.Event
		want  []string
	}{
		{"frame", events[0], []string{"2026-01-28T10:15:32.123456Z", "[conn:abc12345]", "UI", "OUT", "TRANSPORT Frame", "128 bytes"}},
		{"call", events[1], []string{"WIRE CALL", "CorrelationID: 7", "Method: device.ping", "Payload: 3 bytes"}},
		{"error reply", events[2], []string{"IN", "REPLY", "Error: no device connected (200)", "Latency: 1.500ms"}},
		{"state", events[3], []string{"WORKER", "Device: 0x10", "RESOURCE heartbeat:0x10", "running -> paused"}},
		{"error", events[4], []string{"Error", "Message: frame too large", "Context: read"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatEvent(&buf, tt.event)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestFormatOneWayCall(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Layer:   log.LayerWire,
		Message: &log.MessageEvent{Kind: wire.KindCall, Method: "heartbeat.update"},
	})
	assert.Contains(t, buf.String(), "One-way")
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	layer := log.LayerWire
	var buf bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{Layer: &layer}, &buf))
	out := buf.String()
	assert.Contains(t, out, "device.ping")
	assert.NotContains(t, out, "Frame")
	assert.NotContains(t, out, "heartbeat:0x10")

	buf.Reset()
	require.NoError(t, RunView(path, log.Filter{DeviceID: "0x10"}, &buf))
	assert.Contains(t, buf.String(), "heartbeat:0x10")
	assert.NotContains(t, buf.String(), "device.ping")
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.mlog"), log.Filter{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to open log file")
}

func TestParseFlags(t *testing.T) {
	l, err := ParseLayer("WIRE")
	require.NoError(t, err)
	assert.Equal(t, log.LayerWire, l)
	_, err = ParseLayer("bogus")
	assert.Error(t, err)

	d, err := ParseDirection("in")
	require.NoError(t, err)
	assert.Equal(t, log.DirectionIn, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)

	c, err := ParseCategory("State")
	require.NoError(t, err)
	assert.Equal(t, log.CategoryState, c)
	_, err = ParseCategory("control")
	assert.Error(t, err)

	r, err := ParseRole("devd")
	require.NoError(t, err)
	assert.Equal(t, log.RoleDaemon, r)
	_, err = ParseRole("bus")
	assert.Error(t, err)
}

func TestTruncatedCapture(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-2))

	stats, err := CollectStats(path)
	require.NoError(t, err)
	assert.True(t, stats.Truncated)
	assert.Equal(t, 4, stats.TotalEvents)

	var buf bytes.Buffer
	assert.ErrorIs(t, RunView(path, log.Filter{}, &buf), ErrTruncated)
	assert.NotEmpty(t, buf.String())
}

func TestCollectStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	stats, err := CollectStats(path)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalEvents)
	assert.Equal(t, 2, stats.EventsByLayer[log.LayerTransport])
	assert.Equal(t, 2, stats.EventsByLayer[log.LayerWire])
	assert.Equal(t, 1, stats.Methods["device.ping"])
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.ErrorReplies)
	require.Len(t, stats.Connections, 2)
	worker := stats.Connections["def67890-0000-0000-0000-000000000000"]
	assert.Equal(t, log.RoleWorker, worker.Role)
	assert.Equal(t, []string{"0x10"}, worker.Devices)

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, &buf))
	out := buf.String()
	assert.Contains(t, out, "Total Events: 5")
	assert.Contains(t, out, "device.ping:")
	assert.Contains(t, out, "Errors: 1 (error replies: 1)")
}

func TestRunExport(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	category := log.CategoryMessage
	require.NoError(t, RunExport(path, log.Filter{Category: &category}, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event log.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		assert.Equal(t, log.CategoryMessage, event.Category)
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 3, lines)
}
