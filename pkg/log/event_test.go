package log

import (
	"testing"
	"time"

	"github.com/motorlink/motorlink-go/pkg/wire"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"direction in", DirectionIn.String(), "IN"},
		{"direction out", DirectionOut.String(), "OUT"},
		{"direction unknown", Direction(99).String(), "UNKNOWN"},
		{"layer transport", LayerTransport.String(), "TRANSPORT"},
		{"layer wire", LayerWire.String(), "WIRE"},
		{"layer service", LayerService.String(), "SERVICE"},
		{"category state", CategoryState.String(), "STATE"},
		{"category error", CategoryError.String(), "ERROR"},
		{"role ui", RoleUI.String(), "UI"},
		{"role worker", RoleWorker.String(), "WORKER"},
		{"role daemon", RoleDaemon.String(), "DAEMON"},
		{"role zero", RoleUnknown.String(), "UNKNOWN"},
		{"entity session", StateEntitySession.String(), "SESSION"},
		{"entity resource", StateEntityResource.String(), "RESOURCE"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestNewMessageEventFromErrorReply(t *testing.T) {
	env, err := wire.NewReply(9, nil, &wire.RemoteError{Code: 3, Message: "timeout"})
	if err != nil {
		t.Fatalf("NewReply: %v", err)
	}

	m := NewMessageEvent(env)
	if m.Kind != wire.KindReply {
		t.Errorf("kind: got %s", m.Kind)
	}
	if m.CorrelationID != 9 {
		t.Errorf("corr id: got %d", m.CorrelationID)
	}
	if m.ErrorCode == nil || *m.ErrorCode != 3 {
		t.Errorf("error code: got %v", m.ErrorCode)
	}
	if m.ErrorMessage != "timeout" {
		t.Errorf("error message: got %q", m.ErrorMessage)
	}
}

func TestEventCBORRoundTrip(t *testing.T) {
	latency := 12 * time.Millisecond
	original := Event{
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		ConnectionID: "link-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleUI,
		DeviceID:     "20501",
		Message: &MessageEvent{
			Kind:          wire.KindReply,
			CorrelationID: 42,
			Latency:       &latency,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.DeviceID != "20501" || decoded.LocalRole != RoleUI {
		t.Errorf("identifiers lost: %+v", decoded)
	}
	if decoded.Message == nil || decoded.Message.CorrelationID != 42 {
		t.Fatalf("message lost: %+v", decoded.Message)
	}
	if decoded.Message.Latency == nil || *decoded.Message.Latency != latency {
		t.Errorf("latency: got %v", decoded.Message.Latency)
	}
}
