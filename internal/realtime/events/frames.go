package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrUnknownKind  = errors.New("unknown event kind")
)

// Frame type names written to clients.
const (
	FrameConnectionSuccess = "connection_success"
	FrameGuaranteeUpdate   = "guarantee_update"
	FrameAttendanceUpdate  = "attendance_update"
	FrameVotingUpdate      = "voting_update"
	FrameDashboardUpdate   = "dashboard_update"
	FramePong              = "pong"
	FrameSubscribed        = "subscribed"
)

// Inbound frame types.
const (
	ClientPing      = "ping"
	ClientSubscribe = "subscribe"
)

// FormatTimestamp renders t as ISO-8601 UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

type updateFrame struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

type dashboardFrame struct {
	Type          string `json:"type"`
	DashboardType string `json:"dashboard_type"`
	Data          any    `json:"data"`
	Timestamp     string `json:"timestamp"`
}

// Render produces the client frame for e. Every Kind must have a case here.
func Render(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	ts := FormatTimestamp(e.Timestamp)

	var frame any
	switch e.Kind {
	case KindGuarantee:
		frame = updateFrame{Type: FrameGuaranteeUpdate, Action: wireAction(e.Action), Data: e.Payload, Timestamp: ts}
	case KindAttendance:
		frame = updateFrame{Type: FrameAttendanceUpdate, Action: wireAction(e.Action), Data: e.Payload, Timestamp: ts}
	case KindVoting:
		frame = updateFrame{Type: FrameVotingUpdate, Action: wireAction(e.Action), Data: e.Payload, Timestamp: ts}
	case KindDashboard:
		frame = dashboardFrame{Type: FrameDashboardUpdate, DashboardType: dashboardType(e.Scope), Data: e.Payload, Timestamp: ts}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("render %s frame: %w", e.Kind, err)
	}
	return b, nil
}

func wireAction(a Action) string {
	return strings.ToLower(string(a))
}

func dashboardType(s Scope) string {
	if s == ScopeNone {
		return strings.ToLower(string(ScopeAll))
	}
	return strings.ToLower(string(s))
}

// ConnectionSuccess is the first frame every accepted session receives.
func ConnectionSuccess(message string, now time.Time) []byte {
	b, _ := json.Marshal(struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}{FrameConnectionSuccess, message, FormatTimestamp(now)})
	return b
}

// Pong echoes the client's timestamp verbatim.
func Pong(timestamp json.RawMessage) []byte {
	b, _ := json.Marshal(struct {
		Type      string          `json:"type"`
		Timestamp json.RawMessage `json:"timestamp,omitempty"`
	}{FramePong, timestamp})
	return b
}

// Subscribed acknowledges a subscribe request.
func Subscribed(channels []string) []byte {
	if channels == nil {
		channels = []string{}
	}
	b, _ := json.Marshal(struct {
		Type     string   `json:"type"`
		Channels []string `json:"channels"`
	}{FrameSubscribed, channels})
	return b
}

// ClientFrame is an inbound message. Fields not used by a type are ignored.
type ClientFrame struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Channels  []string        `json:"channels,omitempty"`
}

// ParseClientFrame decodes an inbound text message.
func ParseClientFrame(data []byte) (ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return ClientFrame{}, err
	}
	return f, nil
}
