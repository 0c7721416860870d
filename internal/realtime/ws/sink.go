package ws

import (
	"context"

	"github.com/coder/websocket"

	"electionhub/internal/realtime/registry"
)

// connSink adapts a websocket connection to registry.Sink. The registry's
// writer goroutine is its only writer.
type connSink struct {
	conn *websocket.Conn
}

func (s connSink) WriteFrame(ctx context.Context, frame []byte) error {
	return s.conn.Write(ctx, websocket.MessageText, frame)
}

func (s connSink) Close(code registry.CloseCode, reason string) error {
	return s.conn.Close(websocket.StatusCode(code), reason)
}
