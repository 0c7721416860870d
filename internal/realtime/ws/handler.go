// Package ws serves the election updates WebSocket.
//
// Each connection is authenticated once during the handshake, registered in
// the connection registry, and joined to the election updates group. The
// registry owns the write side; this package owns the read loop and keepalive.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"electionhub/internal/platform/config"
	"electionhub/internal/platform/logger"
	"electionhub/internal/platform/metrics"
	"electionhub/internal/platform/middleware"
	"electionhub/internal/realtime/events"
	"electionhub/internal/realtime/registry"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/middleware/metadata"
	"electionhub/pkg/platform/sentinel"
	"electionhub/pkg/platform/strings"
	"electionhub/pkg/requestcontext"
)

// Route is the WebSocket path.
const Route = "/ws/election-updates/"

const (
	welcomeMessage = "Connected to election updates"
	idleReason     = "idle timeout"
)

// Sessions is the slice of the connection registry the endpoint drives.
type Sessions interface {
	Register(s *registry.Session) error
	Join(group string, sessionID id.SessionID) error
	Enqueue(sessionID id.SessionID, frame []byte) error
	Drop(sessionID id.SessionID, code registry.CloseCode, reason string) bool
}

// Handler upgrades and serves election update connections.
type Handler struct {
	verifier   middleware.TokenVerifier
	principals middleware.PrincipalFinder
	sessions   Sessions
	cfg        config.RealtimeConfig
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records handshake rejections.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New builds a Handler.
func New(
	verifier middleware.TokenVerifier,
	principals middleware.PrincipalFinder,
	sessions Sessions,
	cfg config.RealtimeConfig,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		verifier:   verifier,
		principals: principals,
		sessions:   sessions,
		cfg:        cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts the endpoint. It must sit outside RequireAuth: the socket
// authenticates itself so it can answer with a close code.
func (h *Handler) Register(r chi.Router) {
	r.Get(Route, h.HandleUpgrade)
}

// HandleUpgrade accepts the upgrade, authenticates, and serves the session
// until either side closes.
func (h *Handler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	token := credential(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.OriginPatterns,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			"error", err,
			"request_id", requestID,
		)
		return
	}

	authCtx, cancel := context.WithTimeout(ctx, h.cfg.HandshakeTimeout)
	principal, rej := h.authenticate(authCtx, token)
	cancel()
	if rej != nil {
		h.reject(ctx, conn, token, rej)
		return
	}

	session := registry.NewSession(principal, connSink{conn: conn}, registry.ClientInfo{
		IP:    metadata.ClientIPFromRequest(r),
		Agent: metadata.ParseClientAgent(r.UserAgent()),
	})
	if err := h.open(session); err != nil {
		code, reason := registry.CloseInternalError, "registration failed"
		if errors.Is(err, sentinel.ErrClosed) {
			code, reason = registry.CloseGoingAway, "server shutting down"
		}
		h.logger.ErrorContext(ctx, "failed to open session",
			"principal_id", principal.ID.String(),
			"error", err,
			"request_id", requestID,
		)
		h.sessions.Drop(session.ID, code, reason)
		_ = conn.Close(websocket.StatusCode(code), reason)
		return
	}

	h.logger.InfoContext(ctx, "websocket session opened",
		"session_id", session.ID.String(),
		"principal_id", principal.ID.String(),
		"role", principal.Role,
		"client_ip", session.Client.IP,
		"client_agent", session.Client.Agent.String(),
		"request_id", requestID,
	)

	h.serve(ctx, conn, session)
}

func (h *Handler) open(s *registry.Session) error {
	if err := h.sessions.Register(s); err != nil {
		return err
	}
	if err := h.sessions.Enqueue(s.ID, events.ConnectionSuccess(welcomeMessage, time.Now())); err != nil {
		return err
	}
	return h.sessions.Join(events.DefaultGroup, s.ID)
}

func (h *Handler) reject(ctx context.Context, conn *websocket.Conn, token string, rej *rejection) {
	attrs := []any{
		"close_code", int(rej.code),
		"reason", rej.label,
		"token", logger.RedactToken(token),
		"request_id", requestcontext.RequestID(ctx),
	}
	if rej.err != nil {
		attrs = append(attrs, "error", rej.err)
	}
	if rej.code == registry.CloseUnauthorized {
		h.logger.WarnContext(ctx, "websocket authentication rejected", attrs...)
	} else {
		h.logger.ErrorContext(ctx, "websocket authentication failed", attrs...)
	}
	h.metrics.IncHandshakeRejected(rej.label)
	_ = conn.Close(websocket.StatusCode(rej.code), rej.reason)
}

// serve runs the read loop on the calling goroutine and the keepalive beside
// it. It returns once the session has been dropped and the keepalive exited.
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, s *registry.Session) {
	activity := newActivity()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.keepalive(conn, s, activity)
	}()

	h.readLoop(ctx, conn, s, activity)

	code, reason := registry.CloseNormal, "client disconnected"
	if activity.idleFor() >= h.cfg.IdleTimeout {
		code, reason = registry.CloseGoingAway, idleReason
	}
	h.sessions.Drop(s.ID, code, reason)
	wg.Wait()

	code, reason = s.CloseStatus()
	h.logger.InfoContext(ctx, "websocket session closed",
		"session_id", s.ID.String(),
		"principal_id", s.Principal.ID.String(),
		"close_code", int(code),
		"close_reason", reason,
		"duration", time.Since(s.JoinedAt).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, s *registry.Session, activity *activity) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 {
				select {
				case <-s.Done():
				default:
					h.logger.DebugContext(ctx, "websocket read ended",
						"session_id", s.ID.String(),
						"error", err,
					)
				}
			}
			return
		}
		activity.touch()

		frame, err := events.ParseClientFrame(data)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid websocket frame",
				"session_id", s.ID.String(),
				"principal_id", s.Principal.ID.String(),
				"error", err,
			)
			continue
		}

		var reply []byte
		switch frame.Type {
		case events.ClientPing:
			reply = events.Pong(frame.Timestamp)
		case events.ClientSubscribe:
			reply = events.Subscribed(strings.DedupeAndTrim(frame.Channels))
		default:
			continue
		}
		if err := h.sessions.Enqueue(s.ID, reply); err != nil {
			return
		}
	}
}

// keepalive pings the client every PingInterval and drops the session once
// neither a frame nor a pong has arrived for IdleTimeout.
func (h *Handler) keepalive(conn *websocket.Conn, s *registry.Session, activity *activity) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.Done():
			return
		case <-ticker.C:
		}

		if activity.idleFor() >= h.cfg.IdleTimeout {
			h.dropIdle(s, activity)
			return
		}

		pingCtx, cancel := context.WithDeadline(context.Background(), activity.last().Add(h.cfg.IdleTimeout))
		err := conn.Ping(pingCtx)
		cancel()
		if err == nil {
			activity.touch()
			continue
		}
		if activity.idleFor() >= h.cfg.IdleTimeout {
			h.dropIdle(s, activity)
			return
		}
	}
}

func (h *Handler) dropIdle(s *registry.Session, activity *activity) {
	if h.sessions.Drop(s.ID, registry.CloseGoingAway, idleReason) {
		h.logger.Info("closed idle websocket session",
			"session_id", s.ID.String(),
			"principal_id", s.Principal.ID.String(),
			"idle", activity.idleFor().String(),
		)
	}
}

// activity tracks the last time anything was heard from the client.
type activity struct {
	nanos atomic.Int64
}

func newActivity() *activity {
	a := &activity{}
	a.touch()
	return a
}

func (a *activity) touch() { a.nanos.Store(time.Now().UnixNano()) }

func (a *activity) last() time.Time { return time.Unix(0, a.nanos.Load()) }

func (a *activity) idleFor() time.Duration { return time.Since(a.last()) }

// credential prefers the query parameter browsers can set over the header.
func credential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	token, _ := middleware.BearerToken(r)
	return token
}
