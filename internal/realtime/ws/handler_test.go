package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "electionhub/internal/jwt_token"
	"electionhub/internal/platform/config"
	"electionhub/internal/platform/metrics"
	"electionhub/internal/platform/middleware"
	"electionhub/internal/principal/models"
	"electionhub/internal/principal/store"
	"electionhub/internal/realtime/bus"
	"electionhub/internal/realtime/events"
	"electionhub/internal/realtime/policy"
	"electionhub/internal/realtime/registry"
	"electionhub/internal/realtime/ws"
	id "electionhub/pkg/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const signingKey = "ws-test-signing-key"

func testConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		PingInterval:     time.Minute,
		IdleTimeout:      3 * time.Minute,
		HandshakeTimeout: 2 * time.Second,
		WriteTimeout:     time.Second,
		MaxWriteQueue:    64,
		BusQueueDepth:    64,
	}
}

type harness struct {
	t        *testing.T
	server   *httptest.Server
	reg      *registry.Registry
	bus      *bus.Bus
	verifier *jwttoken.Verifier
	store    *store.InMemory
	metrics  *metrics.Metrics
	sessions *spySessions
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	cfg    config.RealtimeConfig
	finder middleware.PrincipalFinder
}

func withConfig(cfg config.RealtimeConfig) harnessOption {
	return func(c *harnessConfig) { c.cfg = cfg }
}

func withFinder(f middleware.PrincipalFinder) harnessOption {
	return func(c *harnessConfig) { c.finder = f }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		verifier: jwttoken.NewVerifier(signingKey, "electionhub", "electionhub-operators"),
		store:    store.NewInMemory(),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	hc := harnessConfig{cfg: testConfig(), finder: h.store}
	for _, opt := range opts {
		opt(&hc)
	}

	h.reg = registry.New(policy.MayReceive, discard,
		registry.WithMaxQueue(hc.cfg.MaxWriteQueue),
		registry.WithWriteTimeout(hc.cfg.WriteTimeout),
	)
	h.bus = bus.New(h.reg, discard, bus.WithQueueDepth(hc.cfg.BusQueueDepth))
	h.sessions = &spySessions{Registry: h.reg}

	r := chi.NewRouter()
	ws.New(h.verifier, hc.finder, h.sessions, hc.cfg, discard, ws.WithMetrics(h.metrics)).Register(r)
	h.server = httptest.NewServer(r)

	t.Cleanup(func() {
		h.bus.Close()
		h.reg.Close()
		h.server.Close()
	})
	return h
}

func (h *harness) principal(role models.Role, active bool) *models.Principal {
	h.t.Helper()
	p := models.Principal{ID: id.NewPrincipalID(), Email: strings.ToLower(string(role)) + "@example.org", Role: role, Active: active}
	require.NoError(h.t, h.store.Save(context.Background(), p))
	return &p
}

func (h *harness) token(p *models.Principal) string {
	h.t.Helper()
	tok, err := h.verifier.Issue(p.ID, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) dial(query string) *websocket.Conn {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + ws.Route + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// connect opens an authenticated session and waits until it has joined the
// default group.
func (h *harness) connect(p *models.Principal) *websocket.Conn {
	h.t.Helper()
	before := len(h.reg.Members(events.DefaultGroup))
	conn := h.dial("?token=" + h.token(p))
	frame := readFrame(h.t, conn)
	require.Equal(h.t, events.FrameConnectionSuccess, frame["type"])
	require.Eventually(h.t, func() bool {
		return len(h.reg.Members(events.DefaultGroup)) == before+1
	}, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, b))
}

func closeStatus(t *testing.T, conn *websocket.Conn) websocket.StatusCode {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

func guaranteeEvent(owner id.PrincipalID, seq int) events.Event {
	return events.Event{
		Kind:               events.KindGuarantee,
		Action:             events.ActionCreated,
		Payload:            map[string]any{"seq": seq, "owner_id": owner.String()},
		Timestamp:          time.Now(),
		AffectedPrincipals: []id.PrincipalID{owner},
		OwnerID:            owner,
		EntityID:           id.NewPrincipalID().String(),
	}
}

// spySessions records every effective Drop.
type spySessions struct {
	*registry.Registry

	mu    sync.Mutex
	drops []drop
}

type drop struct {
	code   registry.CloseCode
	reason string
}

func (s *spySessions) Drop(sessionID id.SessionID, code registry.CloseCode, reason string) bool {
	dropped := s.Registry.Drop(sessionID, code, reason)
	if dropped {
		s.mu.Lock()
		s.drops = append(s.drops, drop{code: code, reason: reason})
		s.mu.Unlock()
	}
	return dropped
}

func (s *spySessions) recorded() []drop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]drop(nil), s.drops...)
}

type blockingFinder struct {
	release chan struct{}
}

func (f *blockingFinder) FindActive(context.Context, id.PrincipalID) (*models.Principal, error) {
	<-f.release
	return nil, errors.New("released")
}

type failingFinder struct{}

func (failingFinder) FindActive(context.Context, id.PrincipalID) (*models.Principal, error) {
	return nil, errors.New("connection refused")
}

func TestHandshake_AuthenticatedSessionReceivesBroadcast(t *testing.T) {
	h := newHarness(t)
	admin := h.principal(models.RoleAdmin, true)
	conn := h.connect(admin)

	owner := id.NewPrincipalID()
	require.NoError(t, h.bus.Publish(context.Background(), events.DefaultGroup, guaranteeEvent(owner, 1)))

	frame := readFrame(t, conn)
	assert.Equal(t, events.FrameGuaranteeUpdate, frame["type"])
	assert.Equal(t, "created", frame["action"])
	assert.Equal(t, float64(1), frame["data"].(map[string]any)["seq"])
	assert.NotEmpty(t, frame["timestamp"])
	assert.Equal(t, 1, h.reg.Count())
}

func TestHandshake_BearerHeaderAccepted(t *testing.T) {
	h := newHarness(t)
	admin := h.principal(models.RoleAdmin, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + ws.Route
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: map[string][]string{"Authorization": {"Bearer " + h.token(admin)}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })

	assert.Equal(t, events.FrameConnectionSuccess, readFrame(t, conn)["type"])
}

func TestHandshake_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		query  func(h *harness) string
		opts   []harnessOption
		code   websocket.StatusCode
		reason string
	}{
		{
			name:   "missing token",
			query:  func(*harness) string { return "" },
			code:   4001,
			reason: "missing_token",
		},
		{
			name:   "malformed token",
			query:  func(*harness) string { return "?token=not-a-jwt" },
			code:   4001,
			reason: "malformed",
		},
		{
			name: "inactive principal",
			query: func(h *harness) string {
				return "?token=" + h.token(h.principal(models.RoleUser, false))
			},
			code:   4001,
			reason: "unknown_principal",
		},
		{
			name: "store failure",
			query: func(h *harness) string {
				return "?token=" + h.token(&models.Principal{ID: id.NewPrincipalID()})
			},
			opts:   []harnessOption{withFinder(failingFinder{})},
			code:   4002,
			reason: "store_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.opts...)
			conn := h.dial(tt.query(h))

			assert.Equal(t, tt.code, closeStatus(t, conn))
			assert.Equal(t, 0, h.reg.Count())
			assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.HandshakeRejected.WithLabelValues(tt.reason)))
		})
	}
}

func TestHandshake_TimeoutClosesWithServerAuthError(t *testing.T) {
	finder := &blockingFinder{release: make(chan struct{})}
	t.Cleanup(func() { close(finder.release) })

	cfg := testConfig()
	cfg.HandshakeTimeout = 50 * time.Millisecond
	h := newHarness(t, withConfig(cfg), withFinder(finder))

	conn := h.dial("?token=" + h.token(&models.Principal{ID: id.NewPrincipalID()}))

	assert.Equal(t, websocket.StatusCode(4002), closeStatus(t, conn))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.HandshakeRejected.WithLabelValues("timeout")))
}

func TestSession_UserSeesOnlyOwnEvents(t *testing.T) {
	h := newHarness(t)
	user := h.principal(models.RoleUser, true)
	conn := h.connect(user)

	other := id.NewPrincipalID()
	require.NoError(t, h.bus.Publish(context.Background(), events.DefaultGroup, guaranteeEvent(other, 1)))
	require.NoError(t, h.bus.Publish(context.Background(), events.DefaultGroup, guaranteeEvent(user.ID, 2)))

	frame := readFrame(t, conn)
	assert.Equal(t, float64(2), frame["data"].(map[string]any)["seq"], "the other principal's event is never delivered")
}

func TestSession_ClientFrames(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(h.principal(models.RoleSupervisor, true))

	t.Run("ping echoes timestamp", func(t *testing.T) {
		writeJSON(t, conn, map[string]any{"type": "ping", "timestamp": 1717171717})
		frame := readFrame(t, conn)
		assert.Equal(t, events.FramePong, frame["type"])
		assert.Equal(t, float64(1717171717), frame["timestamp"])
	})

	t.Run("subscribe acknowledges deduplicated channels", func(t *testing.T) {
		writeJSON(t, conn, map[string]any{"type": "subscribe", "channels": []string{" guarantees", "guarantees", "attendance", ""}})
		frame := readFrame(t, conn)
		assert.Equal(t, events.FrameSubscribed, frame["type"])
		assert.Equal(t, []any{"guarantees", "attendance"}, frame["channels"])
	})

	t.Run("invalid json and unknown types keep the session open", func(t *testing.T) {
		require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte("{not json")))
		writeJSON(t, conn, map[string]any{"type": "telemetry"})
		writeJSON(t, conn, map[string]any{"type": "ping", "timestamp": "after"})

		frame := readFrame(t, conn)
		assert.Equal(t, events.FramePong, frame["type"])
		assert.Equal(t, "after", frame["timestamp"])
		assert.Equal(t, 1, h.reg.Count())
	})
}

func TestSession_EventsArriveInPublishOrder(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(h.principal(models.RoleAdmin, true))

	owner := id.NewPrincipalID()
	for _, action := range []events.Action{events.ActionCreated, events.ActionUpdated, events.ActionDeleted} {
		e := guaranteeEvent(owner, 0)
		e.Action = action
		require.NoError(t, h.bus.Publish(context.Background(), events.DefaultGroup, e))
	}

	var got []any
	for range 3 {
		got = append(got, readFrame(t, conn)["action"])
	}
	assert.Equal(t, []any{"created", "updated", "deleted"}, got)
}

func TestSession_ClientCloseDropsSession(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(h.principal(models.RoleAdmin, true))

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool { return h.reg.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, h.reg.Members(events.DefaultGroup))
	assert.Equal(t, []drop{{code: registry.CloseNormal, reason: "client disconnected"}}, h.sessions.recorded())
}

func TestSession_IdleClientIsClosed(t *testing.T) {
	cfg := testConfig()
	cfg.PingInterval = 20 * time.Millisecond
	cfg.IdleTimeout = 60 * time.Millisecond
	h := newHarness(t, withConfig(cfg))

	// The client never reads after the greeting, so pings go unanswered.
	h.connect(h.principal(models.RoleAdmin, true))

	require.Eventually(t, func() bool { return h.reg.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
	drops := h.sessions.recorded()
	require.Len(t, drops, 1)
	assert.Equal(t, drop{code: registry.CloseGoingAway, reason: "idle timeout"}, drops[0])
}

func TestSession_ResponsiveClientStaysOpen(t *testing.T) {
	cfg := testConfig()
	cfg.PingInterval = 20 * time.Millisecond
	cfg.IdleTimeout = 60 * time.Millisecond
	h := newHarness(t, withConfig(cfg))

	conn := h.connect(h.principal(models.RoleAdmin, true))
	// CloseRead keeps a reader running so pongs are answered.
	ctx := conn.CloseRead(context.Background())

	time.Sleep(200 * time.Millisecond)
	assert.NoError(t, ctx.Err())
	assert.Equal(t, 1, h.reg.Count())
}

func TestSession_ShutdownClosesWithGoingAway(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(h.principal(models.RoleAdmin, true))

	h.reg.Close()

	assert.Equal(t, websocket.StatusGoingAway, closeStatus(t, conn))
}
