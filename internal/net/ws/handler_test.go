package ws

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"lasertag/server"
)

func newTestServer(t *testing.T) (*httptest.Server, *server.Registry) {
	t.Helper()

	registry := server.NewRegistry(server.DefaultConfig(), nil)
	handler := NewHandler(registry, HandlerConfig{})

	r := chi.NewRouter()
	r.Get("/ws/{mode}/{id}", handler.HandlePlayer)
	r.Get("/ws/{mode}/{id}/spectate", handler.HandleSpectator)
	r.Get("/ws/{mode}/{id}/colorcheck", handler.HandleColorCheck)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, registry
}

func dialWebsocket(t *testing.T, baseURL, path string, query map[string]string) *websocket.Conn {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	parsed.Path = path
	values := parsed.Query()
	for key, value := range query {
		values.Set(key, value)
	}
	parsed.RawQuery = values.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(parsed.String(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read websocket message: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode websocket payload %s: %v", payload, err)
	}
	return msg
}

// readUntilType drains messages until one of the wanted type arrives.
func readUntilType(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msg := readMessage(t, conn); msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("timed out waiting for a %q message", msgType)
	return nil
}

func writeJSON(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to write websocket message: %v", err)
	}
}

func TestPlayerJoinReceivesRoster(t *testing.T) {
	srv, registry := newTestServer(t)

	conn := dialWebsocket(t, srv.URL, "/ws/solo/abcd", map[string]string{"username": "cable", "color": "red"})

	roster := readMessage(t, conn)
	if roster["type"] != "roster" {
		t.Fatalf("expected a roster first, got %v", roster["type"])
	}
	if roster["session"] != "abcd" {
		t.Fatalf("expected session abcd, got %v", roster["session"])
	}
	if roster["admin"] != "cable" {
		t.Fatalf("expected cable to be admin, got %v", roster["admin"])
	}

	if _, ok := registry.Find("abcd"); !ok {
		t.Fatalf("expected the join to create the session")
	}
}

func TestJoinRejectionsCloseWithReason(t *testing.T) {
	srv, registry := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		query  map[string]string
		reason string
	}{
		{
			name:   "missing color",
			path:   "/ws/solo/abcd",
			query:  map[string]string{"username": "cable"},
			reason: "missing color",
		},
		{
			name:   "unknown mode",
			path:   "/ws/ranked/abcd",
			query:  map[string]string{"username": "cable", "color": "red"},
			reason: "unknown mode",
		},
		{
			name:   "missing team",
			path:   "/ws/team/abcd",
			query:  map[string]string{"username": "cable", "color": "red"},
			reason: "missing team",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn := dialWebsocket(t, srv.URL, tc.path, tc.query)

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			if err == nil {
				t.Fatalf("expected the join to be rejected")
			}

			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				t.Fatalf("expected a close error, got %v", err)
			}
			if closeErr.Code != websocket.ClosePolicyViolation {
				t.Fatalf("expected policy violation close, got %d", closeErr.Code)
			}
			if closeErr.Text != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, closeErr.Text)
			}
		})
	}

	if _, ok := registry.Find("abcd"); ok {
		t.Fatalf("expected rejected joins never to create the session")
	}
}

func TestStartGameBroadcastsUpdate(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dialWebsocket(t, srv.URL, "/ws/solo/efgh", map[string]string{"username": "cable", "color": "red"})
	readUntilType(t, conn, "roster")

	writeJSON(t, conn, map[string]any{"type": "startGame"})

	update := readUntilType(t, conn, "gameUpdate")
	if update["state"] != "game" {
		t.Fatalf("expected game state, got %v", update["state"])
	}
	if left, ok := update["timeLeft"].(float64); !ok || int(left) != 180 {
		t.Fatalf("expected the full match clock, got %v", update["timeLeft"])
	}
}

func TestHitResolvesOverTheWire(t *testing.T) {
	srv, _ := newTestServer(t)

	shooter := dialWebsocket(t, srv.URL, "/ws/solo/hijk", map[string]string{"username": "zeke", "color": "blue"})
	target := dialWebsocket(t, srv.URL, "/ws/solo/hijk", map[string]string{"username": "cable", "color": "red"})

	readUntilType(t, shooter, "roster")
	readUntilType(t, target, "roster")

	writeJSON(t, shooter, map[string]any{"type": "startGame"})
	readUntilType(t, shooter, "gameUpdate")

	writeJSON(t, shooter, map[string]any{"type": "hit", "color": "red", "weapon": "pistol"})

	hit := readUntilType(t, target, "hit")
	if hit["shooter"] != "zeke" || hit["target"] != "cable" {
		t.Fatalf("unexpected hit attribution %v", hit)
	}
	if health, ok := hit["targetHealth"].(float64); !ok || int(health) != 90 {
		t.Fatalf("expected target health 90, got %v", hit["targetHealth"])
	}
	if points, ok := hit["targetPoints"].(float64); !ok || int(points) != 44 {
		t.Fatalf("expected target points 44, got %v", hit["targetPoints"])
	}
}

func TestSpectatorReceivesRelayedFrames(t *testing.T) {
	srv, _ := newTestServer(t)

	player := dialWebsocket(t, srv.URL, "/ws/solo/mnop", map[string]string{"username": "cable", "color": "red"})
	readUntilType(t, player, "roster")

	spectator := dialWebsocket(t, srv.URL, "/ws/solo/mnop/spectate", nil)

	roster := readMessage(t, spectator)
	if roster["type"] != "roster" {
		t.Fatalf("expected the spectator to receive the roster first, got %v", roster["type"])
	}

	writeJSON(t, player, map[string]any{"type": "cameraFrame", "frame": "frame-data"})

	frame := readUntilType(t, spectator, "cameraFrame")
	if frame["username"] != "cable" || frame["frame"] != "frame-data" {
		t.Fatalf("unexpected relayed frame %v", frame)
	}
}

func TestColorProbeAnswersAvailability(t *testing.T) {
	srv, _ := newTestServer(t)

	player := dialWebsocket(t, srv.URL, "/ws/solo/qrst", map[string]string{"username": "cable", "color": "red"})
	readUntilType(t, player, "roster")

	probe := dialWebsocket(t, srv.URL, "/ws/solo/qrst/colorcheck", nil)

	writeJSON(t, probe, map[string]any{"color": "red"})
	result := readMessage(t, probe)
	if result["type"] != "colorResult" {
		t.Fatalf("expected a color result, got %v", result["type"])
	}
	if available, ok := result["available"].(bool); !ok || available {
		t.Fatalf("expected red to be taken, got %v", result["available"])
	}

	writeJSON(t, probe, map[string]any{"color": "blue"})
	result = readMessage(t, probe)
	if available, ok := result["available"].(bool); !ok || !available {
		t.Fatalf("expected blue to be free, got %v", result["available"])
	}
}

func TestColorProbeOnMissingSession(t *testing.T) {
	srv, registry := newTestServer(t)

	probe := dialWebsocket(t, srv.URL, "/ws/solo/zzzz/colorcheck", nil)

	writeJSON(t, probe, map[string]any{"color": "red"})
	result := readMessage(t, probe)
	if available, ok := result["available"].(bool); !ok || !available {
		t.Fatalf("expected every color free in a missing session, got %v", result["available"])
	}

	if _, ok := registry.Find("zzzz"); ok {
		t.Fatalf("expected the probe never to create the session")
	}
}

func TestMalformedPayloadKeepsConnectionOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dialWebsocket(t, srv.URL, "/ws/solo/uvwx", map[string]string{"username": "cable", "color": "red"})
	readUntilType(t, conn, "roster")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("failed to write malformed payload: %v", err)
	}

	writeJSON(t, conn, map[string]any{"type": "startGame"})

	update := readUntilType(t, conn, "gameUpdate")
	if update["state"] != "game" {
		t.Fatalf("expected the connection to survive the malformed payload, got %v", update["state"])
	}
}

func TestDisconnectHandsAdminToNextPlayer(t *testing.T) {
	srv, _ := newTestServer(t)

	first := dialWebsocket(t, srv.URL, "/ws/solo/wxyz", map[string]string{"username": "ana", "color": "red"})
	second := dialWebsocket(t, srv.URL, "/ws/solo/wxyz", map[string]string{"username": "ben", "color": "blue"})

	readUntilType(t, first, "roster")
	readUntilType(t, second, "roster")

	first.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		roster := readUntilType(t, second, "roster")
		if roster["admin"] == "ben" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the admin handoff, last roster %v", roster)
		}
	}
}
