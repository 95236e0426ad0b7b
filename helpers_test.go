package server

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeConn records every payload sent through it so tests can assert on the
// exact wire traffic. Setting fail makes Send error, standing in for a peer
// whose socket died.
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	fail   bool
	closed int
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("peer gone")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.sent = append(c.sent, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) breakPipe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// messages decodes every recorded payload into generic maps.
func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	decoded := make([]map[string]any, 0, len(c.sent))
	for _, payload := range c.sent {
		var msg map[string]any
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("failed to decode recorded payload %s: %v", payload, err)
		}
		decoded = append(decoded, msg)
	}
	return decoded
}

// messagesOfType filters the recorded traffic down to one message type.
func (c *fakeConn) messagesOfType(t *testing.T, msgType string) []map[string]any {
	t.Helper()
	var filtered []map[string]any
	for _, msg := range c.messages(t) {
		if msg["type"] == msgType {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// lastOfType returns the most recent message of one type, failing the test
// when none was recorded.
func (c *fakeConn) lastOfType(t *testing.T, msgType string) map[string]any {
	t.Helper()
	msgs := c.messagesOfType(t, msgType)
	if len(msgs) == 0 {
		t.Fatalf("expected at least one %q message, recorded %d payloads", msgType, len(c.messages(t)))
	}
	return msgs[len(msgs)-1]
}

// newTestSession builds a seeded session so randomized behavior replays.
func newTestSession(mode Mode) *Session {
	cfg := DefaultConfig()
	cfg.Seed = "test-seed"
	return newSession("abcd", mode, cfg, zap.NewNop())
}

func newTestSessionWithConfig(mode Mode, cfg Config) *Session {
	if cfg.Seed == "" {
		cfg.Seed = "test-seed"
	}
	return newSession("abcd", mode, cfg, zap.NewNop())
}

// startTestGame flips a session into the game state via its admin.
func startTestGame(t *testing.T, session *Session, admin string) {
	t.Helper()
	if !session.StartGame(admin) {
		t.Fatalf("expected %s to start the game", admin)
	}
}
