package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lasertag/server"
)

const writeWait = 10 * time.Second

// peer adapts a gorilla connection to server.Conn with a write mutex so the
// session fan-out and direct replies never interleave frames.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newPeer(conn *websocket.Conn) *peer {
	return &peer{conn: conn}
}

func (p *peer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *peer) Close() error {
	return p.conn.Close()
}

// readPlayer pumps inbound player messages until the connection drops, then
// removes the player from the session. Malformed payloads are dropped with
// the connection left open; unknown types are ignored.
func (h *Handler) readPlayer(session *server.Session, peer *peer, username string) {
	defer session.Leave(username)

	for {
		_, payload, err := peer.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg server.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Debug("discarding malformed message",
				zap.String("session", session.ID()),
				zap.String("username", username),
				zap.Error(err))
			continue
		}

		switch msg.Type {
		case "startGame":
			session.StartGame(username)
		case "hit":
			weapon, ok := server.ParseWeapon(msg.Weapon)
			if !ok {
				continue
			}
			session.ResolveHit(username, msg.Color, weapon)
		case "cameraFrame":
			session.StoreFrame(username, msg.Frame, msg.Health)
		case "forfeit":
			session.Forfeit(username)
		case "playerPosition":
			session.UpdatePosition(username, msg.Latitude, msg.Longitude, msg.Timestamp)
		default:
			h.logger.Debug("unknown message type",
				zap.String("session", session.ID()),
				zap.String("username", username),
				zap.String("type", msg.Type))
		}
	}
}

// readSpectator drains a watcher connection until it drops; inbound payloads
// carry no meaning for spectators.
func (h *Handler) readSpectator(session *server.Session, peer *peer, id string) {
	defer session.RemoveSpectator(id)

	for {
		if _, _, err := peer.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// readColorProbe answers color availability queries. The session is looked
// up per query so a probe opened before the first join still sees the
// session once it exists.
func (h *Handler) readColorProbe(peer *peer, sessionID string) {
	defer peer.Close()

	for {
		_, payload, err := peer.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg server.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Debug("discarding malformed probe message",
				zap.String("session", sessionID),
				zap.Error(err))
			continue
		}

		session, _ := h.registry.Find(sessionID)
		session.AnswerColorProbe(peer, msg.Color)
	}
}
