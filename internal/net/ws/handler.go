package ws

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lasertag/server"
)

type HandlerConfig struct {
	Logger *zap.Logger
}

// Handler upgrades inbound connections and binds each one to a session role:
// player, spectator, or color probe.
type Handler struct {
	registry *server.Registry
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(registry *server.Registry, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		registry: registry,
		logger:   logger,
		upgrader: upgrader,
	}
}

// HandlePlayer upgrades a player join. Required parameters are validated
// before the registry is touched; a rejected join is closed with the reason
// and never creates or mutates a session.
func (h *Handler) HandlePlayer(w nethttp.ResponseWriter, r *nethttp.Request) {
	mode, modeOK := server.ParseMode(chi.URLParam(r, "mode"))
	sessionID := chi.URLParam(r, "id")
	username := r.URL.Query().Get("username")
	color := r.URL.Query().Get("color")
	team := r.URL.Query().Get("team")

	reason := ""
	switch {
	case !modeOK:
		reason = "unknown mode"
	case sessionID == "":
		reason = "missing session id"
	case username == "":
		reason = "missing username"
	case color == "":
		reason = "missing color"
	case mode == server.ModeTeam && team == "":
		reason = "missing team"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}

	if reason != "" {
		h.reject(conn, reason)
		return
	}

	session := h.registry.GetOrCreate(sessionID, mode)
	peer := newPeer(conn)
	assigned := session.Join(username, color, team, peer)

	h.readPlayer(session, peer, assigned)
}

// HandleSpectator upgrades a passive watcher connection. Spectators receive
// every broadcast plus the relayed camera frames but send nothing the server
// acts on.
func (h *Handler) HandleSpectator(w nethttp.ResponseWriter, r *nethttp.Request) {
	mode, modeOK := server.ParseMode(chi.URLParam(r, "mode"))
	sessionID := chi.URLParam(r, "id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}

	if !modeOK || sessionID == "" {
		h.reject(conn, "unknown mode or session")
		return
	}

	session := h.registry.GetOrCreate(sessionID, mode)
	peer := newPeer(conn)
	id := session.AddSpectator(peer)

	h.readSpectator(session, peer, id)
}

// HandleColorCheck serves the color-probe sub-role: every inbound payload
// carrying a color gets a colorResult reply. The probe never joins the
// session and never mutates it.
func (h *Handler) HandleColorCheck(w nethttp.ResponseWriter, r *nethttp.Request) {
	sessionID := chi.URLParam(r, "id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}

	peer := newPeer(conn)
	h.readColorProbe(peer, sessionID)
}

// reject closes a freshly upgraded connection with a descriptive reason.
func (h *Handler) reject(conn *websocket.Conn, reason string) {
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	conn.WriteMessage(websocket.CloseMessage, message)
	conn.Close()
}
