package server

import (
	"encoding/json"

	"go.uber.org/zap"
)

// marshalMessage serializes one outbound payload, logging failures.
func (s *Session) marshalMessage(msg any) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal outbound message",
			zap.String("session", s.id),
			zap.Error(err))
		return nil, false
	}
	return data, true
}

// broadcast delivers one message to every player and spectator. The payload
// is marshalled once; each write is attempted independently, and a dead peer
// is detached without interrupting the rest of the fan-out.
func (s *Session) broadcast(msg any) {
	data, ok := s.marshalMessage(msg)
	if !ok {
		return
	}

	s.mu.Lock()
	players := make(map[string]Conn, len(s.conns))
	for username, conn := range s.conns {
		players[username] = conn
	}
	spectators := make(map[string]Conn, len(s.spectators))
	for id, conn := range s.spectators {
		spectators[id] = conn
	}
	s.mu.Unlock()

	for username, conn := range players {
		if err := conn.Send(data); err != nil {
			s.logger.Info("dropping unreachable player",
				zap.String("session", s.id),
				zap.String("username", username),
				zap.Error(err))
			s.Leave(username)
		}
	}
	for id, conn := range spectators {
		if err := conn.Send(data); err != nil {
			s.logger.Info("dropping unreachable spectator",
				zap.String("session", s.id),
				zap.String("spectator", id),
				zap.Error(err))
			s.RemoveSpectator(id)
		}
	}
}

// broadcastSpectators delivers one message to watchers only.
func (s *Session) broadcastSpectators(msg any) {
	data, ok := s.marshalMessage(msg)
	if !ok {
		return
	}

	s.mu.Lock()
	spectators := make(map[string]Conn, len(s.spectators))
	for id, conn := range s.spectators {
		spectators[id] = conn
	}
	s.mu.Unlock()

	for id, conn := range spectators {
		if err := conn.Send(data); err != nil {
			s.logger.Info("dropping unreachable spectator",
				zap.String("session", s.id),
				zap.String("spectator", id),
				zap.Error(err))
			s.RemoveSpectator(id)
		}
	}
}

// unicast sends one message to a single player's connection, if present.
func (s *Session) unicast(username string, msg any) {
	data, ok := s.marshalMessage(msg)
	if !ok {
		return
	}

	s.mu.Lock()
	conn := s.conns[username]
	s.mu.Unlock()
	if conn == nil {
		return
	}

	if err := conn.Send(data); err != nil {
		s.logger.Info("dropping unreachable player",
			zap.String("session", s.id),
			zap.String("username", username),
			zap.Error(err))
		s.Leave(username)
	}
}

// AnswerColorProbe replies on conn whether color is free to claim in this
// session. A nil session means nothing is taken. The probe connection never
// joins the session and no state is mutated.
func (s *Session) AnswerColorProbe(conn Conn, color string) {
	available := true
	if s != nil {
		s.mu.Lock()
		for _, state := range s.players {
			if state.Color == color {
				available = false
				break
			}
		}
		s.mu.Unlock()
	}

	msg := colorResultMessage{Ver: ProtocolVersion, Type: "colorResult", Color: color, Available: available}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.Send(data)
}
