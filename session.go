package server

import (
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mode selects how a session groups its players.
type Mode string

const (
	ModeSolo Mode = "solo"
	ModeTeam Mode = "team"
)

// ParseMode validates a mode string received in a connection path.
func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case ModeSolo, ModeTeam:
		return Mode(value), true
	default:
		return "", false
	}
}

// MatchState is the lifecycle phase of a session.
type MatchState string

const (
	StateLobby    MatchState = "lobby"
	StateGame     MatchState = "game"
	StateFinished MatchState = "finished"
)

// Session owns all state for one match: roster, teams, spectators, stored
// camera frames, and the countdown clocks. Every mutation happens under mu;
// methods suffixed Locked expect the caller to hold it. Connections are kept
// apart from player records so domain logic never touches the transport.
type Session struct {
	mu sync.Mutex

	id    string
	mode  Mode
	state MatchState

	admin   string
	players map[string]*playerState
	teams   map[string]map[string]struct{}

	conns      map[string]Conn
	spectators map[string]Conn
	frames     map[string]string

	timeLeft    int
	persistLeft int

	rng           *rand.Rand
	powerupDefs   map[PowerupType]*PowerupDefinition
	powerupChance float64

	matchSeconds   int
	persistSeconds int
	positionTTL    time.Duration

	createdAt time.Time
	logger    *zap.Logger
	closeOnce sync.Once
}

func newSession(id string, mode Mode, cfg Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.normalized()
	return &Session{
		id:             id,
		mode:           mode,
		state:          StateLobby,
		players:        make(map[string]*playerState),
		teams:          make(map[string]map[string]struct{}),
		conns:          make(map[string]Conn),
		spectators:     make(map[string]Conn),
		frames:         make(map[string]string),
		persistLeft:    cfg.PersistSeconds,
		rng:            newSessionRNG(cfg.Seed, id),
		powerupDefs:    newPowerupDefinitions(),
		powerupChance:  cfg.PowerupChance,
		matchSeconds:   cfg.MatchSeconds,
		persistSeconds: cfg.PersistSeconds,
		positionTTL:    cfg.PositionTTL,
		createdAt:      time.Now(),
		logger:         logger,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() Mode {
	return s.mode
}

// SessionSummary is the registry's listing row for one session.
type SessionSummary struct {
	ID             string     `json:"id"`
	Mode           Mode       `json:"mode"`
	State          MatchState `json:"state"`
	PlayerCount    int        `json:"playerCount"`
	SpectatorCount int        `json:"spectatorCount"`
}

func (s *Session) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSummary{
		ID:             s.id,
		Mode:           s.mode,
		State:          s.state,
		PlayerCount:    len(s.players),
		SpectatorCount: len(s.spectators),
	}
}

// Join inserts a player, resolving username collisions by suffixing random
// digits, and returns the username actually registered. The first joiner of
// an adminless session becomes admin.
func (s *Session) Join(username, color, teamID string, conn Conn) string {
	s.mu.Lock()

	if s.mode != ModeTeam {
		teamID = ""
	}

	assigned := username
	for {
		if _, taken := s.players[assigned]; !taken {
			break
		}
		assigned += strconv.Itoa(s.rng.Intn(10))
	}

	state := newPlayerState(assigned, color, teamID)
	s.players[assigned] = state
	if conn != nil {
		s.conns[assigned] = conn
	}

	if teamID != "" {
		members, ok := s.teams[teamID]
		if !ok {
			members = make(map[string]struct{})
			s.teams[teamID] = members
		}
		members[assigned] = struct{}{}
	}

	if s.admin == "" {
		s.admin = assigned
	}

	roster := s.rosterMessageLocked()
	s.mu.Unlock()

	s.broadcast(roster)
	return assigned
}

// Leave removes a player and its connection, repairs team and admin state,
// and broadcasts the new roster. The detached connection is closed after the
// lock is released. Unknown usernames are a no-op.
func (s *Session) Leave(username string) {
	s.mu.Lock()
	state, ok := s.players[username]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.players, username)
	conn := s.conns[username]
	delete(s.conns, username)
	delete(s.frames, username)

	if state.TeamID != "" {
		if members, ok := s.teams[state.TeamID]; ok {
			delete(members, username)
			if len(members) == 0 {
				delete(s.teams, state.TeamID)
			}
		}
	}

	if s.admin == username {
		s.admin = s.nextAdminLocked()
	}

	roster := s.rosterMessageLocked()
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.broadcast(roster)
}

// nextAdminLocked picks the replacement admin; empty when no players remain.
func (s *Session) nextAdminLocked() string {
	if len(s.players) == 0 {
		return ""
	}
	return s.sortedUsernamesLocked()[0]
}

func (s *Session) sortedUsernamesLocked() []string {
	usernames := make([]string, 0, len(s.players))
	for username := range s.players {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

// AddSpectator registers a passive watcher and replays the roster plus the
// latest stored camera frame of every player to it.
func (s *Session) AddSpectator(conn Conn) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.spectators[id] = conn
	roster := s.rosterMessageLocked()
	replay := make([]frameMessage, 0, len(s.frames))
	for username, frame := range s.frames {
		replay = append(replay, frameMessage{Ver: ProtocolVersion, Type: "cameraFrame", Username: username, Frame: frame})
	}
	s.mu.Unlock()

	sort.Slice(replay, func(i, j int) bool { return replay[i].Username < replay[j].Username })

	if data, ok := s.marshalMessage(roster); ok {
		if err := conn.Send(data); err != nil {
			s.RemoveSpectator(id)
			return id
		}
	}
	for _, msg := range replay {
		data, ok := s.marshalMessage(msg)
		if !ok {
			continue
		}
		if err := conn.Send(data); err != nil {
			s.RemoveSpectator(id)
			return id
		}
	}
	return id
}

// RemoveSpectator drops a watcher; ids already gone are a no-op.
func (s *Session) RemoveSpectator(id string) {
	s.mu.Lock()
	conn, ok := s.spectators[id]
	if ok {
		delete(s.spectators, id)
	}
	s.mu.Unlock()

	if ok && conn != nil {
		conn.Close()
	}
}

// StartGame transitions lobby to game when requested by the admin. Any other
// caller or state is a silent no-op.
func (s *Session) StartGame(username string) bool {
	s.mu.Lock()
	if username != s.admin || s.state != StateLobby {
		s.mu.Unlock()
		return false
	}
	s.state = StateGame
	s.timeLeft = s.matchSeconds
	update := s.gameUpdateMessageLocked()
	s.mu.Unlock()

	s.broadcast(update)
	return true
}

// Forfeit zeroes the caller's health and points and announces it. The player
// entry survives until its connection drops.
func (s *Session) Forfeit(username string) {
	s.mu.Lock()
	state, ok := s.players[username]
	if !ok {
		s.mu.Unlock()
		return
	}
	state.Health = 0
	state.Points = 0
	s.mu.Unlock()

	s.broadcast(forfeitMessage{Ver: ProtocolVersion, Type: "forfeit", Username: username})
}

// UpdatePosition validates and stores a player's reported fix, then
// broadcasts every known position. Out-of-range fixes are dropped.
func (s *Session) UpdatePosition(username string, latitude, longitude float64, timestamp int64) bool {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return false
	}

	s.mu.Lock()
	state, ok := s.players[username]
	if !ok {
		s.mu.Unlock()
		return false
	}
	state.Position = &Position{Latitude: latitude, Longitude: longitude, Timestamp: timestamp}
	state.positionAt = time.Now()
	positions := s.positionsMessageLocked()
	s.mu.Unlock()

	s.broadcast(positions)
	return true
}

// StoreFrame keeps the latest opaque camera frame for a player and relays it
// to spectators verbatim. An attached health reading, when present,
// overwrites the sender's health.
func (s *Session) StoreFrame(username, frame string, health *int) {
	s.mu.Lock()
	state, ok := s.players[username]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.frames[username] = frame
	if health != nil {
		state.setHealth(*health)
	}
	s.mu.Unlock()

	s.broadcastSpectators(frameMessage{Ver: ProtocolVersion, Type: "cameraFrame", Username: username, Frame: frame})
}

type powerupGrant struct {
	username string
	typ      PowerupType
	duration time.Duration
}

// Tick advances the session by one second. It reports true when the session
// has sat empty past its grace period and should be destroyed; all other
// bookkeeping (countdown, eliminations, stale positions, powerups, the
// aggregated update, and the finish transition) happens inline.
func (s *Session) Tick(now time.Time) bool {
	destroy, grants, outbound := s.advance(now)

	for _, grant := range grants {
		s.unicast(grant.username, powerupMessage{
			Ver:      ProtocolVersion,
			Type:     "powerup",
			Powerup:  grant.typ,
			Duration: int(grant.duration / time.Second),
		})
	}
	for _, msg := range outbound {
		s.broadcast(msg)
	}
	return destroy
}

// advance runs the locked half of a tick and hands the resulting messages
// back for delivery outside the lock. The deferred unlock keeps the session
// usable when a tick panics partway through.
func (s *Session) advance(now time.Time) (destroy bool, grants []powerupGrant, outbound []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) == 0 && len(s.spectators) == 0 {
		s.persistLeft--
		return s.persistLeft <= 0, nil, nil
	}
	s.persistLeft = s.persistSeconds

	if s.state != StateGame {
		return false, nil, nil
	}

	s.timeLeft--

	for _, state := range s.players {
		if state.Health <= eliminationHealthThreshold {
			state.Points = 0
		}
		if state.Position != nil && now.Sub(state.positionAt) > s.positionTTL {
			state.Position = nil
		}
	}

	for _, username := range s.sortedUsernamesLocked() {
		state := s.players[username]
		s.advancePowerupsLocked(state)
		if typ, duration, ok := s.rollPowerupLocked(state); ok {
			grants = append(grants, powerupGrant{username: username, typ: typ, duration: duration})
		}
	}

	outbound = append(outbound, s.gameUpdateMessageLocked())
	if s.timeLeft <= 0 {
		s.state = StateFinished
		winner, standings := s.standingsLocked()
		outbound = append(outbound, gameOverMessage{Ver: ProtocolVersion, Type: "gameOver", Winner: winner, Standings: standings})
	}
	return false, grants, outbound
}

// Close tears the session down exactly once: a close notice goes out, then
// every connection is released. Later calls are no-ops.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.broadcast(sessionClosedMessage{Ver: ProtocolVersion, Type: "sessionClosed", Reason: reason})

		s.mu.Lock()
		conns := make([]Conn, 0, len(s.conns)+len(s.spectators))
		for _, conn := range s.conns {
			conns = append(conns, conn)
		}
		for _, conn := range s.spectators {
			conns = append(conns, conn)
		}
		s.conns = make(map[string]Conn)
		s.spectators = make(map[string]Conn)
		s.mu.Unlock()

		for _, conn := range conns {
			if conn != nil {
				conn.Close()
			}
		}
	})
}

// rosterMessageLocked assembles the roster: a flat player list in solo mode,
// a per-team breakdown in team mode.
func (s *Session) rosterMessageLocked() rosterMessage {
	msg := rosterMessage{
		Ver:     ProtocolVersion,
		Type:    "roster",
		Session: s.id,
		Mode:    s.mode,
		State:   s.state,
		Admin:   adminNone,
	}
	if s.admin != "" {
		msg.Admin = s.admin
	}
	if s.mode == ModeTeam {
		msg.Teams = s.teamViewsLocked()
	} else {
		msg.Players = s.playerViewsLocked()
	}
	return msg
}

func (s *Session) gameUpdateMessageLocked() gameUpdateMessage {
	msg := gameUpdateMessage{
		Ver:      ProtocolVersion,
		Type:     "gameUpdate",
		State:    s.state,
		TimeLeft: s.timeLeft,
	}
	if s.mode == ModeTeam {
		msg.Teams = s.teamViewsLocked()
	} else {
		msg.Players = s.playerViewsLocked()
	}
	return msg
}

// playerViewsLocked snapshots every player sorted by username.
func (s *Session) playerViewsLocked() []Player {
	players := make([]Player, 0, len(s.players))
	for _, username := range s.sortedUsernamesLocked() {
		players = append(players, s.players[username].snapshot())
	}
	return players
}

func (s *Session) positionsMessageLocked() positionsMessage {
	msg := positionsMessage{
		Ver:       ProtocolVersion,
		Type:      "positions",
		Positions: make([]playerPosition, 0, len(s.players)),
	}
	for _, username := range s.sortedUsernamesLocked() {
		state := s.players[username]
		if state.Position == nil {
			continue
		}
		msg.Positions = append(msg.Positions, playerPosition{
			Username:  username,
			Latitude:  state.Position.Latitude,
			Longitude: state.Position.Longitude,
			Timestamp: state.Position.Timestamp,
		})
	}
	return msg
}

// standingsLocked ranks players (or teams) by points, best first; ties keep
// name order. The winner is the top row, empty when nobody is left.
func (s *Session) standingsLocked() (string, []Standing) {
	var standings []Standing
	if s.mode == ModeTeam {
		for _, team := range s.teamViewsLocked() {
			standings = append(standings, Standing{Name: team.ID, Points: team.Score})
		}
	} else {
		for _, player := range s.playerViewsLocked() {
			standings = append(standings, Standing{Name: player.Username, Points: player.Points})
		}
	}
	sort.SliceStable(standings, func(i, j int) bool { return standings[i].Points > standings[j].Points })

	winner := ""
	if len(standings) > 0 {
		winner = standings[0].Name
	}
	return winner, standings
}
