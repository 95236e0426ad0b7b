package server

import (
	"sort"
	"time"
)

// Player is the externally visible snapshot of one participant.
type Player struct {
	Username  string          `json:"username"`
	Color     string          `json:"color"`
	TeamID    string          `json:"teamId,omitempty"`
	Health    int             `json:"health"`
	Points    int             `json:"points"`
	HitsGiven int             `json:"hitsGiven"`
	HitsTaken int             `json:"hitsTaken"`
	Powerups  []ActivePowerup `json:"powerups,omitempty"`
	Position  *Position       `json:"position,omitempty"`
}

// Position is the last geographic fix a player reported.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// ActivePowerup reports a stored effect and the whole seconds it has left.
type ActivePowerup struct {
	Type        PowerupType `json:"type"`
	SecondsLeft int         `json:"secondsLeft"`
}

type playerState struct {
	Player
	powerups   map[PowerupType]int // remaining whole seconds per stored effect
	positionAt time.Time
}

func newPlayerState(username, color, teamID string) *playerState {
	return &playerState{
		Player: Player{
			Username: username,
			Color:    color,
			TeamID:   teamID,
			Health:   startingHealth,
			Points:   startingPoints,
		},
		powerups: make(map[PowerupType]int),
	}
}

// snapshot copies the player for broadcasting, materializing powerup views
// and detaching the position pointer from live state.
func (s *playerState) snapshot() Player {
	player := s.Player
	player.Powerups = s.activePowerups()
	if s.Position != nil {
		position := *s.Position
		player.Position = &position
	}
	return player
}

func (s *playerState) activePowerups() []ActivePowerup {
	if len(s.powerups) == 0 {
		return nil
	}
	views := make([]ActivePowerup, 0, len(s.powerups))
	for typ, left := range s.powerups {
		views = append(views, ActivePowerup{Type: typ, SecondsLeft: left})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Type < views[j].Type })
	return views
}

// applyHealthDelta shifts health, clamped to [0, maxHealth].
func (s *playerState) applyHealthDelta(delta int) {
	s.setHealth(s.Health + delta)
}

func (s *playerState) setHealth(value int) {
	if value < 0 {
		value = 0
	}
	if value > maxHealth {
		value = maxHealth
	}
	s.Health = value
}

// applyPointsDelta shifts points, floored at zero.
func (s *playerState) applyPointsDelta(delta int) {
	points := s.Points + delta
	if points < 0 {
		points = 0
	}
	s.Points = points
}

func (s *playerState) hasPowerup(typ PowerupType) bool {
	_, ok := s.powerups[typ]
	return ok
}

// eliminated reports whether the player can no longer deal damage or score.
func (s *playerState) eliminated() bool {
	return s.Health <= eliminationHealthThreshold || s.Points <= 0
}
