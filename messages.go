package server

// ClientMessage is the single inbound envelope; Type selects which of the
// remaining fields carry meaning. Unknown types are ignored by the reader,
// and unparseable payloads are dropped with the connection left open.
type ClientMessage struct {
	Ver       int     `json:"ver,omitempty"`
	Type      string  `json:"type"`
	Color     string  `json:"color,omitempty"`
	Weapon    string  `json:"weapon,omitempty"`
	Frame     string  `json:"frame,omitempty"`
	Health    *int    `json:"health,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

type rosterMessage struct {
	Ver     int        `json:"ver"`
	Type    string     `json:"type"`
	Session string     `json:"session"`
	Mode    Mode       `json:"mode"`
	State   MatchState `json:"state"`
	Admin   string     `json:"admin"`
	Players []Player   `json:"players,omitempty"`
	Teams   []Team     `json:"teams,omitempty"`
}

func (rosterMessage) ProtoRoster() {}

type gameUpdateMessage struct {
	Ver      int        `json:"ver"`
	Type     string     `json:"type"`
	State    MatchState `json:"state"`
	TimeLeft int        `json:"timeLeft"`
	Players  []Player   `json:"players,omitempty"`
	Teams    []Team     `json:"teams,omitempty"`
}

func (gameUpdateMessage) ProtoGameUpdate() {}

type hitMessage struct {
	Ver           int    `json:"ver"`
	Type          string `json:"type"`
	Shooter       string `json:"shooter"`
	Target        string `json:"target"`
	Weapon        Weapon `json:"weapon"`
	TargetHealth  int    `json:"targetHealth"`
	TargetPoints  int    `json:"targetPoints"`
	ShooterHealth int    `json:"shooterHealth"`
	ShooterPoints int    `json:"shooterPoints"`
}

func (hitMessage) ProtoHit() {}

type eliminationMessage struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Cause    string `json:"cause"`
}

func (eliminationMessage) ProtoElimination() {}

type powerupMessage struct {
	Ver     int         `json:"ver"`
	Type    string      `json:"type"`
	Powerup PowerupType `json:"powerup"`
	// Duration is whole seconds; zero for instantaneous grants.
	Duration int `json:"duration"`
}

func (powerupMessage) ProtoPowerup() {}

type positionsMessage struct {
	Ver       int              `json:"ver"`
	Type      string           `json:"type"`
	Positions []playerPosition `json:"positions"`
}

type playerPosition struct {
	Username  string  `json:"username"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

func (positionsMessage) ProtoPositions() {}

type forfeitMessage struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Username string `json:"username"`
}

func (forfeitMessage) ProtoForfeit() {}

type gameOverMessage struct {
	Ver       int        `json:"ver"`
	Type      string     `json:"type"`
	Winner    string     `json:"winner"`
	Standings []Standing `json:"standings"`
}

func (gameOverMessage) ProtoGameOver() {}

// Standing is one row of the end-of-game table, best first. Name is a
// username in solo mode and a team id in team mode.
type Standing struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type sessionClosedMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (sessionClosedMessage) ProtoSessionClosed() {}

type colorResultMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	Color     string `json:"color"`
	Available bool   `json:"available"`
}

func (colorResultMessage) ProtoColorResult() {}

type frameMessage struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Frame    string `json:"frame"`
}

func (frameMessage) ProtoFrame() {}

// WireProtocol aggregates every message shape the server reads or writes;
// cmd/schema reflects over it to publish the client-facing JSON schema.
type WireProtocol struct {
	Client        ClientMessage        `json:"client"`
	Roster        rosterMessage        `json:"roster"`
	GameUpdate    gameUpdateMessage    `json:"gameUpdate"`
	Hit           hitMessage           `json:"hit"`
	Elimination   eliminationMessage   `json:"elimination"`
	Powerup       powerupMessage       `json:"powerup"`
	Positions     positionsMessage     `json:"positions"`
	Forfeit       forfeitMessage       `json:"forfeit"`
	GameOver      gameOverMessage      `json:"gameOver"`
	SessionClosed sessionClosedMessage `json:"sessionClosed"`
	ColorResult   colorResultMessage   `json:"colorResult"`
	Frame         frameMessage         `json:"frame"`
}
