package server

import "time"

const (
	ProtocolVersion = 1

	maxHealth      = 100
	startingHealth = 100
	startingPoints = 50

	hitHealthDamage = 10
	hitHealthReward = 10

	// A player is eliminated once health falls to this threshold or points
	// reach zero; eliminated players neither score nor deal damage.
	eliminationHealthThreshold = 10

	powerupDuration   = 10 * time.Second
	healthBoostAmount = 20

	defaultMatchSeconds   = 180
	defaultPersistSeconds = 300
	defaultPositionTTL    = 10 * time.Second
	defaultPowerupChance  = 0.06

	sessionCodeLength = 4

	// colorNone is the reserved sentinel a client reports when its detector
	// saw no target. Hits against it never resolve.
	colorNone = "none"

	// adminNone is the roster value sent while the player map is empty.
	adminNone = "none"
)
