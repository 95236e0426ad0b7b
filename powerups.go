package server

import "time"

// PowerupType tags a temporary player modifier.
type PowerupType string

const (
	PowerupInvincibility PowerupType = "invincibility"
	PowerupInstakill     PowerupType = "instakill"
	PowerupHealthBoost   PowerupType = "healthBoost"
)

type powerupHandler func(s *Session, target *playerState)

// PowerupDefinition describes one grantable powerup. A zero Duration means
// the effect applies instantaneously via OnGrant and is never stored.
type PowerupDefinition struct {
	Type     PowerupType
	Duration time.Duration
	OnGrant  powerupHandler
}

func newPowerupDefinitions() map[PowerupType]*PowerupDefinition {
	return map[PowerupType]*PowerupDefinition{
		PowerupInvincibility: {
			Type:     PowerupInvincibility,
			Duration: powerupDuration,
		},
		PowerupInstakill: {
			Type:     PowerupInstakill,
			Duration: powerupDuration,
		},
		PowerupHealthBoost: {
			Type: PowerupHealthBoost,
			OnGrant: func(_ *Session, target *playerState) {
				target.applyHealthDelta(healthBoostAmount)
			},
		},
	}
}

// powerupRollOrder fixes the uniform pick order so seeded sessions replay.
var powerupRollOrder = []PowerupType{PowerupInvincibility, PowerupInstakill, PowerupHealthBoost}

// advancePowerupsLocked decrements the stored effects on one player and
// drops those that ran out.
func (s *Session) advancePowerupsLocked(state *playerState) {
	for typ, left := range state.powerups {
		left--
		if left <= 0 {
			delete(state.powerups, typ)
			continue
		}
		state.powerups[typ] = left
	}
}

// rollPowerupLocked runs the per-tick spawn chance for one player and
// returns the granted type and duration when the roll succeeds.
func (s *Session) rollPowerupLocked(state *playerState) (PowerupType, time.Duration, bool) {
	if s.rng.Float64() >= s.powerupChance {
		return "", 0, false
	}
	typ := powerupRollOrder[s.rng.Intn(len(powerupRollOrder))]
	def, ok := s.powerupDefs[typ]
	if !ok || def == nil {
		return "", 0, false
	}
	if def.OnGrant != nil {
		def.OnGrant(s, state)
	}
	if def.Duration > 0 {
		state.powerups[typ] = int(def.Duration / time.Second)
	}
	return typ, def.Duration, true
}
