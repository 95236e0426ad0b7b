package server

// Elimination causes reported with the elimination event.
const (
	causeHealthDepleted = "health_depleted"
	causePointsDepleted = "points_depleted"
	causeBothDepleted   = "both_depleted"
)

// ResolveHit arbitrates one reported hit from shooter against whoever wears
// targetColor. Invalid reports (sentinel color, unknown color, self,
// friendly fire, eliminated or invincible parties, session not in game)
// resolve as silent no-ops: no mutation, no broadcast. The whole resolution
// runs under the session mutex, so concurrent hits against the same target
// each see the previous hit's result.
func (s *Session) ResolveHit(shooter string, targetColor string, weapon Weapon) {
	s.mu.Lock()

	if s.state != StateGame {
		s.mu.Unlock()
		return
	}

	shooterState, ok := s.players[shooter]
	if !ok || shooterState.eliminated() {
		s.mu.Unlock()
		return
	}

	if targetColor == colorNone {
		s.mu.Unlock()
		return
	}

	targetState := s.findTargetLocked(targetColor)
	if targetState == nil || targetState.Username == shooter {
		s.mu.Unlock()
		return
	}
	if targetState.eliminated() || targetState.hasPowerup(PowerupInvincibility) {
		s.mu.Unlock()
		return
	}

	if s.mode == ModeTeam && shooterState.TeamID == targetState.TeamID {
		s.mu.Unlock()
		return
	}

	targetState.applyHealthDelta(-hitHealthDamage)
	shooterState.applyHealthDelta(hitHealthReward)

	if shooterState.hasPowerup(PowerupInstakill) {
		reward := targetState.Points / 2
		targetState.Points = 0
		shooterState.applyPointsDelta(reward)
	} else {
		targetState.applyPointsDelta(-weapon.pointDamage())
		shooterState.applyPointsDelta(weapon.pointReward())
	}

	shooterState.HitsGiven++
	targetState.HitsTaken++

	hit := hitMessage{
		Ver:           ProtocolVersion,
		Type:          "hit",
		Shooter:       shooter,
		Target:        targetState.Username,
		Weapon:        weapon,
		TargetHealth:  targetState.Health,
		TargetPoints:  targetState.Points,
		ShooterHealth: shooterState.Health,
		ShooterPoints: shooterState.Points,
	}

	var elimination *eliminationMessage
	if targetState.eliminated() {
		elimination = &eliminationMessage{
			Ver:      ProtocolVersion,
			Type:     "elimination",
			Username: targetState.Username,
			Cause:    eliminationCause(targetState),
		}
	}
	s.mu.Unlock()

	s.broadcast(hit)
	if elimination != nil {
		s.broadcast(*elimination)
	}
}

// findTargetLocked resolves a reported color to the player wearing it,
// scanning in stable username order so duplicate colors resolve the same way
// every time.
func (s *Session) findTargetLocked(color string) *playerState {
	for _, username := range s.sortedUsernamesLocked() {
		if state := s.players[username]; state.Color == color {
			return state
		}
	}
	return nil
}

func eliminationCause(state *playerState) string {
	healthGone := state.Health <= eliminationHealthThreshold
	pointsGone := state.Points <= 0
	switch {
	case healthGone && pointsGone:
		return causeBothDepleted
	case healthGone:
		return causeHealthDepleted
	default:
		return causePointsDepleted
	}
}
