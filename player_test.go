package server

import "testing"

func TestSnapshotDetachesMutableState(t *testing.T) {
	t.Parallel()

	state := newPlayerState("cable", "red", "")
	state.Position = &Position{Latitude: 1, Longitude: 2, Timestamp: 3}
	state.powerups[PowerupInvincibility] = 9
	state.powerups[PowerupInstakill] = 4

	view := state.snapshot()

	view.Position.Latitude = 99
	if state.Position.Latitude != 1 {
		t.Fatalf("expected the snapshot position to be a copy, live latitude became %v", state.Position.Latitude)
	}

	if len(view.Powerups) != 2 {
		t.Fatalf("expected two powerup views, got %d", len(view.Powerups))
	}
	if view.Powerups[0].Type != PowerupInstakill || view.Powerups[0].SecondsLeft != 4 {
		t.Fatalf("expected instakill first with 4 seconds, got %+v", view.Powerups[0])
	}
	if view.Powerups[1].Type != PowerupInvincibility || view.Powerups[1].SecondsLeft != 9 {
		t.Fatalf("expected invincibility second with 9 seconds, got %+v", view.Powerups[1])
	}
}

func TestHealthAndPointsClamp(t *testing.T) {
	t.Parallel()

	state := newPlayerState("cable", "red", "")

	state.applyHealthDelta(50)
	if state.Health != maxHealth {
		t.Fatalf("expected health capped at %d, got %d", maxHealth, state.Health)
	}

	state.applyHealthDelta(-200)
	if state.Health != 0 {
		t.Fatalf("expected health floored at 0, got %d", state.Health)
	}

	state.applyPointsDelta(-200)
	if state.Points != 0 {
		t.Fatalf("expected points floored at 0, got %d", state.Points)
	}
}

func TestEliminatedThresholds(t *testing.T) {
	t.Parallel()

	state := newPlayerState("cable", "red", "")
	if state.eliminated() {
		t.Fatalf("expected a fresh player to be alive")
	}

	state.Health = eliminationHealthThreshold + 1
	if state.eliminated() {
		t.Fatalf("expected health just above the threshold to stay alive")
	}

	state.Health = eliminationHealthThreshold
	if !state.eliminated() {
		t.Fatalf("expected health at the threshold to eliminate")
	}

	state.Health = startingHealth
	state.Points = 0
	if !state.eliminated() {
		t.Fatalf("expected zero points to eliminate")
	}
}
