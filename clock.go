package server

import (
	"time"

	"go.uber.org/zap"
)

// Clock is the single process-wide driver that advances every session once
// per second. Sessions own no timers of their own; destroying one releases
// its connections exactly once through Session.Close.
type Clock struct {
	registry *Registry
	logger   *zap.Logger
}

func NewClock(registry *Registry, logger *zap.Logger) *Clock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clock{registry: registry, logger: logger}
}

// Run drives the tick loop until the stop channel closes.
func (c *Clock) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.Step(now)
		}
	}
}

// Step advances every registered session one tick. A panic while ticking one
// session is contained so the remaining sessions still advance.
func (c *Clock) Step(now time.Time) {
	for _, session := range c.registry.snapshot() {
		c.tickSession(session, now)
	}
}

func (c *Clock) tickSession(session *Session, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("session tick failed",
				zap.String("session", session.ID()),
				zap.Any("panic", r))
		}
	}()

	if session.Tick(now) {
		c.registry.Destroy(session.ID(), "expired")
	}
}
