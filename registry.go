package server

import (
	"crypto/rand"
	"math/big"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const codeAlphabet = "abcdefghijklmnopqrstuvwxyz"

// Registry owns every live session. Sessions are created on first join and
// removed either explicitly or by the match clock's idle reaper.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
	logger   *zap.Logger
}

func NewRegistry(cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg.normalized(),
		logger:   logger,
	}
}

// GetOrCreate returns the session registered under id, creating one in mode
// when absent. An existing session wins; the requested mode is ignored on a
// mismatch.
func (r *Registry) GetOrCreate(id string, mode Mode) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		return session
	}

	session := newSession(id, mode, r.cfg, r.logger)
	r.sessions[id] = session
	r.logger.Info("session created",
		zap.String("session", id),
		zap.String("mode", string(mode)))
	return session
}

func (r *Registry) Find(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Destroy tears a session down and forgets it. Destroying an id twice, or
// one that never existed, is a no-op.
func (r *Registry) Destroy(id, reason string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	session.Close(reason)
	r.logger.Info("session destroyed",
		zap.String("session", id),
		zap.String("reason", reason))
}

// NewCode mints a four-letter lowercase code not currently registered.
func (r *Registry) NewCode() (string, error) {
	for {
		code, err := randomCode(sessionCodeLength)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		_, taken := r.sessions[code]
		r.mu.Unlock()
		if !taken {
			return code, nil
		}
	}
}

// Summaries lists every session, sorted by id.
func (r *Registry) Summaries() []SessionSummary {
	sessions := r.snapshot()
	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// snapshot copies the session list so callers can iterate without the lock.
func (r *Registry) snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func randomCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code), nil
}
