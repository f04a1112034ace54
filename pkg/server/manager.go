package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/tableview/pkg/middleware"
)

// SessionManager manages all live sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl             time.Duration
	maxSessions     int
	cleanupInterval time.Duration

	onSessionClose func(*Session)

	done        chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once

	logger *slog.Logger
}

// NewSessionManager creates a SessionManager and starts its cleanup loop.
func NewSessionManager(config *ServerConfig, logger *slog.Logger) *SessionManager {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	sm := &SessionManager{
		sessions:        make(map[string]*Session),
		ttl:             config.SessionTTL,
		maxSessions:     config.MaxSessions,
		cleanupInterval: config.CleanupInterval,
		done:            make(chan struct{}),
		cleanupDone:     make(chan struct{}),
		logger:          logger.With("component", "session_manager"),
	}
	go sm.cleanupLoop()
	return sm
}

// Add registers a session. It fails when the session limit is reached.
func (sm *SessionManager) Add(s *Session) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		return ErrMaxSessionsReached
	}
	sm.sessions[s.ID] = s
	middleware.RecordSessionCreate()
	sm.logger.Debug("session created", "session", s.ID, "client", s.ClientID)
	return nil
}

// Get returns the session with id, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Close closes and removes the session with id.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if ok {
		sm.closeSession(s)
	}
}

func (sm *SessionManager) closeSession(s *Session) {
	s.Close()
	middleware.RecordSessionClose()
	if sm.onSessionClose != nil {
		sm.onSessionClose(s)
	}
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for each session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

// SetOnSessionClose sets a callback run after a session is closed.
func (sm *SessionManager) SetOnSessionClose(fn func(*Session)) {
	sm.onSessionClose = fn
}

// cleanupLoop periodically removes expired sessions.
func (sm *SessionManager) cleanupLoop() {
	defer close(sm.cleanupDone)

	ticker := time.NewTicker(sm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpired(time.Now())
		case <-sm.done:
			return
		}
	}
}

// cleanupExpired closes sessions that never attached a WebSocket within
// the TTL. Attached sessions end when their connection does.
func (sm *SessionManager) cleanupExpired(now time.Time) int {
	var expired []*Session

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if s.IsAttached() {
			continue
		}
		if now.Sub(s.LastActive()) > sm.ttl {
			expired = append(expired, s)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range expired {
		sm.logger.Info("session expired", "session", s.ID)
		sm.closeSession(s)
	}
	return len(expired)
}

// Shutdown stops the cleanup loop and closes every session.
func (sm *SessionManager) Shutdown() {
	sm.stopOnce.Do(func() {
		close(sm.done)
	})
	<-sm.cleanupDone

	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for id, s := range sm.sessions {
		sessions = append(sessions, s)
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	for _, s := range sessions {
		sm.closeSession(s)
	}
	sm.logger.Info("session manager shutdown", "closed", len(sessions))
}

// ManagerStats contains session manager statistics.
type ManagerStats struct {
	Active   int
	Attached int
}

// Stats returns session manager statistics.
func (sm *SessionManager) Stats() ManagerStats {
	var stats ManagerStats
	sm.ForEach(func(s *Session) bool {
		stats.Active++
		if s.IsAttached() {
			stats.Attached++
		}
		return true
	})
	return stats
}
