// Package inmem provides the bounded in-process conversation memory. State
// lives only for the lifetime of the process; a restart forgets all sessions.
package inmem

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

const (
	defaultMaxTurns    = 25
	defaultMaxSessions = 50
	defaultContextSize = 2
)

type Config struct {
	// MaxTurns bounds how many turns one session retains; older turns are
	// dropped on write.
	MaxTurns int
	// MaxSessions bounds the session table; exceeding it evicts the
	// session with the oldest write.
	MaxSessions int
	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time
}

type session struct {
	mu           sync.Mutex
	turns        []domain.Turn
	lastActivity time.Time
}

// Store is the bounded multi-session conversation memory. Eviction is by
// write recency: reading a session does not protect it from eviction, only
// appending to it does.
//
// Locking: s.mu guards only the session table, each session carries its own
// mutex for its turns. Appends to different sessions run concurrently; the
// table lock is held just long enough to look up or create an entry and to
// run the eviction scan.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	maxTurns    int
	maxSessions int
	now         func() time.Time
	logger      *slog.Logger

	// testHookAfterAppend runs between the per-session append and the
	// table maintenance step. Nil outside tests.
	testHookAfterAppend func()
}

func NewStore(cfg Config, logger *slog.Logger) *Store {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions:    make(map[string]*session),
		maxTurns:    cfg.MaxTurns,
		maxSessions: cfg.MaxSessions,
		now:         cfg.Clock,
		logger:      logger,
	}
}

// AppendTurn records one completed exchange. The session is created on first
// use; an empty session id maps to "default". Appending trims the session to
// the newest MaxTurns turns and may evict the least recently written other
// session to keep the table within MaxSessions.
func (s *Store) AppendTurn(sessionID, query, response string, resultCount int) (domain.SessionSummary, error) {
	sessionID = normalizeSessionID(sessionID)
	now := s.now()

	sess := s.lookupOrCreate(sessionID)

	sess.mu.Lock()
	sess.turns = append(sess.turns, domain.Turn{
		ID:          uuid.NewString(),
		Timestamp:   now,
		Query:       query,
		Response:    response,
		ResultCount: resultCount,
	})
	if len(sess.turns) > s.maxTurns {
		trimmed := make([]domain.Turn, s.maxTurns)
		copy(trimmed, sess.turns[len(sess.turns)-s.maxTurns:])
		sess.turns = trimmed
	}
	sess.lastActivity = now
	summary := domain.SessionSummary{
		SessionID:    sessionID,
		TurnCount:    len(sess.turns),
		LastActivity: sess.lastActivity,
	}
	sess.mu.Unlock()

	if s.testHookAfterAppend != nil {
		s.testHookAfterAppend()
	}

	// Table maintenance under a short exclusive lock: a concurrent writer
	// may have evicted this session between the lookup and the append, in
	// which case the entry is put back (the freshest write must never be
	// the victim), then the table is trimmed to capacity.
	s.mu.Lock()
	if current, ok := s.sessions[sessionID]; !ok || current != sess {
		s.sessions[sessionID] = sess
	}
	s.evictLocked(sessionID)
	s.mu.Unlock()

	return summary, nil
}

// lookupOrCreate returns the live session entry, creating it under a brief
// exclusive table lock only when absent.
func (s *Store) lookupOrCreate(sessionID string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[sessionID] = sess
	return sess
}

// RecentContext returns up to limit most recent turns of the session in
// chronological order. It never fails: an unknown session yields nil, and
// reading leaves the session's eviction position untouched.
func (s *Store) RecentContext(sessionID string, limit int) []domain.TurnContext {
	sessionID = normalizeSessionID(sessionID)
	if limit <= 0 {
		limit = defaultContextSize
	}

	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := len(sess.turns) - limit
	if start < 0 {
		start = 0
	}
	recent := make([]domain.TurnContext, 0, len(sess.turns)-start)
	for _, turn := range sess.turns[start:] {
		recent = append(recent, domain.TurnContext{
			Query:     turn.Query,
			Response:  turn.Response,
			Timestamp: turn.Timestamp,
		})
	}
	return recent
}

// Len reports the current session table size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evictLocked drops least-recently-written sessions until the table fits.
// The session just written is never the victim. Caller holds s.mu; each
// candidate's lastActivity is read under its own lock because appends to
// other sessions may be in flight.
func (s *Store) evictLocked(justWritten string) {
	for len(s.sessions) > s.maxSessions {
		victim := ""
		var oldest time.Time
		for id, sess := range s.sessions {
			if id == justWritten {
				continue
			}
			sess.mu.Lock()
			last := sess.lastActivity
			sess.mu.Unlock()
			if victim == "" || last.Before(oldest) {
				victim = id
				oldest = last
			}
		}
		if victim == "" {
			return
		}
		delete(s.sessions, victim)
		s.logger.Debug("evicted conversation session", "session_id", victim)
	}
}

func normalizeSessionID(sessionID string) string {
	if sessionID == "" {
		return "default"
	}
	return sessionID
}
