package collab

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// SessionStore is the process-wide registry of live sessions. Misses fall
// back to the snapshot store, so a session survives restarts and node moves;
// idle sessions are evicted (after a final snapshot) to bound memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession

	snapshots SnapshotStore
	logCap    int
}

func NewSessionStore(snapshots SnapshotStore, logCap int) *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*liveSession),
		snapshots: snapshots,
		logCap:    logCap,
	}
}

func (s *SessionStore) put(ls *liveSession) {
	s.mu.Lock()
	s.sessions[ls.data.ID] = ls
	s.mu.Unlock()
}

// get returns the live session, loading it from the snapshot store on a
// miss. Returns ErrSessionNotFound when no snapshot exists either.
func (s *SessionStore) get(ctx context.Context, sessionID string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return ls, nil
	}

	raw, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	loaded, err := decodeLiveSession(raw, s.logCap)
	if err != nil {
		return nil, err
	}

	// Another caller may have loaded it concurrently; first one in wins.
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		return existing, nil
	}
	s.sessions[sessionID] = loaded
	return loaded, nil
}

// acquire returns the live session with its mutex held. A caller that raced
// an eviction between lookup and lock re-fetches, so it always operates on
// the resident instance.
func (s *SessionStore) acquire(ctx context.Context, sessionID string) (*liveSession, error) {
	for {
		ls, err := s.get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		ls.mu.Lock()
		if !ls.evicted {
			return ls, nil
		}
		ls.mu.Unlock()
	}
}

// EvictIdle snapshots and drops sessions with no activity for at least
// maxIdle. Returns the number evicted. Evicted sessions reload from their
// snapshot on next access.
func (s *SessionStore) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*liveSession
	for id, ls := range s.sessions {
		ls.mu.Lock()
		stale := ls.lastActive.Before(cutoff)
		ls.mu.Unlock()
		if stale {
			idle = append(idle, ls)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	evicted := 0
	for _, ls := range idle {
		// The final snapshot is written while holding the session mutex: an
		// in-flight caller that still has this pointer blocks here, then
		// observes evicted and re-fetches the state just written.
		ls.mu.Lock()
		raw, err := ls.encodeLocked()
		id, creator, title, active := ls.data.ID, ls.data.CreatorID, ls.data.Title, ls.data.Active
		if err == nil {
			err = s.snapshots.Save(ctx, id, creator, title, active, raw)
		}
		if err != nil {
			ls.mu.Unlock()
			log.Printf("Failed to snapshot session %s for eviction, keeping it resident: %v", id, err)
			s.mu.Lock()
			if _, exists := s.sessions[id]; !exists {
				s.sessions[id] = ls
			}
			s.mu.Unlock()
			continue
		}
		ls.evicted = true
		ls.mu.Unlock()
		evicted++
	}
	return evicted
}

// Len reports the number of resident sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
