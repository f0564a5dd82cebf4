package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

// Config tunes the session manager. Zero values pick the defaults.
type Config struct {
	// DefaultStrategy is used when a session has no strategy override.
	DefaultStrategy Strategy
	// SnapshotEvery persists the session after this many accepted canvas
	// operations. Roster and chat changes always snapshot.
	SnapshotEvery int
	// OperationLogCap bounds the per-session conflict-replay window.
	OperationLogCap int
	// ChatHistoryCap bounds the chat history retained in snapshots.
	ChatHistoryCap int
}

const (
	defaultSnapshotEvery  = 10
	defaultChatHistoryCap = 200
)

// Manager owns session lifecycle and coordinates the sequencer, conflict
// detection/resolution, canvas state and fan-out for every session. All
// collaborators are injected; the manager is the only component external
// actors talk to.
type Manager struct {
	store     *SessionStore
	snapshots SnapshotStore
	conflicts ConflictStore
	gateway   Gateway
	resolver  *Resolver
	cfg       Config
}

func NewManager(snapshots SnapshotStore, conflicts ConflictStore, gateway Gateway, cfg Config) *Manager {
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = StrategyTimestamp
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = defaultSnapshotEvery
	}
	if cfg.OperationLogCap <= 0 {
		cfg.OperationLogCap = DefaultOperationLogCap
	}
	if cfg.ChatHistoryCap <= 0 {
		cfg.ChatHistoryCap = defaultChatHistoryCap
	}
	return &Manager{
		store:     NewSessionStore(snapshots, cfg.OperationLogCap),
		snapshots: snapshots,
		conflicts: conflicts,
		gateway:   gateway,
		resolver:  NewResolver(),
		cfg:       cfg,
	}
}

// Resolver exposes the conflict resolver for custom strategy registration at
// startup.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// Store exposes the session registry for maintenance (idle eviction).
func (m *Manager) Store() *SessionStore {
	return m.store
}

// CreateSession registers a new session with the caller as its creator and
// writes the initial snapshot. Settings are merged over the defaults.
func (m *Manager) CreateSession(ctx context.Context, creatorID uuid.UUID, creatorName, title, description string, settings *models.SessionSettings) (*models.Session, error) {
	if creatorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	merged := models.DefaultSessionSettings()
	if settings != nil {
		if settings.MaxParticipants > 0 {
			merged.MaxParticipants = settings.MaxParticipants
		}
		if settings.CanvasWidth > 0 {
			merged.CanvasWidth = settings.CanvasWidth
		}
		if settings.CanvasHeight > 0 {
			merged.CanvasHeight = settings.CanvasHeight
		}
		if len(settings.Tools) > 0 {
			merged.Tools = settings.Tools
		}
		if settings.Access != "" {
			merged.Access = settings.Access
		}
		if settings.ConflictStrategy != "" {
			merged.ConflictStrategy = settings.ConflictStrategy
		}
	}

	now := time.Now()
	sess := &models.Session{
		ID:          models.NewSessionID(),
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		CreatedAt:   now,
		Settings:    merged,
		Participants: map[uuid.UUID]*models.Participant{
			creatorID: {
				UserID:   creatorID,
				Name:     creatorName,
				Role:     models.RoleCreator,
				JoinedAt: now,
				Active:   true,
			},
		},
		Canvas: models.NewCanvasState(),
		Active: true,
	}

	ls := newLiveSession(sess, m.cfg.OperationLogCap)
	m.store.put(ls)

	ls.mu.Lock()
	raw, err := ls.encodeLocked()
	ls.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.snapshots.Save(ctx, sess.ID, creatorID, title, true, raw); err != nil {
		// The live session is authoritative; persistence catches up on the
		// next successful write.
		log.Printf("Failed to write initial snapshot for session %s: %v", sess.ID, err)
	}

	ls.mu.Lock()
	created := ls.cloneLocked()
	ls.mu.Unlock()
	return &created, nil
}

// JoinSession adds the user to the roster (or re-activates an existing
// entry) and returns the full snapshot so the client can render without
// requesting history.
func (m *Manager) JoinSession(ctx context.Context, sessionID string, userID uuid.UUID, name string) (*SessionSnapshot, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	ls, err := m.store.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !ls.data.Active {
		ls.mu.Unlock()
		return nil, ErrSessionClosed
	}

	var joined *models.Participant
	if p, ok := ls.data.Participants[userID]; ok {
		// Reconnect path: flip active, keep role and joined_at.
		p.Active = true
		joined = p
	} else {
		if len(ls.data.Participants) >= ls.data.Settings.MaxParticipants {
			ls.mu.Unlock()
			return nil, ErrSessionFull
		}
		joined = &models.Participant{
			UserID:   userID,
			Name:     name,
			Role:     models.RoleParticipant,
			JoinedAt: time.Now(),
			Active:   true,
		}
		ls.data.Participants[userID] = joined
	}

	m.appendChatLocked(ls, models.ChatEntry{
		Kind:      models.ChatKindSystem,
		Message:   fmt.Sprintf("%s joined the session", name),
		Timestamp: time.Now(),
	})
	ls.touchLocked()

	participant := *joined
	snap := &SessionSnapshot{Session: ls.cloneLocked(), Sequence: ls.seq}
	raw, encErr := ls.encodeLocked()
	ls.mu.Unlock()

	m.persistAsync(sessionID, snap.Session.CreatorID, snap.Session.Title, snap.Session.Active, raw, encErr)
	m.gateway.Notify(sessionID, EventParticipantJoined, map[string]any{
		"session_id":  sessionID,
		"participant": participant,
	})
	return snap, nil
}

// LeaveSession deactivates the participant. Roster entries are never
// removed: roles and history stay available for audit and for priority
// lookups on in-flight conflicts.
func (m *Manager) LeaveSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	ls, err := m.store.acquire(ctx, sessionID)
	if err != nil {
		return err
	}

	p, ok := ls.data.Participants[userID]
	if !ok {
		ls.mu.Unlock()
		return ErrNotAParticipant
	}
	p.Active = false
	m.appendChatLocked(ls, models.ChatEntry{
		Kind:      models.ChatKindSystem,
		Message:   fmt.Sprintf("%s left the session", p.Name),
		Timestamp: time.Now(),
	})
	ls.touchLocked()
	creatorID, title, active := ls.data.CreatorID, ls.data.Title, ls.data.Active
	raw, encErr := ls.encodeLocked()
	ls.mu.Unlock()

	m.persistAsync(sessionID, creatorID, title, active, raw, encErr)
	m.gateway.Notify(sessionID, EventParticipantLeft, map[string]any{
		"session_id": sessionID,
		"user_id":    userID,
	})
	return nil
}

// CloseSession marks the session inactive. Only the creator or an admin may
// close; the session is retained for audit, never deleted.
func (m *Manager) CloseSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	ls, err := m.store.acquire(ctx, sessionID)
	if err != nil {
		return err
	}

	p, ok := ls.data.Participants[userID]
	if !ok {
		ls.mu.Unlock()
		return ErrNotAParticipant
	}
	if p.Role != models.RoleCreator && p.Role != models.RoleAdmin {
		ls.mu.Unlock()
		return ErrNotAllowed
	}
	if !ls.data.Active {
		ls.mu.Unlock()
		return ErrSessionClosed
	}
	ls.data.Active = false
	ls.touchLocked()
	creatorID, title := ls.data.CreatorID, ls.data.Title
	raw, encErr := ls.encodeLocked()
	ls.mu.Unlock()

	m.persistAsync(sessionID, creatorID, title, false, raw, encErr)
	m.gateway.Notify(sessionID, EventSessionClosed, map[string]any{
		"session_id": sessionID,
		"closed_by":  userID,
	})
	return nil
}

// Snapshot returns the current state of a session without mutating it.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	ls, err := m.store.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap := &SessionSnapshot{Session: ls.cloneLocked(), Sequence: ls.seq}
	ls.mu.Unlock()
	return snap, nil
}

// SubmitUpdate is the hot path: it decides accept/conflict/reject for one
// operation. The decision is purely in-memory; persistence and fan-out are
// best-effort side effects after the outcome is fixed.
func (m *Manager) SubmitUpdate(ctx context.Context, sessionID string, userID uuid.UUID, op models.Operation) (*Outcome, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	ls, err := m.store.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !ls.data.Active {
		ls.mu.Unlock()
		return nil, ErrSessionClosed
	}
	p, ok := ls.data.Participants[userID]
	if !ok || !p.Active {
		ls.mu.Unlock()
		return nil, ErrNotAParticipant
	}

	op.AuthorID = userID
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}
	ls.touchLocked()

	// Cursor and chat traffic never touches the sequencer.
	switch op.Type {
	case models.OpCursorUpdate:
		var body models.CursorUpdateBody
		if err := json.Unmarshal(op.Body, &body); err == nil {
			p.Cursor = models.Cursor{X: body.X, Y: body.Y}
		}
		cursor := p.Cursor
		seq := ls.seq
		ls.mu.Unlock()
		m.gateway.Notify(sessionID, EventCursorUpdate, map[string]any{
			"session_id": sessionID,
			"user_id":    userID,
			"cursor":     cursor,
		})
		return &Outcome{Status: OutcomeAccepted, ServerSequence: seq}, nil

	case models.OpChatMessage:
		seq := ls.seq
		ls.mu.Unlock()
		m.gateway.Notify(sessionID, EventChatMessage, map[string]any{
			"session_id": sessionID,
			"user_id":    userID,
			"operation":  op,
		})
		return &Outcome{Status: OutcomeAccepted, ServerSequence: seq}, nil
	}

	if !op.IsCanvasMutation() {
		seq := ls.seq
		ls.mu.Unlock()
		return &Outcome{Status: OutcomeRejected, ServerSequence: seq, Reason: ReasonUnsupportedOperation}, nil
	}

	switch {
	case op.ClientSequence == ls.seq:
		return m.acceptAndFanOut(ls, sessionID, op, "")

	case op.ClientSequence > ls.seq:
		// The client claims to have seen a future state.
		seq := ls.seq
		ls.mu.Unlock()
		return &Outcome{Status: OutcomeRejected, ServerSequence: seq, Reason: ReasonInvalidSequence}, nil
	}

	// client_sequence < server sequence: conflict.
	return m.handleConflict(ctx, ls, sessionID, op)
}

// acceptAndFanOut finishes the no-conflict (or re-based) accept path.
// Expects ls.mu held; releases it.
func (m *Manager) acceptAndFanOut(ls *liveSession, sessionID string, op models.Operation, strategy Strategy) (*Outcome, error) {
	if err := ls.acceptLocked(&op); err != nil {
		seq := ls.seq
		ls.mu.Unlock()
		return &Outcome{Status: OutcomeRejected, ServerSequence: seq, Reason: ReasonInvalidOperation}, nil
	}

	outcome := &Outcome{
		Status:         OutcomeAccepted,
		ServerSequence: op.ServerSequence,
		Version:        ls.data.Canvas.Version,
		Strategy:       strategy,
	}

	var raw []byte
	var encErr error
	creatorID, title, active := ls.data.CreatorID, ls.data.Title, ls.data.Active
	if ls.opsSinceSnapshot >= m.cfg.SnapshotEvery {
		ls.opsSinceSnapshot = 0
		raw, encErr = ls.encodeLocked()
	}
	ls.mu.Unlock()

	if raw != nil || encErr != nil {
		m.persistAsync(sessionID, creatorID, title, active, raw, encErr)
	}
	m.gateway.Notify(sessionID, EventCanvasUpdated, map[string]any{
		"session_id": sessionID,
		"user_id":    op.AuthorID,
		"operation":  op,
	})
	return outcome, nil
}

// handleConflict records the conflict, attempts auto-resolution and either
// re-bases the operation or hands the submitter its resolution options.
// Expects ls.mu held; releases it.
func (m *Manager) handleConflict(ctx context.Context, ls *liveSession, sessionID string, op models.Operation) (*Outcome, error) {
	missed := ls.log.entriesAfter(op.ClientSequence)
	rec := &models.ConflictRecord{
		ID:             uuid.New(),
		SessionID:      sessionID,
		AuthorID:       op.AuthorID,
		ClientSequence: op.ClientSequence,
		ServerSequence: ls.seq,
		Operation:      op,
		Missed:         missed,
		CreatedAt:      time.Now(),
	}

	strategy := m.strategyForLocked(ls)
	res := m.resolver.Resolve(strategy, &Conflict{
		SessionID: sessionID,
		Operation: op,
		Missed:    missed,
		Roster:    ls.data.Participants,
	})

	if res.Accepted {
		rebased := res.Operation
		rebased.ClientSequence = ls.seq
		outcome, err := m.acceptAndFanOut(ls, sessionID, rebased, strategy)
		// The audit row claims auto-resolution only once the re-based
		// operation actually applied.
		if err == nil && outcome.Status == OutcomeAccepted {
			now := time.Now()
			rec.Resolved = true
			rec.Strategy = string(strategy)
			rec.ResolvedAt = &now
		}
		m.recordConflictAsync(rec)
		return outcome, err
	}

	seq := ls.seq
	ls.mu.Unlock()

	m.recordConflictAsync(rec)
	outcome := &Outcome{
		Status:            OutcomeConflict,
		ServerSequence:    seq,
		ResolutionOptions: models.ResolutionOptions,
		Conflict:          rec,
	}
	m.gateway.Deliver(sessionID, op.AuthorID, EventConflictNotification, map[string]any{
		"session_id":         sessionID,
		"user_id":            op.AuthorID,
		"conflict":           rec,
		"resolution_options": models.ResolutionOptions,
	})
	return outcome, nil
}

// ResolveConflict handles the submitter's explicit choice after an
// unresolved conflict. keep_yours re-submits at the current sequence,
// keep_theirs acknowledges the server state, merge retries the merge
// strategy on demand, and manual returns the full canvas for hand
// resolution.
func (m *Manager) ResolveConflict(ctx context.Context, sessionID string, userID uuid.UUID, conflictID uuid.UUID, choice string, op models.Operation) (*Outcome, error) {
	switch choice {
	case "keep_yours":
		ls, err := m.store.acquire(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		op.ClientSequence = ls.seq
		ls.mu.Unlock()
		outcome, err := m.SubmitUpdate(ctx, sessionID, userID, op)
		if err == nil && outcome.Status == OutcomeAccepted {
			m.markResolvedAsync(conflictID, choice)
		}
		return outcome, err

	case "keep_theirs":
		ls, err := m.store.acquire(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		seq := ls.seq
		ls.mu.Unlock()
		m.markResolvedAsync(conflictID, choice)
		return &Outcome{Status: OutcomeAcknowledged, ServerSequence: seq}, nil

	case "merge":
		ls, err := m.store.acquire(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !ls.data.Active {
			ls.mu.Unlock()
			return nil, ErrSessionClosed
		}
		p, ok := ls.data.Participants[userID]
		if !ok || !p.Active {
			ls.mu.Unlock()
			return nil, ErrNotAParticipant
		}
		op.AuthorID = userID
		if op.Timestamp.IsZero() {
			op.Timestamp = time.Now()
		}
		res := m.resolver.Resolve(StrategyMerge, &Conflict{
			SessionID: sessionID,
			Operation: op,
			Missed:    ls.log.entriesAfter(op.ClientSequence),
			Roster:    ls.data.Participants,
		})
		if !res.Accepted {
			// Merge is not implemented for this operation type; fall back to
			// manual with the current state so the user always has a path
			// forward.
			canvas := ls.data.Canvas
			seq := ls.seq
			ls.mu.Unlock()
			return &Outcome{Status: OutcomeManual, ServerSequence: seq, Canvas: &canvas}, nil
		}
		rebased := res.Operation
		rebased.ClientSequence = ls.seq
		m.markResolvedAsync(conflictID, choice)
		return m.acceptAndFanOut(ls, sessionID, rebased, StrategyMerge)

	case "manual":
		ls, err := m.store.acquire(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		canvas := ls.data.Canvas
		canvas.Layers = append([]models.Layer(nil), ls.data.Canvas.Layers...)
		seq := ls.seq
		ls.mu.Unlock()
		return &Outcome{Status: OutcomeManual, ServerSequence: seq, Canvas: &canvas}, nil
	}

	return nil, ErrUnknownResolution
}

// SendChatMessage appends to the session chat history and broadcasts it.
func (m *Manager) SendChatMessage(ctx context.Context, sessionID string, userID uuid.UUID, text string) (*models.ChatEntry, error) {
	ls, err := m.store.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p, ok := ls.data.Participants[userID]
	if !ok || !p.Active {
		ls.mu.Unlock()
		return nil, ErrNotAParticipant
	}
	entry := models.ChatEntry{
		Kind:      models.ChatKindUser,
		UserID:    userID,
		UserName:  p.Name,
		Message:   text,
		Timestamp: time.Now(),
	}
	m.appendChatLocked(ls, entry)
	ls.touchLocked()
	creatorID, title, active := ls.data.CreatorID, ls.data.Title, ls.data.Active
	raw, encErr := ls.encodeLocked()
	ls.mu.Unlock()

	m.persistAsync(sessionID, creatorID, title, active, raw, encErr)
	m.gateway.Notify(sessionID, EventChatMessage, map[string]any{
		"session_id": sessionID,
		"message":    entry,
	})
	return &entry, nil
}

func (m *Manager) strategyForLocked(ls *liveSession) Strategy {
	if s := ls.data.Settings.ConflictStrategy; s != "" {
		return Strategy(s)
	}
	return m.cfg.DefaultStrategy
}

func (m *Manager) appendChatLocked(ls *liveSession, entry models.ChatEntry) {
	ls.data.ChatHistory = append(ls.data.ChatHistory, entry)
	if len(ls.data.ChatHistory) > m.cfg.ChatHistoryCap {
		ls.data.ChatHistory = ls.data.ChatHistory[len(ls.data.ChatHistory)-m.cfg.ChatHistoryCap:]
	}
}

// persistAsync writes a snapshot without blocking the caller. An accepted
// in-memory change is never rolled back on a failed write; the next
// successful snapshot reconciles.
func (m *Manager) persistAsync(sessionID string, creatorID uuid.UUID, title string, active bool, raw []byte, encErr error) {
	if encErr != nil {
		log.Printf("Failed to encode session %s for snapshot: %v", sessionID, encErr)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.snapshots.Save(ctx, sessionID, creatorID, title, active, raw); err != nil {
			log.Printf("Failed to save snapshot for session %s: %v", sessionID, err)
		}
	}()
}

func (m *Manager) recordConflictAsync(rec *models.ConflictRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.conflicts.Record(ctx, rec); err != nil {
			log.Printf("Failed to record conflict %s for session %s: %v", rec.ID, rec.SessionID, err)
		}
	}()
}

func (m *Manager) markResolvedAsync(conflictID uuid.UUID, strategy string) {
	if conflictID == uuid.Nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.conflicts.MarkResolved(ctx, conflictID, strategy); err != nil {
			log.Printf("Failed to mark conflict %s resolved: %v", conflictID, err)
		}
	}()
}
