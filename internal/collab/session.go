package collab

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

// liveSession is the in-memory serialization domain for one session: the
// sequencer, canvas, roster and operation log only ever change under mu.
// Separate sessions proceed fully in parallel.
type liveSession struct {
	mu sync.Mutex

	data *models.Session
	seq  int64
	log  *operationLog

	lastActive       time.Time
	opsSinceSnapshot int

	// evicted is set under mu when the store drops this instance. A caller
	// that observes it after locking must re-fetch instead of mutating the
	// orphan.
	evicted bool
}

// snapshotEnvelope is the persisted form of a session: the document plus the
// sequencer position and the bounded log, so conflict replay survives a
// restart.
type snapshotEnvelope struct {
	Session      *models.Session            `json:"session"`
	Sequence     int64                      `json:"sequence"`
	OperationLog []models.OperationLogEntry `json:"operation_log"`
}

func newLiveSession(data *models.Session, logCap int) *liveSession {
	return &liveSession{
		data:       data,
		log:        newOperationLog(logCap),
		lastActive: time.Now(),
	}
}

func decodeLiveSession(raw []byte, logCap int) (*liveSession, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	if env.Session == nil {
		return nil, fmt.Errorf("session snapshot has no session document")
	}
	if env.Session.Participants == nil {
		env.Session.Participants = make(map[uuid.UUID]*models.Participant)
	}
	ls := newLiveSession(env.Session, logCap)
	ls.seq = env.Sequence
	ls.log.restore(env.OperationLog)
	return ls, nil
}

// encodeLocked serializes the session for persistence. Caller holds mu.
func (ls *liveSession) encodeLocked() ([]byte, error) {
	return json.Marshal(snapshotEnvelope{
		Session:      ls.data,
		Sequence:     ls.seq,
		OperationLog: ls.log.snapshot(),
	})
}

// acceptLocked applies a canvas mutation, advances the sequencer and appends
// to the log. On apply failure nothing moves. Caller holds mu.
func (ls *liveSession) acceptLocked(op *models.Operation) error {
	if err := applyOperation(&ls.data.Canvas, op); err != nil {
		return err
	}
	ls.seq++
	op.ServerSequence = ls.seq
	ls.log.append(models.OperationLogEntry{
		Sequence:  ls.seq,
		AuthorID:  op.AuthorID,
		Timestamp: op.Timestamp,
		Operation: *op,
	})
	ls.opsSinceSnapshot++
	return nil
}

// cloneLocked returns a deep copy of the session document safe to hand out
// after mu is released. Caller holds mu.
func (ls *liveSession) cloneLocked() models.Session {
	out := *ls.data

	out.Participants = make(map[uuid.UUID]*models.Participant, len(ls.data.Participants))
	for id, p := range ls.data.Participants {
		copied := *p
		out.Participants[id] = &copied
	}

	out.Canvas.Layers = make([]models.Layer, len(ls.data.Canvas.Layers))
	copy(out.Canvas.Layers, ls.data.Canvas.Layers)

	out.Settings.Tools = append([]string(nil), ls.data.Settings.Tools...)
	out.ChatHistory = append([]models.ChatEntry(nil), ls.data.ChatHistory...)

	return out
}

func (ls *liveSession) touchLocked() {
	ls.lastActive = time.Now()
}
