package collab

import (
	"encoding/json"
	"sync"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

// Strategy names a conflict resolution policy. The built-in set is closed;
// Register adds extension strategies under new names.
type Strategy string

const (
	StrategyTimestamp Strategy = "timestamp"
	StrategyPriority  Strategy = "priority"
	StrategyMerge     Strategy = "merge"
	StrategyConsensus Strategy = "consensus"
	StrategyLatest    Strategy = "latest"
)

// Conflict is everything a strategy may consult: the conflicting operation,
// the operations its author missed, and the session roster for priority
// lookups. Strategies are pure functions of this value.
type Conflict struct {
	SessionID string
	Operation models.Operation
	Missed    []models.OperationLogEntry
	Roster    map[uuid.UUID]*models.Participant
}

// Resolution is the uniform result of a strategy. When Accepted is true,
// Operation is the (possibly transformed) operation to re-base at the current
// sequence; otherwise the conflict falls through to manual resolution.
type Resolution struct {
	Accepted  bool
	Operation models.Operation
}

type StrategyFunc func(*Conflict) Resolution

// Resolver dispatches conflicts to a named strategy. Built-in strategies are
// compiled in; custom ones can be registered at startup.
type Resolver struct {
	mu     sync.RWMutex
	custom map[Strategy]StrategyFunc
}

func NewResolver() *Resolver {
	return &Resolver{custom: make(map[Strategy]StrategyFunc)}
}

// Register installs a custom strategy. Built-in names cannot be overridden.
func (r *Resolver) Register(name Strategy, fn StrategyFunc) {
	switch name {
	case StrategyTimestamp, StrategyPriority, StrategyMerge, StrategyConsensus, StrategyLatest:
		return
	}
	r.mu.Lock()
	r.custom[name] = fn
	r.mu.Unlock()
}

// Resolve runs the named strategy. Unknown strategies defer to manual
// resolution rather than failing.
func (r *Resolver) Resolve(name Strategy, c *Conflict) Resolution {
	switch name {
	case StrategyTimestamp:
		return resolveByTimestamp(c)
	case StrategyPriority:
		return resolveByPriority(c)
	case StrategyMerge:
		return resolveByMerge(c)
	case StrategyConsensus:
		// Consensus needs a participant vote; never auto-resolves.
		return Resolution{}
	case StrategyLatest:
		// The server's already-applied operations win.
		return Resolution{}
	}

	r.mu.RLock()
	fn, ok := r.custom[name]
	r.mu.RUnlock()
	if ok {
		return fn(c)
	}
	return Resolution{}
}

// resolveByTimestamp accepts the incoming operation only if its client-side
// timestamp is strictly newer than every operation it missed. Ties favor the
// server.
func resolveByTimestamp(c *Conflict) Resolution {
	if len(c.Missed) == 0 {
		return Resolution{Accepted: true, Operation: c.Operation}
	}
	for _, missed := range c.Missed {
		if !c.Operation.Timestamp.After(missed.Timestamp) {
			return Resolution{}
		}
	}
	return Resolution{Accepted: true, Operation: c.Operation}
}

// resolveByPriority accepts the incoming operation only if its author's role
// priority is strictly greater than that of every missed operation's author.
// Equal priority favors the already-applied operation.
func resolveByPriority(c *Conflict) Resolution {
	if len(c.Missed) == 0 {
		return Resolution{Accepted: true, Operation: c.Operation}
	}

	author, ok := c.Roster[c.Operation.AuthorID]
	if !ok {
		return Resolution{}
	}
	authorPriority := models.RolePriority(author.Role)

	for _, missed := range c.Missed {
		priority := 0
		if p, ok := c.Roster[missed.AuthorID]; ok {
			priority = models.RolePriority(p.Role)
		}
		if priority >= authorPriority {
			return Resolution{}
		}
	}
	return Resolution{Accepted: true, Operation: c.Operation}
}

// resolveByMerge handles the two mergeable cases: layer_add operations are
// always re-baseable, and drawing operations are wrapped into a synthetic
// merged_drawing that layers both changes. Everything else (layer_update,
// layer_delete, text) is a known capability gap and falls through to manual
// resolution.
func resolveByMerge(c *Conflict) Resolution {
	switch c.Operation.Type {
	case models.OpLayerAdd:
		return Resolution{Accepted: true, Operation: c.Operation}

	case models.OpDrawing:
		original, err := json.Marshal(c.Operation)
		if err != nil {
			return Resolution{}
		}
		body, err := json.Marshal(models.MergedDrawingBody{
			SchemaVersion:   models.OperationSchemaVersion,
			ClientOperation: original,
			Merged:          true,
		})
		if err != nil {
			return Resolution{}
		}
		merged := c.Operation
		merged.Type = models.OpMergedDrawing
		merged.Body = body
		return Resolution{Accepted: true, Operation: merged}
	}
	return Resolution{}
}
