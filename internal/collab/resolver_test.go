package collab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterWith(roles ...string) (map[uuid.UUID]*models.Participant, []uuid.UUID) {
	roster := make(map[uuid.UUID]*models.Participant, len(roles))
	ids := make([]uuid.UUID, len(roles))
	for i, role := range roles {
		id := uuid.New()
		ids[i] = id
		roster[id] = &models.Participant{UserID: id, Role: role, Active: true}
	}
	return roster, ids
}

func TestResolveByTimestamp_EmptyMissedAccepts(t *testing.T) {
	res := resolveByTimestamp(&Conflict{
		Operation: models.Operation{Timestamp: time.Now()},
	})
	assert.True(t, res.Accepted)
}

func TestResolveByTimestamp_NewerThanAllMissedAccepts(t *testing.T) {
	base := time.Now()
	res := resolveByTimestamp(&Conflict{
		Operation: models.Operation{Timestamp: base},
		Missed: []models.OperationLogEntry{
			{Timestamp: base.Add(-2 * time.Second)},
			{Timestamp: base.Add(-1 * time.Second)},
		},
	})
	assert.True(t, res.Accepted)
}

func TestResolveByTimestamp_OlderThanAnyMissedRejects(t *testing.T) {
	base := time.Now()
	res := resolveByTimestamp(&Conflict{
		Operation: models.Operation{Timestamp: base},
		Missed: []models.OperationLogEntry{
			{Timestamp: base.Add(-1 * time.Second)},
			{Timestamp: base.Add(time.Second)},
		},
	})
	assert.False(t, res.Accepted)
}

func TestResolveByTimestamp_TieFavorsServer(t *testing.T) {
	base := time.Now()
	res := resolveByTimestamp(&Conflict{
		Operation: models.Operation{Timestamp: base},
		Missed:    []models.OperationLogEntry{{Timestamp: base}},
	})
	assert.False(t, res.Accepted)
}

func TestResolveByPriority_HigherRoleWins(t *testing.T) {
	roster, ids := rosterWith(models.RoleAdmin, models.RoleViewer)
	res := resolveByPriority(&Conflict{
		Operation: models.Operation{AuthorID: ids[0]},
		Missed:    []models.OperationLogEntry{{AuthorID: ids[1]}},
		Roster:    roster,
	})
	assert.True(t, res.Accepted)
}

func TestResolveByPriority_EqualRoleFavorsServer(t *testing.T) {
	roster, ids := rosterWith(models.RoleEditor, models.RoleEditor)
	res := resolveByPriority(&Conflict{
		Operation: models.Operation{AuthorID: ids[0]},
		Missed:    []models.OperationLogEntry{{AuthorID: ids[1]}},
		Roster:    roster,
	})
	assert.False(t, res.Accepted)
}

func TestResolveByPriority_UnknownAuthorRejects(t *testing.T) {
	roster, ids := rosterWith(models.RoleViewer)
	res := resolveByPriority(&Conflict{
		Operation: models.Operation{AuthorID: uuid.New()},
		Missed:    []models.OperationLogEntry{{AuthorID: ids[0]}},
		Roster:    roster,
	})
	assert.False(t, res.Accepted)
}

func TestResolveByPriority_MissedAuthorNotInRosterTreatedAsZero(t *testing.T) {
	roster, ids := rosterWith(models.RoleViewer)
	res := resolveByPriority(&Conflict{
		Operation: models.Operation{AuthorID: ids[0]},
		Missed:    []models.OperationLogEntry{{AuthorID: uuid.New()}},
		Roster:    roster,
	})
	assert.True(t, res.Accepted)
}

func TestResolveByMerge_LayerAddRebases(t *testing.T) {
	op := models.Operation{Type: models.OpLayerAdd, Body: json.RawMessage(`{"layer":{"id":"x"}}`)}
	res := resolveByMerge(&Conflict{
		Operation: op,
		Missed:    []models.OperationLogEntry{{Sequence: 3}},
	})
	require.True(t, res.Accepted)
	assert.Equal(t, models.OpLayerAdd, res.Operation.Type)
}

func TestResolveByMerge_DrawingWrappedAsMergedDrawing(t *testing.T) {
	op := models.Operation{
		Type:      models.OpDrawing,
		AuthorID:  uuid.New(),
		Timestamp: time.Now(),
		Body:      json.RawMessage(`{"points":[[1,1]]}`),
	}
	res := resolveByMerge(&Conflict{Operation: op})

	require.True(t, res.Accepted)
	assert.Equal(t, models.OpMergedDrawing, res.Operation.Type)

	var body models.MergedDrawingBody
	require.NoError(t, json.Unmarshal(res.Operation.Body, &body))
	assert.True(t, body.Merged)

	var original models.Operation
	require.NoError(t, json.Unmarshal(body.ClientOperation, &original))
	assert.Equal(t, models.OpDrawing, original.Type)
}

func TestResolveByMerge_LayerUpdateFallsToManual(t *testing.T) {
	res := resolveByMerge(&Conflict{
		Operation: models.Operation{Type: models.OpLayerUpdate},
	})
	assert.False(t, res.Accepted)
}

func TestResolver_ConsensusNeverAutoResolves(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(StrategyConsensus, &Conflict{
		Operation: models.Operation{Timestamp: time.Now()},
	})
	assert.False(t, res.Accepted)
}

func TestResolver_LatestAlwaysFavorsServer(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(StrategyLatest, &Conflict{
		Operation: models.Operation{Timestamp: time.Now().Add(time.Hour)},
	})
	assert.False(t, res.Accepted)
}

func TestResolver_UnknownStrategyDefersToManual(t *testing.T) {
	r := NewResolver()
	res := r.Resolve("vote-weighted", &Conflict{})
	assert.False(t, res.Accepted)
}

func TestResolver_RegisterCustomStrategy(t *testing.T) {
	r := NewResolver()
	r.Register("always-accept", func(c *Conflict) Resolution {
		return Resolution{Accepted: true, Operation: c.Operation}
	})

	res := r.Resolve("always-accept", &Conflict{
		Operation: models.Operation{Type: models.OpDrawing},
	})
	assert.True(t, res.Accepted)
}

func TestResolver_RegisterCannotOverrideBuiltin(t *testing.T) {
	r := NewResolver()
	r.Register(StrategyLatest, func(c *Conflict) Resolution {
		return Resolution{Accepted: true}
	})

	res := r.Resolve(StrategyLatest, &Conflict{})
	assert.False(t, res.Accepted)
}
