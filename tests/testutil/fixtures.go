package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for in-memory test data
type Fixtures struct {
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures() *Fixtures {
	return &Fixtures{}
}

// Participant creates a test participant with the given role
func (f *Fixtures) Participant(role string) *models.Participant {
	f.counter++
	return &models.Participant{
		UserID:   uuid.New(),
		Name:     fmt.Sprintf("Test User %d", f.counter),
		Role:     role,
		JoinedAt: time.Now(),
		Active:   true,
	}
}

// Session creates a test session with a creator and default settings
func (f *Fixtures) Session(t *testing.T) *models.Session {
	t.Helper()
	creator := f.Participant(models.RoleCreator)
	return &models.Session{
		ID:        models.NewSessionID(),
		Title:     fmt.Sprintf("Test Session %d", f.counter),
		CreatorID: creator.UserID,
		CreatedAt: time.Now(),
		Settings:  models.DefaultSessionSettings(),
		Participants: map[uuid.UUID]*models.Participant{
			creator.UserID: creator,
		},
		Canvas: models.NewCanvasState(),
		Active: true,
	}
}

// LayerAddOp builds a layer_add operation at the given client sequence
func LayerAddOp(t *testing.T, clientSeq int64, layerID string) models.Operation {
	t.Helper()
	body, err := json.Marshal(models.LayerAddBody{
		SchemaVersion: models.OperationSchemaVersion,
		Layer:         models.Layer{ID: layerID, Name: layerID, Visible: true},
	})
	if err != nil {
		t.Fatalf("failed to marshal layer_add body: %v", err)
	}
	return models.Operation{
		Type:           models.OpLayerAdd,
		ClientSequence: clientSeq,
		Timestamp:      time.Now(),
		Body:           body,
	}
}

// LayerUpdateOp builds a layer_update operation at the given client sequence
func LayerUpdateOp(t *testing.T, clientSeq int64, layerID, data string) models.Operation {
	t.Helper()
	body, err := json.Marshal(models.LayerUpdateBody{
		SchemaVersion: models.OperationSchemaVersion,
		LayerID:       layerID,
		Data:          data,
	})
	if err != nil {
		t.Fatalf("failed to marshal layer_update body: %v", err)
	}
	return models.Operation{
		Type:           models.OpLayerUpdate,
		ClientSequence: clientSeq,
		Timestamp:      time.Now(),
		Body:           body,
	}
}

// DrawingOp builds a drawing operation at the given client sequence
func DrawingOp(t *testing.T, clientSeq int64) models.Operation {
	t.Helper()
	return models.Operation{
		Type:           models.OpDrawing,
		ClientSequence: clientSeq,
		Timestamp:      time.Now(),
		Body:           json.RawMessage(`{"schema_version":1,"points":[[0,0],[10,10]]}`),
	}
}
