package testutil

import (
	"context"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/hub"
	"github.com/easelhq/easel-api/internal/models"
	"github.com/easelhq/easel-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionManager mocks the collab Manager
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) CreateSession(ctx context.Context, creatorID uuid.UUID, creatorName, title, description string, settings *models.SessionSettings) (*models.Session, error) {
	args := m.Called(ctx, creatorID, creatorName, title, description, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionManager) JoinSession(ctx context.Context, sessionID string, userID uuid.UUID, name string) (*collab.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collab.SessionSnapshot), args.Error(1)
}

func (m *MockSessionManager) LeaveSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *MockSessionManager) CloseSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *MockSessionManager) Snapshot(ctx context.Context, sessionID string) (*collab.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collab.SessionSnapshot), args.Error(1)
}

func (m *MockSessionManager) SubmitUpdate(ctx context.Context, sessionID string, userID uuid.UUID, op models.Operation) (*collab.Outcome, error) {
	args := m.Called(ctx, sessionID, userID, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collab.Outcome), args.Error(1)
}

func (m *MockSessionManager) ResolveConflict(ctx context.Context, sessionID string, userID uuid.UUID, conflictID uuid.UUID, choice string, op models.Operation) (*collab.Outcome, error) {
	args := m.Called(ctx, sessionID, userID, conflictID, choice, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collab.Outcome), args.Error(1)
}

func (m *MockSessionManager) SendChatMessage(ctx context.Context, sessionID string, userID uuid.UUID, text string) (*models.ChatEntry, error) {
	args := m.Called(ctx, sessionID, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatEntry), args.Error(1)
}

// MockSnapshotService mocks the SnapshotService
type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) Save(ctx context.Context, sessionID string, creatorID uuid.UUID, title string, active bool, data []byte) error {
	args := m.Called(ctx, sessionID, creatorID, title, active, data)
	return args.Error(0)
}

func (m *MockSnapshotService) Load(ctx context.Context, sessionID string) ([]byte, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSnapshotService) ListActive(ctx context.Context) ([]services.SessionSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.SessionSummary), args.Error(1)
}

// MockConflictService mocks the ConflictService
type MockConflictService struct {
	mock.Mock
}

func (m *MockConflictService) Record(ctx context.Context, rec *models.ConflictRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockConflictService) MarkResolved(ctx context.Context, id uuid.UUID, strategy string) error {
	args := m.Called(ctx, id, strategy)
	return args.Error(0)
}

func (m *MockConflictService) ListBySession(ctx context.Context, sessionID string) ([]models.ConflictRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConflictRecord), args.Error(1)
}

// MockHub mocks the event hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Subscribe(clientID, sessionID string) {
	m.Called(clientID, sessionID)
}

func (m *MockHub) Unsubscribe(clientID, sessionID string) {
	m.Called(clientID, sessionID)
}
